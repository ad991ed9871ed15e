package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

type SOWRepo struct {
	db *sql.DB
}

func NewSOWRepo(db *sql.DB) *SOWRepo {
	return &SOWRepo{db: db}
}

// Create inserts a generated statement of work. Artifacts are
// write-once, so there is no update path.
func (r *SOWRepo) Create(ctx context.Context, sow *model.SOWDocument) error {
	const query = `
		INSERT INTO sow_documents (id, user_id, project_id, title, body, metadata, ctime, mirrored)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	meta, err := json.Marshal(sow.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query,
		sow.ID,
		sow.UserID,
		sow.ProjectID,
		sow.Title,
		sow.Body,
		meta,
		sow.Ctime,
		sow.Mirrored,
	)
	return err
}

func (r *SOWRepo) Get(ctx context.Context, userID, sowID string) (*model.SOWDocument, error) {
	const query = `
		SELECT id, user_id, project_id, title, body, metadata, ctime, mirrored
		FROM sow_documents
		WHERE id = $1 AND user_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, sowID, userID)
	sow, err := scanSOW(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	return sow, err
}

func (r *SOWRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.SOWDocument, error) {
	const query = `
		SELECT id, user_id, project_id, title, body, metadata, ctime, mirrored
		FROM sow_documents
		WHERE user_id = $1
		ORDER BY ctime DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var sows []model.SOWDocument
	for rows.Next() {
		sow, err := scanSOW(rows)
		if err != nil {
			return nil, err
		}
		sows = append(sows, *sow)
	}
	return sows, rows.Err()
}

// ListUnmirrored returns artifacts not yet copied to the warehouse
// mirror.
func (r *SOWRepo) ListUnmirrored(ctx context.Context, limit int) ([]model.SOWDocument, error) {
	const query = `
		SELECT id, user_id, project_id, title, body, metadata, ctime, mirrored
		FROM sow_documents
		WHERE NOT mirrored
		ORDER BY ctime
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var sows []model.SOWDocument
	for rows.Next() {
		sow, err := scanSOW(rows)
		if err != nil {
			return nil, err
		}
		sows = append(sows, *sow)
	}
	return sows, rows.Err()
}

func (r *SOWRepo) MarkMirrored(ctx context.Context, sowIDs []string) error {
	if len(sowIDs) == 0 {
		return nil
	}
	const query = `UPDATE sow_documents SET mirrored = TRUE WHERE id = ANY($1)`
	_, err := r.db.ExecContext(ctx, query, pq.Array(sowIDs))
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSOW(row rowScanner) (*model.SOWDocument, error) {
	var sow model.SOWDocument
	var meta []byte
	if err := row.Scan(&sow.ID, &sow.UserID, &sow.ProjectID, &sow.Title, &sow.Body, &meta, &sow.Ctime, &sow.Mirrored); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &sow.Metadata); err != nil {
		return nil, err
	}
	return &sow, nil
}
