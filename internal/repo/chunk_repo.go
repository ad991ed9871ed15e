package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Save upserts one chunk keyed by its vector id. A nil embedding is
// stored as NULL so the backfill job can pick the chunk up later.
func (r *ChunkRepo) Save(ctx context.Context, chunk *model.StoredChunk) error {
	const query = `
		INSERT INTO document_chunks (id, document_id, chunk_id, content, metadata, embedding, mirrored)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			mirrored = EXCLUDED.mirrored
	`
	meta, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return err
	}
	var embedding interface{}
	if chunk.Embedding != nil {
		embedding = pgvector.NewVector(chunk.Embedding)
	}
	_, err = r.db.ExecContext(ctx, query,
		chunk.ID,
		chunk.DocumentID,
		chunk.ChunkID,
		chunk.Content,
		meta,
		embedding,
		chunk.Mirrored,
	)
	return err
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, docID string) ([]model.StoredChunk, error) {
	const query = `
		SELECT id, document_id, chunk_id, content, metadata, embedding, mirrored
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_id
	`
	return r.list(ctx, query, docID)
}

// ListUnembedded returns chunks whose embedding column is still NULL,
// oldest documents first.
func (r *ChunkRepo) ListUnembedded(ctx context.Context, limit int) ([]model.StoredChunk, error) {
	const query = `
		SELECT id, document_id, chunk_id, content, metadata, embedding, mirrored
		FROM document_chunks
		WHERE embedding IS NULL
		ORDER BY document_id, chunk_id
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// ListUnmirrored returns embedded chunks not yet copied to the
// warehouse mirror.
func (r *ChunkRepo) ListUnmirrored(ctx context.Context, limit int) ([]model.StoredChunk, error) {
	const query = `
		SELECT id, document_id, chunk_id, content, metadata, embedding, mirrored
		FROM document_chunks
		WHERE NOT mirrored AND embedding IS NOT NULL
		ORDER BY document_id, chunk_id
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// ListEmbedded streams every chunk that already has an embedding, used
// to rebuild the in-memory index on startup.
func (r *ChunkRepo) ListEmbedded(ctx context.Context) ([]model.StoredChunk, error) {
	const query = `
		SELECT id, document_id, chunk_id, content, metadata, embedding, mirrored
		FROM document_chunks
		WHERE embedding IS NOT NULL
		ORDER BY document_id, chunk_id
	`
	return r.list(ctx, query)
}

func (r *ChunkRepo) SetEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	const query = `UPDATE document_chunks SET embedding = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), chunkID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *ChunkRepo) MarkMirrored(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	const query = `UPDATE document_chunks SET mirrored = TRUE WHERE id = ANY($1)`
	_, err := r.db.ExecContext(ctx, query, pq.Array(chunkIDs))
	return err
}

func (r *ChunkRepo) DeleteByDocument(ctx context.Context, docID string) error {
	const query = `DELETE FROM document_chunks WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, query, docID)
	return err
}

func (r *ChunkRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.StoredChunk, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var chunks []model.StoredChunk
	for rows.Next() {
		var chunk model.StoredChunk
		var meta []byte
		var embedding *pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkID, &chunk.Content, &meta, &embedding, &chunk.Mirrored); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &chunk.Metadata); err != nil {
			return nil, err
		}
		if embedding != nil {
			chunk.Embedding = embedding.Slice()
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
