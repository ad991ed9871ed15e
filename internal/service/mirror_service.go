package service

import (
	"context"
	"strconv"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stratumlab/sowforge/internal/repo"
	"github.com/stratumlab/sowforge/internal/warehouse"
)

// MirrorService copies embedded chunks and generated artifacts into the
// analytics warehouse. Mirroring is strictly one-way and never
// participates in ranking or generation.
type MirrorService struct {
	chunks *repo.ChunkRepo
	sows   *repo.SOWRepo
	client *warehouse.Client
}

func NewMirrorService(chunks *repo.ChunkRepo, sows *repo.SOWRepo, client *warehouse.Client) *MirrorService {
	return &MirrorService{chunks: chunks, sows: sows, client: client}
}

func (s *MirrorService) EnsureTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.client.QualifiedTable("document_chunks") + ` (
			id STRING, document_id STRING, chunk_id INT, content STRING)`,
		`CREATE TABLE IF NOT EXISTS ` + s.client.QualifiedTable("sow_documents") + ` (
			id STRING, project_id STRING, title STRING, body STRING, ctime BIGINT)`,
	}
	for _, statement := range statements {
		if err := s.client.Execute(ctx, statement, nil); err != nil {
			return err
		}
	}
	return nil
}

// SyncChunks mirrors up to batchSize embedded chunks and marks them
// mirrored only after the warehouse confirms the insert.
func (s *MirrorService) SyncChunks(ctx context.Context, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	chunks, err := s.chunks.ListUnmirrored(ctx, batchSize)
	if err != nil {
		return err
	}
	table := s.client.QualifiedTable("document_chunks")
	var done []string
	for i := range chunks {
		chunk := &chunks[i]
		statement := `INSERT INTO ` + table + ` (id, document_id, chunk_id, content) VALUES (:id, :document_id, :chunk_id, :content)`
		params := []warehouse.Param{
			{Name: "id", Value: chunk.ID},
			{Name: "document_id", Value: chunk.DocumentID},
			{Name: "chunk_id", Value: strconv.Itoa(chunk.ChunkID)},
			{Name: "content", Value: chunk.Content},
		}
		if err := s.client.Execute(ctx, statement, params); err != nil {
			logutil.GetLogger(ctx).Warn("chunk mirror failed", zap.String("chunk", chunk.ID), zap.Error(err))
			continue
		}
		done = append(done, chunk.ID)
	}
	if err := s.chunks.MarkMirrored(ctx, done); err != nil {
		return err
	}
	if len(done) > 0 {
		logutil.GetLogger(ctx).Info("chunks mirrored", zap.Int("count", len(done)))
	}
	return nil
}

// SyncSOWs mirrors generated artifacts the same way.
func (s *MirrorService) SyncSOWs(ctx context.Context, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	sows, err := s.sows.ListUnmirrored(ctx, batchSize)
	if err != nil {
		return err
	}
	table := s.client.QualifiedTable("sow_documents")
	var done []string
	for i := range sows {
		sow := &sows[i]
		statement := `INSERT INTO ` + table + ` (id, project_id, title, body, ctime) VALUES (:id, :project_id, :title, :body, :ctime)`
		params := []warehouse.Param{
			{Name: "id", Value: sow.ID},
			{Name: "project_id", Value: sow.ProjectID},
			{Name: "title", Value: sow.Title},
			{Name: "body", Value: sow.Body},
			{Name: "ctime", Value: strconv.FormatInt(sow.Ctime, 10)},
		}
		if err := s.client.Execute(ctx, statement, params); err != nil {
			logutil.GetLogger(ctx).Warn("sow mirror failed", zap.String("sow", sow.ID), zap.Error(err))
			continue
		}
		done = append(done, sow.ID)
	}
	if err := s.sows.MarkMirrored(ctx, done); err != nil {
		return err
	}
	if len(done) > 0 {
		logutil.GetLogger(ctx).Info("sows mirrored", zap.Int("count", len(done)))
	}
	return nil
}
