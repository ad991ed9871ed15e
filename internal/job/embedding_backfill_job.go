package job

import (
	"context"

	"github.com/stratumlab/sowforge/internal/service"
)

type EmbeddingBackfillJob struct {
	documents *service.DocumentService
	batchSize int
}

func NewEmbeddingBackfillJob(documents *service.DocumentService, batchSize int) *EmbeddingBackfillJob {
	return &EmbeddingBackfillJob{documents: documents, batchSize: batchSize}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	if j.documents == nil {
		return nil
	}
	return j.documents.ProcessPendingEmbeddings(ctx, j.batchSize)
}
