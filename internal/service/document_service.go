package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stratumlab/sowforge/internal/ai"
	"github.com/stratumlab/sowforge/internal/filestore"
	"github.com/stratumlab/sowforge/internal/ingest"
	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/repo"
	"github.com/stratumlab/sowforge/internal/retry"
	"github.com/stratumlab/sowforge/internal/vector"
)

const defaultTopK = 5

// DocumentService runs the ingestion pipeline end to end: extract,
// chunk, embed, persist, index. Search goes the other way: embed the
// query and rank against the index.
type DocumentService struct {
	docs       *repo.DocumentRepo
	chunks     *repo.ChunkRepo
	store      filestore.Store
	chunker    *ingest.Chunker
	embedder   ai.IEmbedder
	index      vector.Index
	runner     *retry.Runner
	queryCache *expirable.LRU[string, []float32]
}

func NewDocumentService(
	docs *repo.DocumentRepo,
	chunks *repo.ChunkRepo,
	store filestore.Store,
	chunker *ingest.Chunker,
	embedder ai.IEmbedder,
	index vector.Index,
	runner *retry.Runner,
) *DocumentService {
	cache := expirable.NewLRU[string, []float32](10000, nil, 2*time.Hour)
	return &DocumentService{
		docs:       docs,
		chunks:     chunks,
		store:      store,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		runner:     runner,
		queryCache: cache,
	}
}

// Ingest processes one uploaded file. Chunks that fail to embed are
// stored without a vector and picked up by the backfill job, so a
// flaky embedding backend never loses the upload.
func (s *DocumentService) Ingest(ctx context.Context, userID, fileName string, data []byte) (*model.Document, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", userID), zap.String("file_name", fileName))

	source, err := ingest.Extract(fileName, data)
	if err != nil {
		return nil, err
	}
	chunks := s.chunker.Chunk(source)

	doc := &model.Document{
		ID:         newID(),
		UserID:     userID,
		FileName:   source.FileName,
		Format:     source.Format,
		ChunkCount: len(chunks),
		Ctime:      time.Now().UnixMilli(),
	}
	doc.FileKey = doc.ID + "." + doc.Format
	if err := s.store.Save(ctx, doc.FileKey, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	embedded := 0
	for i := range chunks {
		chunk := &chunks[i]
		stored := &model.StoredChunk{
			ID:         chunkVectorID(doc.ID, chunk.ChunkID),
			DocumentID: doc.ID,
			ChunkID:    chunk.ChunkID,
			Content:    chunk.Content,
			Metadata:   chunk.Metadata,
		}
		embedding, err := s.embedChunk(ctx, chunk.Content)
		if err != nil {
			logger.Warn("chunk embedding failed, deferring to backfill",
				zap.String("chunk", stored.ID), zap.Error(err))
		} else {
			stored.Embedding = embedding
			embedded++
		}
		if err := s.chunks.Save(ctx, stored); err != nil {
			return nil, err
		}
		if stored.Embedding != nil {
			if err := s.upsertChunk(ctx, stored); err != nil {
				logger.Warn("index upsert failed", zap.String("chunk", stored.ID), zap.Error(err))
			}
		}
	}
	logger.Info("document ingested",
		zap.String("doc_id", doc.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("embedded", embedded),
	)
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	return s.docs.Get(ctx, userID, docID)
}

func (s *DocumentService) List(ctx context.Context, userID string, offset, limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.docs.ListByUser(ctx, userID, offset, limit)
}

func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	if err := s.docs.Delete(ctx, userID, docID); err != nil {
		return err
	}
	return s.chunks.DeleteByDocument(ctx, docID)
}

// Search embeds the query and returns the topK most similar chunks.
// Query embeddings are cached so repeated queries skip the backend.
func (s *DocumentService) Search(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	var results []model.SearchResult
	err = s.runner.Do(ctx, "vector-query", func() error {
		var qerr error
		results, qerr = s.index.Query(ctx, embedding, topK)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ReloadIndex rebuilds the similarity index from persisted chunks.
// Called once at startup when the index lives in memory.
func (s *DocumentService) ReloadIndex(ctx context.Context) (int, error) {
	chunks, err := s.chunks.ListEmbedded(ctx)
	if err != nil {
		return 0, err
	}
	for i := range chunks {
		if err := s.upsertChunk(ctx, &chunks[i]); err != nil {
			return i, err
		}
	}
	return len(chunks), nil
}

// ProcessPendingEmbeddings embeds chunks whose upload-time embedding
// failed. Runs from the backfill job.
func (s *DocumentService) ProcessPendingEmbeddings(ctx context.Context, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	logger := logutil.GetLogger(ctx)
	chunks, err := s.chunks.ListUnembedded(ctx, batchSize)
	if err != nil {
		return err
	}
	for i := range chunks {
		chunk := &chunks[i]
		embedding, err := s.embedChunk(ctx, chunk.Content)
		if err != nil {
			logger.Warn("backfill embedding failed", zap.String("chunk", chunk.ID), zap.Error(err))
			continue
		}
		if err := s.chunks.SetEmbedding(ctx, chunk.ID, embedding); err != nil {
			return err
		}
		chunk.Embedding = embedding
		if err := s.upsertChunk(ctx, chunk); err != nil {
			logger.Warn("backfill index upsert failed", zap.String("chunk", chunk.ID), zap.Error(err))
		}
	}
	if len(chunks) > 0 {
		logger.Info("embedding backfill pass done", zap.Int("chunks", len(chunks)))
	}
	return nil
}

func (s *DocumentService) embedChunk(ctx context.Context, content string) ([]float32, error) {
	var embedding []float32
	err := s.runner.Do(ctx, "chunk-embed", func() error {
		var eerr error
		embedding, eerr = s.embedder.Embed(ctx, content)
		return eerr
	})
	return embedding, err
}

func (s *DocumentService) upsertChunk(ctx context.Context, chunk *model.StoredChunk) error {
	return s.runner.Do(ctx, "index-upsert", func() error {
		return s.index.Upsert(ctx, chunk.ID, chunk.Embedding, vector.Payload{
			Content:  chunk.Content,
			Metadata: chunk.Metadata,
		})
	})
}

func (s *DocumentService) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	hash := sha256.Sum256([]byte(query))
	key := hex.EncodeToString(hash[:])
	if cached, ok := s.queryCache.Get(key); ok {
		return cached, nil
	}
	var embedding []float32
	err := s.runner.Do(ctx, "query-embed", func() error {
		var eerr error
		embedding, eerr = s.embedder.Embed(ctx, query)
		return eerr
	})
	if err != nil {
		return nil, err
	}
	s.queryCache.Add(key, embedding)
	return embedding, nil
}

func chunkVectorID(docID string, chunkID int) string {
	return fmt.Sprintf("%s::%d", docID, chunkID)
}
