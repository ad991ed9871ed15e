package vector

import (
	"context"
	"math"

	"github.com/stratumlab/sowforge/internal/model"
)

// Payload is what an index stores next to a vector and hands back in
// query results.
type Payload struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Index answers top-k nearest-neighbor queries over upserted vectors.
// Upsert replaces any earlier entry with the same id. Scores from
// different index implementations are not comparable with each other.
type Index interface {
	Upsert(ctx context.Context, id string, vec []float32, payload Payload) error
	Query(ctx context.Context, vec []float32, k int) ([]model.SearchResult, error)
}

// Cosine is the normalized dot product of two vectors, 0 when either
// norm is zero or the lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
