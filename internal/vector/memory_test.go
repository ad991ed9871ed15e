package vector

import (
	"context"
	"fmt"
	"math"
	"testing"
)

func TestCosineProperties(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.7}
	neg := make([]float32, len(v))
	for i := range v {
		neg[i] = -v[i]
	}
	zero := make([]float32, len(v))

	if got := Cosine(v, v); math.Abs(float64(got)-1.0) > 1e-6 {
		t.Fatalf("Cosine(v, v) = %v, want 1.0", got)
	}
	if got := Cosine(v, neg); math.Abs(float64(got)+1.0) > 1e-6 {
		t.Fatalf("Cosine(v, -v) = %v, want -1.0", got)
	}
	if got := Cosine(v, zero); got != 0 {
		t.Fatalf("Cosine(v, 0) = %v, want 0", got)
	}
	if got := Cosine(zero, zero); got != 0 {
		t.Fatalf("Cosine(0, 0) = %v, want 0", got)
	}
	if got := Cosine(v, []float32{1, 2}); got != 0 {
		t.Fatalf("Cosine with mismatched lengths = %v, want 0", got)
	}
}

func TestMemoryIndexQueryCounts(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	for i := 0; i < 4; i++ {
		vec := []float32{float32(i + 1), 1, 0}
		if err := idx.Upsert(ctx, fmt.Sprintf("c%d", i), vec, Payload{Content: fmt.Sprintf("chunk %d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("k > n: got %d results, want 4", len(results))
	}

	results, err = idx.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("k < n: got %d results, want 2", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted by descending score: %v then %v", results[i-1].Score, results[i].Score)
		}
	}
}

func TestMemoryIndexRanking(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	_ = idx.Upsert(ctx, "orthogonal", []float32{0, 1}, Payload{})
	_ = idx.Upsert(ctx, "aligned", []float32{2, 0}, Payload{})
	_ = idx.Upsert(ctx, "opposed", []float32{-1, 0}, Payload{})

	results, err := idx.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"aligned", "orthogonal", "opposed"}
	for i, id := range want {
		if results[i].ID != id {
			t.Fatalf("rank %d = %s, want %s", i, results[i].ID, id)
		}
	}
}

func TestMemoryIndexTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	// Parallel vectors score identically against any query.
	_ = idx.Upsert(ctx, "first", []float32{1, 1}, Payload{})
	_ = idx.Upsert(ctx, "second", []float32{2, 2}, Payload{})
	_ = idx.Upsert(ctx, "third", []float32{3, 3}, Payload{})

	results, err := idx.Query(ctx, []float32{1, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if results[i].ID != id {
			t.Fatalf("rank %d = %s, want %s", i, results[i].ID, id)
		}
	}
}

func TestMemoryIndexUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	_ = idx.Upsert(ctx, "doc::0", []float32{1, 0}, Payload{Content: "old"})
	_ = idx.Upsert(ctx, "doc::0", []float32{0, 1}, Payload{Content: "new"})

	if idx.Len() != 1 {
		t.Fatalf("Len = %d, want 1", idx.Len())
	}
	results, err := idx.Query(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Content != "new" {
		t.Fatalf("payload = %q, want replaced value", results[0].Content)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-6 {
		t.Fatalf("score = %v, want 1.0 against replaced vector", results[0].Score)
	}
}

func TestMemoryIndexCopiesVectors(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	vec := []float32{1, 0}
	_ = idx.Upsert(ctx, "a", vec, Payload{})
	vec[0] = -1

	results, err := idx.Query(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(results[0].Score)-1.0) > 1e-6 {
		t.Fatalf("score = %v, stored vector was mutated through caller slice", results[0].Score)
	}
}
