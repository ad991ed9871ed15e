package vector

import (
	"context"
	"sort"
	"sync"

	"github.com/stratumlab/sowforge/internal/model"
)

type memoryEntry struct {
	id      string
	vec     []float32
	payload Payload
}

// MemoryIndex is a linear-scan cosine index. Entries keep insertion
// order so equal scores rank deterministically. Safe for concurrent
// use; queries share a read lock.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []memoryEntry
	byID    map[string]int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byID: make(map[string]int)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, id string, vec []float32, payload Payload) error {
	stored := make([]float32, len(vec))
	copy(stored, vec)
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.byID[id]; ok {
		m.entries[pos] = memoryEntry{id: id, vec: stored, payload: payload}
		return nil
	}
	m.byID[id] = len(m.entries)
	m.entries = append(m.entries, memoryEntry{id: id, vec: stored, payload: payload})
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, vec []float32, k int) ([]model.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	results := make([]model.SearchResult, 0, len(m.entries))
	for _, entry := range m.entries {
		results = append(results, model.SearchResult{
			ID:       entry.id,
			Content:  entry.payload.Content,
			Metadata: entry.payload.Metadata,
			Score:    Cosine(vec, entry.vec),
		})
	}
	m.mu.RUnlock()
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len reports the number of stored vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
