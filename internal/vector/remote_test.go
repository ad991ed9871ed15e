package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratumlab/sowforge/internal/config"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

func newTestRemote(t *testing.T, handler http.HandlerFunc) *RemoteIndex {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	idx, err := NewRemoteIndex(config.RemoteIndexConfig{
		Host:  server.URL,
		Token: "test-token",
		Index: "catalog.schema.documents",
	})
	require.NoError(t, err)
	return idx
}

func TestRemoteIndexQuery(t *testing.T) {
	idx := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/ai/vector-search/indexes/query", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "catalog.schema.documents", req.IndexName)
		assert.Equal(t, 2, req.K)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"id":    "f.pdf::0",
					"score": 0.91,
					"metadata": map[string]interface{}{
						"content":  "first snippet",
						"metadata": map[string]string{"page_count": "3"},
					},
				},
				{"id": "f.pdf::1", "score": 0.42, "content": "second snippet"},
			},
		})
	})

	results, err := idx.Query(context.Background(), []float32{0.1, 0.2}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "f.pdf::0", results[0].ID)
	assert.Equal(t, "first snippet", results[0].Content)
	assert.Equal(t, "3", results[0].Metadata["page_count"])
	assert.InDelta(t, 0.91, float64(results[0].Score), 1e-6)
	assert.Equal(t, "second snippet", results[1].Content)
}

func TestRemoteIndexUpsert(t *testing.T) {
	var got upsertRequest
	idx := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/ai/vector-search/indexes/upsert", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := idx.Upsert(context.Background(), "doc::3", []float32{1, 2, 3}, Payload{Content: "body"})
	require.NoError(t, err)
	require.Len(t, got.Vectors, 1)
	assert.Equal(t, "doc::3", got.Vectors[0].ID)
	assert.Equal(t, "body", got.Vectors[0].Metadata.Content)
}

func TestRemoteIndexErrorCarriesReason(t *testing.T) {
	idx := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index not found", http.StatusNotFound)
	})

	_, err := idx.Query(context.Background(), []float32{1}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRemoteCall)
	assert.Contains(t, err.Error(), "index not found")
}

func TestNewRemoteIndexValidation(t *testing.T) {
	_, err := NewRemoteIndex(config.RemoteIndexConfig{Host: "http://x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidConfig)
}
