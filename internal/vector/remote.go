package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stratumlab/sowforge/internal/config"
	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

// RemoteIndex delegates similarity search to an external vector search
// service speaking a JSON statement API. Scores come back as reported
// by the backend and are not comparable with MemoryIndex scores.
type RemoteIndex struct {
	host     string
	token    string
	endpoint string
	index    string
	client   *http.Client
}

func NewRemoteIndex(cfg config.RemoteIndexConfig) (*RemoteIndex, error) {
	if cfg.Host == "" || cfg.Token == "" || cfg.Index == "" {
		return nil, fmt.Errorf("%w: remote index host/token/index are required", apperr.ErrInvalidConfig)
	}
	return &RemoteIndex{
		host:     strings.TrimRight(cfg.Host, "/"),
		token:    cfg.Token,
		endpoint: cfg.Endpoint,
		index:    cfg.Index,
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type ensureIndexRequest struct {
	Name         string         `json:"name"`
	EndpointName string         `json:"endpoint_name,omitempty"`
	Type         string         `json:"type"`
	Config       map[string]int `json:"config"`
}

type remoteVector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Payload   `json:"metadata"`
}

type upsertRequest struct {
	IndexName string         `json:"index_name"`
	Vectors   []remoteVector `json:"vectors"`
}

type queryRequest struct {
	IndexName   string    `json:"index_name"`
	QueryVector []float32 `json:"query_vector"`
	K           int       `json:"k"`
}

type queryResponse struct {
	Results []struct {
		ID       string  `json:"id"`
		Content  string  `json:"content"`
		Score    float32 `json:"score"`
		Metadata struct {
			Content  string            `json:"content"`
			Metadata map[string]string `json:"metadata"`
		} `json:"metadata"`
	} `json:"results"`
}

// EnsureIndex creates the remote index if it does not exist yet.
func (r *RemoteIndex) EnsureIndex(ctx context.Context, dimension int) error {
	payload := ensureIndexRequest{
		Name:         r.index,
		EndpointName: r.endpoint,
		Type:         "basic",
		Config:       map[string]int{"vector_dimension": dimension},
	}
	return r.post(ctx, "/api/2.0/ai/vector-search/indexes", payload, nil)
}

func (r *RemoteIndex) Upsert(ctx context.Context, id string, vec []float32, payload Payload) error {
	req := upsertRequest{
		IndexName: r.index,
		Vectors:   []remoteVector{{ID: id, Values: vec, Metadata: payload}},
	}
	return r.post(ctx, "/api/2.0/ai/vector-search/indexes/upsert", req, nil)
}

func (r *RemoteIndex) Query(ctx context.Context, vec []float32, k int) ([]model.SearchResult, error) {
	req := queryRequest{
		IndexName:   r.index,
		QueryVector: vec,
		K:           k,
	}
	var out queryResponse
	if err := r.post(ctx, "/api/2.0/ai/vector-search/indexes/query", req, &out); err != nil {
		return nil, err
	}
	results := make([]model.SearchResult, 0, len(out.Results))
	for _, item := range out.Results {
		content := item.Content
		if content == "" {
			content = item.Metadata.Content
		}
		results = append(results, model.SearchResult{
			ID:       item.ID,
			Content:  content,
			Metadata: item.Metadata.Metadata,
			Score:    item.Score,
		})
	}
	return results, nil
}

func (r *RemoteIndex) post(ctx context.Context, path string, in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.host+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrRemoteCall, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: vector search %s: %s: %s",
			apperr.ErrRemoteCall, path, resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
