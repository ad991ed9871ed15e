package ai

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"strings"
)

type hashConfig struct {
	Dim int `json:"dim"`
}

// hashProvider is a deterministic offline embedder. It is a pure
// function of the input text: identical text always yields an identical
// vector, which keeps the whole pipeline testable without a network.
type hashProvider struct {
	dim int
}

func (p *hashProvider) Name() string {
	return "hash"
}

func (p *hashProvider) Generate(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	return "", ErrUnavailable
}

func (p *hashProvider) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	vector := make([]float32, p.dim)
	sanitized := strings.TrimSpace(text)
	if sanitized == "" {
		return vector, nil
	}
	tokens := strings.Split(strings.ToLower(sanitized), " ")
	for _, token := range tokens {
		digest := sha256.Sum256([]byte(token))
		for i := 0; i < p.dim; i++ {
			vector[i] += float32(digest[i%len(digest)]) / 255.0
		}
	}
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0.0 {
		return vector, nil
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector, nil
}

func createHashFactory(args interface{}) (IProvider, error) {
	cfg := &hashConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("hash embedder dim must be positive")
	}
	return &hashProvider{dim: cfg.Dim}, nil
}

func init() {
	Register("hash", createHashFactory)
}
