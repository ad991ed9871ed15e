package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
	Embed(ctx context.Context, model string, text string) ([]float32, error)
}

// IGenerator produces text from a single-turn instruction.
type IGenerator interface {
	Generate(ctx context.Context, systemPrompt string, prompt string) (string, error)
}

// IEmbedder maps text to a vector of a fixed dimension. Blank input
// always yields the all-zero vector without touching the backend.
type IEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, systemPrompt string, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, systemPrompt, prompt)
}

type embedder struct {
	provider IProvider
	model    string
	dim      int
}

func NewEmbedder(p IProvider, model string, dim int) IEmbedder {
	return &embedder{provider: p, model: model, dim: dim}
}

func (e *embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dim), nil
	}
	vec, err := e.provider.Embed(ctx, e.model, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != e.dim {
		return nil, fmt.Errorf("%w: provider %s returned dimension %d, configured %d",
			apperr.ErrInvalidConfig, e.provider.Name(), len(vec), e.dim)
	}
	return vec, nil
}

func (e *embedder) Dim() int {
	return e.dim
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
