package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

type fakeProvider struct {
	embedCalls int
	vec        []float32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, model, systemPrompt, prompt string) (string, error) {
	return "ok", nil
}

func (f *fakeProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	f.embedCalls++
	return f.vec, nil
}

func TestEmbedderSkipsBackendForBlankText(t *testing.T) {
	fake := &fakeProvider{vec: make([]float32, 8)}
	emb := NewEmbedder(fake, "m", 8)
	vec, err := emb.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 8 {
		t.Fatalf("dim = %d, want 8", len(vec))
	}
	if fake.embedCalls != 0 {
		t.Fatalf("backend was called %d times for blank input", fake.embedCalls)
	}
}

func TestEmbedderRejectsDimensionMismatch(t *testing.T) {
	fake := &fakeProvider{vec: make([]float32, 12)}
	emb := NewEmbedder(fake, "m", 8)
	_, err := emb.Embed(context.Background(), "some text")
	if !errors.Is(err, apperr.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestNewProviderUnknownName(t *testing.T) {
	if _, err := NewProvider("nope", nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
