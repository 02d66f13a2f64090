// Package model holds the text pipeline: chunking, embedding providers and
// subject extraction.
package model

import (
	"context"
	"fmt"

	"openjuris/types"
)

// Embedder produces fixed-dimension embedding vectors for text.
type Embedder interface {
	Dimensions() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free-form completions. Used for subject extraction.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// EmbeddingError wraps provider failures so callers can tell an upstream
// model problem apart from their own input errors.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// NewEmbedder builds the configured embedding provider.
func NewEmbedder(cfg types.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return NewOllamaClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}
