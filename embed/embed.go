// Package embed provides embedding functions for generating vector
// representations of ticket descriptions, with support for OpenAI-compatible,
// Ollama and Google providers.
package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmbedding marks any failure to produce an embedding.
var ErrEmbedding = errors.New("embedding failed")

// EmbeddingFunc generates a vector embedding from text.
type EmbeddingFunc func(ctx context.Context, text string) ([]float32, error)

// TextForTicket normalizes a ticket description for embedding so indexing and
// search see the same representation.
func TextForTicket(description string) string {
	return strings.Join(strings.Fields(description), " ")
}

// WithDimensions rejects vectors whose length differs from dims. A zero dims
// disables the check.
func WithDimensions(fn EmbeddingFunc, dims int) EmbeddingFunc {
	if dims <= 0 {
		return fn
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := fn(ctx, text)
		if err != nil {
			return nil, err
		}
		if vec != nil && len(vec) != dims {
			return nil, fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbedding, len(vec), dims)
		}
		return vec, nil
	}
}

// failed wraps a provider error so callers can match ErrEmbedding.
func failed(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrEmbedding, provider, err)
}
