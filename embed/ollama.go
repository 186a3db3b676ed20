package embed

import (
	"context"
	"errors"
)

// OllamaConfig configures the Ollama embedding provider.
type OllamaConfig struct {
	URL   string // Base URL (default: http://localhost:11434)
	Model string // Model name (default: nomic-embed-text)
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Ollama returns an EmbeddingFunc that calls the Ollama embeddings API.
func Ollama(cfg OllamaConfig) EmbeddingFunc {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		var result ollamaResponse
		if err := postJSON(ctx, "ollama", cfg.URL+"/api/embeddings", ollamaRequest{
			Model:  cfg.Model,
			Prompt: text,
		}, &result); err != nil {
			return nil, err
		}
		if len(result.Embedding) == 0 {
			return nil, failed("ollama", errors.New("empty embedding"))
		}
		return toFloat32(result.Embedding), nil
	}
}
