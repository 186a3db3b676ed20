package embed

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible embedding provider.
type OpenAIConfig struct {
	URL        string // Base URL (default: https://api.openai.com/v1)
	APIKey     string
	Model      string // Model name (default: text-embedding-3-small)
	Dimensions int    // Requested output dimensions (0 = model default)
}

// OpenAI returns an EmbeddingFunc that calls an OpenAI-compatible API.
func OpenAI(cfg OpenAIConfig) EmbeddingFunc {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		clientConfig.BaseURL = cfg.URL
	}
	client := openai.NewClientWithConfig(clientConfig)

	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      []string{text},
			Model:      openai.EmbeddingModel(cfg.Model),
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, failed("openai", err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, failed("openai", errors.New("no embeddings in response"))
		}
		return resp.Data[0].Embedding, nil
	}
}
