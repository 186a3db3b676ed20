package embed

import (
	"context"
	"errors"
	"net/url"
)

// GoogleConfig configures the Google Gemini embedding provider.
type GoogleConfig struct {
	URL    string // Base URL (default: https://generativelanguage.googleapis.com/v1beta)
	APIKey string // API key
	Model  string // Model name (default: gemini-embedding-001)
}

type googleRequestPart struct {
	Text string `json:"text"`
}

type googleRequestContent struct {
	Parts []googleRequestPart `json:"parts"`
}

type googleRequest struct {
	Content googleRequestContent `json:"content"`
}

type googleResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Google returns an EmbeddingFunc that calls the Gemini embedContent API.
func Google(cfg GoogleConfig) EmbeddingFunc {
	if cfg.URL == "" {
		cfg.URL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	endpoint := cfg.URL + "/models/" + cfg.Model + ":embedContent?key=" + url.QueryEscape(cfg.APIKey)

	return func(ctx context.Context, text string) ([]float32, error) {
		var result googleResponse
		if err := postJSON(ctx, "google", endpoint, googleRequest{
			Content: googleRequestContent{Parts: []googleRequestPart{{Text: text}}},
		}, &result); err != nil {
			return nil, err
		}
		if len(result.Embedding.Values) == 0 {
			return nil, failed("google", errors.New("no embeddings in response"))
		}
		return toFloat32(result.Embedding.Values), nil
	}
}
