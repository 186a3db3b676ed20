package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible chat completion API.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	URL       string // Base URL (default: https://api.openai.com/v1)
	MaxTokens int
}

// OpenAI returns a GenerateFunc backed by chat completions.
func OpenAI(cfg OpenAIConfig) GenerateFunc {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		clientConfig.BaseURL = cfg.URL
	}
	client := openai.NewClientWithConfig(clientConfig)

	return func(ctx context.Context, system, prompt string) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return "", fmt.Errorf("openai chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai chat completion: empty response")
		}
		return resp.Choices[0].Message.Content, nil
	}
}
