package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"esgrag/config"
)

// Chat is an LLM served over an OpenAI-compatible chat completions API,
// Groq by default.
type Chat struct {
	llm         llms.Model
	model       string
	temperature float64
}

// New creates a chat client from cfg. The API key is read from the
// environment variable named by cfg.APIKeyEnv.
func New(cfg config.LLMConfig) (*Chat, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	return &Chat{
		llm:         client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Chat) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (c *Chat) ModelName() string {
	return c.model
}
