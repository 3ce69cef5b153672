package embedding

import (
	"fmt"

	"github.com/rs/zerolog"

	"esgrag/config"
)

// NewFromConfig builds a Provider for the configured backend. Nothing is
// loaded until the first embedding call.
func NewFromConfig(cfg config.EmbeddingConfig, logger zerolog.Logger) (*Provider, error) {
	var (
		load Loader
		name string
	)

	switch cfg.Provider {
	case "", "hash":
		load = LoadHash(cfg.Dimension, true)
		name = "hash"
	case "ollama", "openai":
		load = LoadRemote(RemoteOptions{
			Provider:  cfg.Provider,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			BatchSize: cfg.BatchSize,
		})
		name = cfg.Provider + "/" + cfg.Model
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	return NewProvider(load, ProviderOptions{
		Name:      name,
		Dimension: cfg.Dimension,
		MaxTokens: cfg.MaxTokens,
		BatchSize: cfg.BatchSize,
		Logger:    logger.With().Str("component", "embedding").Logger(),
	}), nil
}
