package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainModel embeds through a remote langchaingo embedder (Ollama or an
// OpenAI-compatible API).
type LangChainModel struct {
	embedder embeddings.Embedder
	name     string
	dim      int
}

type RemoteOptions struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKeyEnv string
	BatchSize int
}

// LoadRemote returns a Loader that connects to the configured backend and
// probes it once to learn the vector dimension.
func LoadRemote(opts RemoteOptions) Loader {
	return func(ctx context.Context) (Model, error) {
		embedder, err := newEmbedder(opts)
		if err != nil {
			return nil, err
		}

		probe, err := embedder.EmbedQuery(ctx, "dimension probe")
		if err != nil {
			return nil, fmt.Errorf("failed to reach %s embedding model %q: %w", opts.Provider, opts.Model, err)
		}
		if len(probe) == 0 {
			return nil, fmt.Errorf("%s embedding model %q returned an empty vector", opts.Provider, opts.Model)
		}

		return &LangChainModel{
			embedder: embedder,
			name:     opts.Provider + "/" + opts.Model,
			dim:      len(probe),
		}, nil
	}
}

func newEmbedder(opts RemoteOptions) (*embeddings.EmbedderImpl, error) {
	var client embeddings.EmbedderClient

	switch opts.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(opts.BaseURL),
			ollama.WithModel(opts.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		client = llm
	case "openai":
		apiKey := os.Getenv(opts.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
		}
		llm, err := openai.New(
			openai.WithBaseURL(opts.BaseURL),
			openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
			openai.WithEmbeddingModel(opts.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		client = llm
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}

	return embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(max(opts.BatchSize, 1)),
		embeddings.WithStripNewLines(true),
	)
}

func (m *LangChainModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, v := range vecs {
		if len(v) != m.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), m.dim)
		}
	}
	return vecs, nil
}

func (m *LangChainModel) Dimension() int {
	return m.dim
}

func (m *LangChainModel) Name() string {
	return m.name
}
