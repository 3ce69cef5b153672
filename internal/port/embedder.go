package port

import (
	"context"

	"esgrag/internal/domain"
)

// Embedder generates L2-normalized vector embeddings for text.
type Embedder interface {
	// EmbedOne embeds a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedMany embeds texts in order. The result has one vector per input.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex stores passage vectors under contiguous ids 0..N-1.
type VectorIndex interface {
	// Build replaces the index contents. On failure the previous contents
	// remain searchable.
	Build(vectors [][]float32) error

	// Search returns up to k ids ordered by ascending squared L2 distance,
	// ties broken by lower id.
	Search(query []float32, k int) ([]domain.Hit, error)

	// Reset drops the contents; subsequent searches report ErrIndexNotReady.
	Reset()

	// Len returns the number of indexed vectors.
	Len() int
}
