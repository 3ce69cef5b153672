package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"esgrag/internal/adapter/cache"
	"esgrag/internal/domain"
	"esgrag/internal/port"
)

// Engine owns the retrieval chunks of the current document and the vector
// index built from them.
type Engine struct {
	chunker  port.Chunker
	embedder port.Embedder
	cache    *cache.PassageCache
	topK     int
	logger   zerolog.Logger

	mu     sync.RWMutex
	index  port.VectorIndex
	chunks []domain.Chunk
}

// NewEngine creates a retrieval engine. passageCache may be nil.
func NewEngine(
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	passageCache *cache.PassageCache,
	defaultTopK int,
	logger zerolog.Logger,
) *Engine {
	if defaultTopK < 1 {
		defaultTopK = 3
	}
	return &Engine{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		cache:    passageCache,
		topK:     defaultTopK,
		logger:   logger.With().Str("component", "engine").Logger(),
	}
}

// IndexResult contains the results of an index build.
type IndexResult struct {
	Chunks    int           `json:"chunks"`
	Runes     int           `json:"runes"`
	Dimension int           `json:"dimension"`
	Model     string        `json:"model"`
	Duration  time.Duration `json:"duration"`
}

// BuildIndex replaces the index with one built from text. On any failure the
// previously built index stays in place.
func (e *Engine) BuildIndex(ctx context.Context, text string) (*IndexResult, error) {
	start := time.Now()

	chunks := e.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("failed to build index: %w", domain.ErrEmptyInput)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := e.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("failed to embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.index.Build(vectors); err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	e.chunks = chunks
	if e.cache != nil {
		e.cache.Invalidate()
	}

	result := &IndexResult{
		Chunks:    len(chunks),
		Runes:     chunks[len(chunks)-1].End,
		Dimension: len(vectors[0]),
		Model:     e.embedder.ModelName(),
		Duration:  time.Since(start),
	}

	e.logger.Info().
		Int("chunks", result.Chunks).
		Int("dimension", result.Dimension).
		Str("model", result.Model).
		Dur("took", result.Duration).
		Msg("index built")

	return result, nil
}

// Clear drops the index and its chunks. Later retrievals return nothing.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.index.Reset()
	e.chunks = nil
	if e.cache != nil {
		e.cache.Invalidate()
	}
}

// Ready reports whether an index has been built.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.chunks) > 0
}

// Chunks returns a copy of the indexed chunks in document order.
func (e *Engine) Chunks() []domain.Chunk {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Chunk, len(e.chunks))
	copy(out, e.chunks)
	return out
}
