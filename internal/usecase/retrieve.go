package usecase

import (
	"context"
	"errors"
	"fmt"

	"esgrag/internal/domain"
	"esgrag/internal/port"
)

var _ port.Retriever = (*Engine)(nil)

// Retrieve returns the texts of the topK chunks nearest to query, nearest
// first. A topK below 1 selects the configured default. An engine without an
// index yields no passages and no error.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK < 1 {
		topK = e.topK
	}
	if !e.Ready() {
		e.logger.Debug().Msg("retrieve on empty index")
		return nil, nil
	}

	if e.cache != nil {
		if passages, ok := e.cache.Get(query, topK); ok {
			e.logger.Debug().Int("passages", len(passages)).Msg("retrieve cache hit")
			return passages, nil
		}
	}

	vec, err := e.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	hits, err := e.index.Search(vec, topK)
	if errors.Is(err, domain.ErrIndexNotReady) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	passages := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.ID < 0 || h.ID >= len(e.chunks) {
			return nil, fmt.Errorf("failed to search index: id %d out of range", h.ID)
		}
		passages = append(passages, e.chunks[h.ID].Text)
	}

	if e.cache != nil {
		e.cache.Put(query, topK, passages)
	}

	e.logger.Debug().Int("top_k", topK).Int("passages", len(passages)).Msg("retrieved")
	return passages, nil
}
