package port

import (
	"context"

	"esgrag/internal/domain"
)

// WebSearcher looks up recent information on the web.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error)
}
