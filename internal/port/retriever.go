package port

import "context"

// Retriever answers a query with the most relevant passage texts.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}
