package domain

import "errors"

var (
	// ErrModelUnavailable indicates the embedding backend failed to load.
	// It is fatal for retrieval and is not retried.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrEmptyInput indicates there is nothing to index.
	ErrEmptyInput = errors.New("empty input")

	// ErrIndexNotReady indicates a search before a successful build.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrScoringFailure indicates a scoring run aborted. No partial result
	// accompanies it.
	ErrScoringFailure = errors.New("scoring failed")

	// ErrNoDocument indicates the session holds no uploaded report.
	ErrNoDocument = errors.New("no document loaded")
)
