package port

import "esgrag/internal/domain"

// SessionStore keeps the state of one user session: the current report,
// its last score and the chat history. Vector indexes are never stored.
type SessionStore interface {
	PutDocument(doc domain.Document) error

	// GetDocument returns domain.ErrNoDocument when nothing is loaded.
	GetDocument() (domain.Document, error)

	// PutScore stores a score together with the hash of the rules that
	// produced it.
	PutScore(result domain.ScoreResult, rulesHash string) error

	// GetScore returns the stored score if it was produced by rulesHash.
	GetScore(rulesHash string) (*domain.ScoreResult, bool, error)

	AppendMessage(msg domain.Message) error

	Messages() ([]domain.Message, error)

	ClearMessages() error

	// Clear drops the document, score and history.
	Clear() error

	Close() error
}
