package memstore

import (
	"sync"

	"esgrag/internal/domain"
)

// MemorySession is a SessionStore held in process memory. The HTTP server
// and tests use it.
type MemorySession struct {
	mu        sync.RWMutex
	doc       *domain.Document
	score     *domain.ScoreResult
	rulesHash string
	messages  []domain.Message
}

func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) PutDocument(doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = &doc
	s.score = nil
	s.rulesHash = ""
	return nil
}

func (s *MemorySession) GetDocument() (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return domain.Document{}, domain.ErrNoDocument
	}
	return *s.doc, nil
}

func (s *MemorySession) PutScore(result domain.ScoreResult, rulesHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = &result
	s.rulesHash = rulesHash
	return nil
}

func (s *MemorySession) GetScore(rulesHash string) (*domain.ScoreResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.score == nil || s.rulesHash != rulesHash {
		return nil, false, nil
	}
	result := *s.score
	return &result, true, nil
}

func (s *MemorySession) AppendMessage(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *MemorySession) Messages() ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message(nil), s.messages...), nil
}

func (s *MemorySession) ClearMessages() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	return nil
}

func (s *MemorySession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
	s.score = nil
	s.rulesHash = ""
	s.messages = nil
	return nil
}

func (s *MemorySession) Close() error {
	return nil
}
