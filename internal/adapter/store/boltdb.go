package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"esgrag/internal/domain"
)

var (
	bucketSession  = []byte("session")
	bucketMessages = []byte("messages")
	bucketMeta     = []byte("meta")

	keyDocument = []byte("document")
	keyScore    = []byte("score")
)

// BoltSession is a SessionStore persisted in a bbolt file, so the current
// report and chat survive CLI invocations. Vector indexes are not stored.
type BoltSession struct {
	db *bbolt.DB
}

type storedScore struct {
	RulesHash string             `json:"rules_hash"`
	Result    domain.ScoreResult `json:"result"`
}

// OpenBoltSession opens (or creates) the session database at path and
// brings its schema up to date.
func OpenBoltSession(path string) (*BoltSession, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	s := &BoltSession{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltSession) DB() *bbolt.DB {
	return s.db
}

func (s *BoltSession) PutDocument(doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	// A new report invalidates the stored score.
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Put(keyDocument, data); err != nil {
			return err
		}
		return b.Delete(keyScore)
	})
}

func (s *BoltSession) GetDocument() (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyDocument)
		if data == nil {
			return domain.ErrNoDocument
		}
		return json.Unmarshal(data, &doc)
	})
	return doc, err
}

func (s *BoltSession) PutScore(result domain.ScoreResult, rulesHash string) error {
	data, err := json.Marshal(storedScore{RulesHash: rulesHash, Result: result})
	if err != nil {
		return fmt.Errorf("failed to encode score: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyScore, data)
	})
}

func (s *BoltSession) GetScore(rulesHash string) (*domain.ScoreResult, bool, error) {
	var (
		stored storedScore
		found  bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyScore)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &stored)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read score: %w", err)
	}
	if !found || stored.RulesHash != rulesHash {
		return nil, false, nil
	}
	return &stored.Result, true, nil
}

func (s *BoltSession) AppendMessage(msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMessages)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
}

func (s *BoltSession) Messages() ([]domain.Message, error) {
	var msgs []domain.Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMessages).ForEach(func(_, v []byte) error {
			var msg domain.Message
			if err := json.Unmarshal(v, &msg); err != nil {
				return err
			}
			msgs = append(msgs, msg)
			return nil
		})
	})
	return msgs, err
}

func (s *BoltSession) ClearMessages() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return resetBucket(tx, bucketMessages)
	})
}

func (s *BoltSession) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSession, bucketMessages} {
			if err := resetBucket(tx, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltSession) Close() error {
	return s.db.Close()
}

// resetBucket empties a bucket by recreating it, which also restarts its
// sequence.
func resetBucket(tx *bbolt.Tx, name []byte) error {
	if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
		return err
	}
	_, err := tx.CreateBucket(name)
	return err
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
