package store

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"esgrag/internal/domain"
)

const passageCollection = "passages"

// ChromemIndex is a VectorIndex backed by an in-memory chromem-go collection.
// chromem ranks by cosine similarity, so inputs must be unit vectors (or
// zero); distances are reported as squared L2 (2 - 2*similarity) and ranked
// exactly like FlatIndex.
type ChromemIndex struct {
	mu    sync.RWMutex
	col   *chromem.Collection
	dim   int
	n     int
	zeros []int // ids of zero vectors, which chromem cannot normalize
}

func NewChromemIndex() *ChromemIndex {
	return &ChromemIndex{}
}

func (x *ChromemIndex) Build(vectors [][]float32) error {
	dim, err := validateVectors(vectors)
	if err != nil {
		return err
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(passageCollection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	var (
		docs  []chromem.Document
		zeros []int
	)
	for i, v := range vectors {
		if isZero(v) {
			zeros = append(zeros, i)
			continue
		}
		id := strconv.Itoa(i)
		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   id,
			Embedding: append([]float32(nil), v...),
		})
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(context.Background(), docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to add vectors: %w", err)
		}
	}

	x.mu.Lock()
	x.col = col
	x.dim = dim
	x.n = len(vectors)
	x.zeros = zeros
	x.mu.Unlock()
	return nil
}

func (x *ChromemIndex) Search(query []float32, k int) ([]domain.Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.col == nil {
		return nil, domain.ErrIndexNotReady
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dim, len(query))
	}
	if k < 1 {
		return nil, nil
	}

	hits := make([]domain.Hit, 0, x.n)
	queryZero := isZero(query)

	// Against a zero vector the squared distance is the other vector's norm.
	for _, id := range x.zeros {
		d := 1.0
		if queryZero {
			d = 0
		}
		hits = append(hits, domain.Hit{ID: id, Distance: d})
	}

	if count := x.col.Count(); count > 0 {
		if queryZero {
			for id := 0; id < x.n; id++ {
				if !x.isZeroID(id) {
					hits = append(hits, domain.Hit{ID: id, Distance: 1})
				}
			}
		} else {
			results, err := x.col.QueryEmbedding(context.Background(), query, count, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to query collection: %w", err)
			}
			for _, r := range results {
				id, err := strconv.Atoi(r.ID)
				if err != nil {
					return nil, fmt.Errorf("invalid vector id %q: %w", r.ID, err)
				}
				d := 2 - 2*float64(r.Similarity)
				if d < 0 {
					d = 0
				}
				hits = append(hits, domain.Hit{ID: id, Distance: d})
			}
		}
	}

	sortHits(hits)
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func (x *ChromemIndex) isZeroID(id int) bool {
	for _, z := range x.zeros {
		if z == id {
			return true
		}
	}
	return false
}

func (x *ChromemIndex) Reset() {
	x.mu.Lock()
	x.col = nil
	x.n = 0
	x.dim = 0
	x.zeros = nil
	x.mu.Unlock()
}

func (x *ChromemIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.n
}
