package store

import (
	"fmt"
	"sort"
	"sync"

	"esgrag/internal/domain"
	"esgrag/internal/port"
)

// FlatIndex is an exact in-memory nearest neighbour index over squared
// Euclidean distance. Search is brute force, which is adequate for the few
// hundred passages of a single report.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32 // nil until the first successful Build
}

func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

// Build replaces the index contents with vectors, which get ids 0..N-1.
// The previous contents are kept when validation fails.
func (x *FlatIndex) Build(vectors [][]float32) error {
	dim, err := validateVectors(vectors)
	if err != nil {
		return err
	}

	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		stored[i] = append([]float32(nil), v...)
	}

	x.mu.Lock()
	x.dim = dim
	x.vectors = stored
	x.mu.Unlock()
	return nil
}

// Search returns the k nearest ids to query, nearest first, ties broken by
// lower id.
func (x *FlatIndex) Search(query []float32, k int) ([]domain.Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.vectors == nil {
		return nil, domain.ErrIndexNotReady
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dim, len(query))
	}
	if k < 1 {
		return nil, nil
	}

	hits := make([]domain.Hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = domain.Hit{ID: i, Distance: squaredL2(query, v)}
	}
	sortHits(hits)

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func (x *FlatIndex) Reset() {
	x.mu.Lock()
	x.vectors = nil
	x.dim = 0
	x.mu.Unlock()
}

func (x *FlatIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

func validateVectors(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, fmt.Errorf("cannot build index: %w", domain.ErrEmptyInput)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("cannot build index: vector 0 has no components")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("vector dimension mismatch at %d: expected %d, got %d", i, dim, len(v))
		}
	}
	return dim, nil
}

func sortHits(hits []domain.Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// NewIndex returns an empty index for the configured backend.
func NewIndex(backend string) (port.VectorIndex, error) {
	switch backend {
	case "", "flat":
		return NewFlatIndex(), nil
	case "chromem":
		return NewChromemIndex(), nil
	default:
		return nil, fmt.Errorf("unknown index backend: %s", backend)
	}
}
