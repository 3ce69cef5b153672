package embedding

import (
	"context"
	"hash/fnv"

	"esgrag/internal/adapter/analyzer"
	"esgrag/internal/port"
)

const trigramWeight = 0.5

// HashModel is a local embedding model using signed feature hashing. Each
// term contributes its own feature plus its character trigrams, and a text's
// vector is the mean over its terms. It needs no network or model files, so
// it also serves the browser build.
type HashModel struct {
	dim       int
	tokenizer port.Tokenizer
}

func NewHashModel(dim int, stemming bool) *HashModel {
	return &HashModel{
		dim:       dim,
		tokenizer: analyzer.NewTokenizer(stemming),
	}
}

// LoadHash returns a Loader for a HashModel.
func LoadHash(dim int, stemming bool) Loader {
	return func(context.Context) (Model, error) {
		return NewHashModel(dim, stemming), nil
	}
}

func (m *HashModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.embed(t)
	}
	return out, nil
}

func (m *HashModel) embed(text string) []float32 {
	vec := make([]float32, m.dim)
	terms := m.tokenizer.Tokenize(text)
	if len(terms) == 0 {
		return vec
	}

	for _, term := range terms {
		m.add(vec, term, 1)
		padded := []rune("<" + term + ">")
		for i := 0; i+3 <= len(padded); i++ {
			m.add(vec, string(padded[i:i+3]), trigramWeight)
		}
	}

	n := float32(len(terms))
	for i := range vec {
		vec[i] /= n
	}
	return vec
}

func (m *HashModel) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(m.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func (m *HashModel) Dimension() int {
	return m.dim
}

func (m *HashModel) Name() string {
	return "hash"
}
