package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"esgrag/internal/adapter/cache"
	"esgrag/internal/adapter/chunker"
	"esgrag/internal/adapter/embedding"
	"esgrag/internal/adapter/scorer"
	"esgrag/internal/adapter/store"
	"esgrag/internal/domain"
)

// fiveParagraphs is split into exactly five chunks by a 100 rune chunker
// without overlap.
var fiveParagraphs = []string{
	"Scope 1 emissions fell by twelve percent after the boiler retrofit program.",
	"Employee turnover remained stable and safety training reached all sites.",
	"The audit committee met six times and reviewed the whistleblower cases.",
	"Water withdrawal in arid regions decreased thanks to closed loop cooling.",
	"Community investment focused on STEM scholarships in three countries.",
}

func newHashProvider() *embedding.Provider {
	return embedding.NewProvider(embedding.LoadHash(384, true), embedding.ProviderOptions{
		Name:      "hash",
		Dimension: 384,
		MaxTokens: 512,
		BatchSize: 2,
		Logger:    zerolog.Nop(),
	})
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(
		chunker.NewCharChunker(100, 0),
		newHashProvider(),
		store.NewFlatIndex(),
		cache.NewPassageCache(16, 0),
		3,
		zerolog.Nop(),
	)
}

func newTestScorer(blockSize int, parallel bool) *ScoreUseCase {
	return NewScoreUseCase(scorer.DefaultRules(), chunker.NewParagraphChunker(blockSize), parallel, 4, zerolog.Nop())
}

type progressRecorder struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (r *progressRecorder) OnProgress(ev domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *progressRecorder) percents() []int {
	out := make([]int, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Percent
	}
	return out
}

type stubLLM struct {
	prompt    string
	maxTokens int
	response  string
	err       error
}

func (s *stubLLM) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	s.prompt = prompt
	s.maxTokens = maxTokens
	return s.response, s.err
}

func (s *stubLLM) ModelName() string { return "stub" }

type stubSearcher struct {
	queries    []string
	maxResults int
	results    []domain.SearchResult
}

func (s *stubSearcher) Search(_ context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	s.queries = append(s.queries, query)
	s.maxResults = maxResults
	return s.results, nil
}

type failingEmbedder struct {
	*embedding.Provider
	err error
}

func (f failingEmbedder) EmbedMany(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}

type panickingChunker struct{}

func (panickingChunker) Blocks(string) []domain.Block {
	panic("boom")
}

func joinParagraphs(paras ...string) string {
	return strings.Join(paras, "\n\n")
}
