package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/adapter/memstore"
	"esgrag/internal/domain"
	"esgrag/internal/port"
)

func newTestAssistant(t *testing.T, llm *stubLLM, searcher *stubSearcher) (*Assistant, *memstore.MemorySession) {
	t.Helper()
	session := memstore.NewMemorySession()
	var web port.WebSearcher
	if searcher != nil {
		web = searcher
	}
	a := NewAssistant(session, newTestEngine(t), newTestScorer(20000, false), llm, web, AssistantOptions{
		WebSearch:         true,
		SearchResults:     3,
		TopK:              3,
		ConciseMaxTokens:  150,
		DetailedMaxTokens: 1000,
	}, zerolog.Nop())
	return a, session
}

func loadSample(t *testing.T, a *Assistant) {
	t.Helper()
	_, err := a.LoadDocument(context.Background(), domain.Document{
		Name: "report.pdf",
		Text: joinParagraphs(append([]string{"We reached net zero in Europe. Net Zero globally by 2040. One pollution incident."}, fiveParagraphs...)...),
	})
	require.NoError(t, err)
}

func TestAskScoreWithoutDocument(t *testing.T) {
	a, _ := newTestAssistant(t, &stubLLM{}, nil)

	answer, err := a.Ask(context.Background(), "calculate score", domain.ModeConcise)
	require.NoError(t, err)
	assert.Equal(t, "Please upload an ESG report first to calculate the score.", answer)
}

func TestAskScoreCommand(t *testing.T) {
	llm := &stubLLM{}
	a, session := newTestAssistant(t, llm, nil)
	loadSample(t, a)

	answer, err := a.Ask(context.Background(), "ESG Score", domain.ModeConcise)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(answer, "## "), answer)
	assert.Contains(t, answer, "ESG Risk Assessment")
	assert.Contains(t, answer, "\n\n### 📋 Recommendations:\n")
	assert.Empty(t, llm.prompt, "score commands never reach the model")

	stored, ok, err := session.GetScore(a.scoring.Rules().Hash())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"net zero (2x)"}, stored.Environmental.Positive)

	again, err := a.Ask(context.Background(), "show score", domain.ModeDetailed)
	require.NoError(t, err)
	assert.Equal(t, answer, again)
}

func TestIsScoreCommand(t *testing.T) {
	for _, q := range []string{"calculate score", "ESG SCORE", "Show Score", "analyze score"} {
		assert.True(t, IsScoreCommand(q), q)
	}
	for _, q := range []string{"calculate score please", " esg score", "score"} {
		assert.False(t, IsScoreCommand(q), q)
	}
}

func TestAskBuildsPromptFromDocument(t *testing.T) {
	llm := &stubLLM{response: "Emissions are falling."}
	searcher := &stubSearcher{}
	a, _ := newTestAssistant(t, llm, searcher)
	loadSample(t, a)

	answer, err := a.Ask(context.Background(), "How did scope 1 emissions change?", domain.ModeConcise)
	require.NoError(t, err)
	assert.Equal(t, "Emissions are falling.", answer)

	assert.Equal(t, 150, llm.maxTokens)
	assert.True(t, strings.HasPrefix(llm.prompt, "You are an ESG (Environmental, Social, Governance) risk analyst."))
	assert.Contains(t, llm.prompt, "Context:\n=== Document Context ===\n\n")
	assert.Contains(t, llm.prompt, fiveParagraphs[0])
	assert.Contains(t, llm.prompt, "\n\nQuery: How did scope 1 emissions change?\n\n")
	assert.Contains(t, llm.prompt, "- Provide a concise, brief response (2-4 sentences). Focus on key insights only.")
	assert.True(t, strings.HasSuffix(llm.prompt, "Response:"))
	assert.Empty(t, searcher.queries, "no recency keyword, no web search")
}

func TestAskDetailedWithWebSearch(t *testing.T) {
	llm := &stubLLM{response: "ok"}
	searcher := &stubSearcher{results: []domain.SearchResult{
		{Title: "CSRD", Snippet: "EU directive", Link: "https://example.com/csrd"},
	}}
	a, _ := newTestAssistant(t, llm, searcher)

	_, err := a.Ask(context.Background(), "What are the Latest ESG rules?", domain.ModeDetailed)
	require.NoError(t, err)

	assert.Equal(t, []string{"ESG What are the Latest ESG rules?"}, searcher.queries)
	assert.Equal(t, 3, searcher.maxResults)
	assert.Equal(t, 1000, llm.maxTokens)
	assert.Contains(t, llm.prompt, "Context:\n=== Web Search Results ===\n\n1. CSRD\n")
	assert.NotContains(t, llm.prompt, "=== Document Context ===")
	assert.Contains(t, llm.prompt, "- Provide a detailed, comprehensive analysis")
}

func TestAskWithoutContext(t *testing.T) {
	llm := &stubLLM{response: "ok"}
	a, _ := newTestAssistant(t, llm, &stubSearcher{})

	_, err := a.Ask(context.Background(), "What is ESG?", domain.ModeConcise)
	require.NoError(t, err)
	assert.Contains(t, llm.prompt, "Context:\nNo additional context available.\n\nQuery: What is ESG?")
}

func TestAskGenerationError(t *testing.T) {
	llm := &stubLLM{err: errors.New("rate limited")}
	a, _ := newTestAssistant(t, llm, nil)

	answer, err := a.Ask(context.Background(), "Summarise the report", domain.ModeConcise)
	require.NoError(t, err)
	assert.Equal(t, "Error generating response: rate limited", answer)
}

func TestAskRecordsHistory(t *testing.T) {
	a, _ := newTestAssistant(t, &stubLLM{response: "answer"}, nil)

	_, err := a.Ask(context.Background(), "question", domain.ModeConcise)
	require.NoError(t, err)

	history, err := a.History()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "question", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, "answer", history[1].Content)
	assert.NotEqual(t, history[0].ID, history[1].ID)

	require.NoError(t, a.ClearHistory())
	history, err = a.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAssistantRebuildsIndexFromSession(t *testing.T) {
	first, session := newTestAssistant(t, &stubLLM{}, nil)
	loadSample(t, first)

	llm := &stubLLM{response: "ok"}
	second := NewAssistant(session, newTestEngine(t), newTestScorer(20000, false), llm, nil, AssistantOptions{}, zerolog.Nop())

	passages, err := second.Retrieve(context.Background(), fiveParagraphs[2], 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0], fiveParagraphs[2])
}

func TestLoadDocumentDropsScore(t *testing.T) {
	a, session := newTestAssistant(t, &stubLLM{}, nil)
	loadSample(t, a)

	_, err := a.Score(context.Background(), nil, false)
	require.NoError(t, err)

	_, err = a.LoadDocument(context.Background(), domain.Document{Name: "other.txt", Text: "fraud"})
	require.NoError(t, err)

	_, ok, err := session.GetScore(a.scoring.Rules().Hash())
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := a.Score(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"fraud (1x)"}, res.Governance.Negative)
}

func TestLoadEmptyDocumentKeepsSession(t *testing.T) {
	a, _ := newTestAssistant(t, &stubLLM{}, nil)
	loadSample(t, a)

	_, err := a.LoadDocument(context.Background(), domain.Document{Name: "blank.txt"})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	doc, err := a.Document()
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Name)
}

func TestLoadWhitespaceDocumentKeepsSessionAndScore(t *testing.T) {
	a, _ := newTestAssistant(t, &stubLLM{}, nil)
	loadSample(t, a)
	_, err := a.Score(context.Background(), nil, false)
	require.NoError(t, err)

	_, err = a.LoadDocument(context.Background(), domain.Document{Name: "blank.txt", Text: "  \n\n \t "})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	doc, err := a.Document()
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Name)

	_, ok, err := a.StoredScore()
	require.NoError(t, err)
	assert.True(t, ok, "stored score survives a rejected upload")

	passages, err := a.Retrieve(context.Background(), "net zero", 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0], "net zero")
}

func TestReset(t *testing.T) {
	a, _ := newTestAssistant(t, &stubLLM{}, nil)
	loadSample(t, a)

	require.NoError(t, a.Reset())
	_, err := a.Document()
	assert.ErrorIs(t, err, domain.ErrNoDocument)
	assert.False(t, a.engine.Ready())
}
