package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"esgrag/internal/adapter/websearch"
	"esgrag/internal/domain"
	"esgrag/internal/port"
)

const (
	msgNoDocument   = "Please upload an ESG report first to calculate the score."
	msgScoreFailed  = "Failed to calculate ESG score. Please try again."
	msgNoContext    = "No additional context available."
	documentHeading = "=== Document Context ==="
	webSearchPrefix = "ESG "
)

var scoreCommands = map[string]struct{}{
	"calculate score": {},
	"esg score":       {},
	"show score":      {},
	"analyze score":   {},
}

var recencyKeywords = []string{"latest", "recent", "current", "news", "regulation", "2025", "2024"}

const promptTemplate = `You are an ESG (Environmental, Social, Governance) risk analyst. Analyze the following query and provide insights.
Context:
%s

Query: %s

Instructions:
- %s
- If analyzing a report, focus on ESG risks, strengths, and gaps
- Provide specific metrics and data when available
- Be objective and evidence-based
- If asked for a score, use a 1-5 scale (1=High Risk, 5=Low Risk)

Response:`

// AssistantOptions tunes how questions are answered.
type AssistantOptions struct {
	WebSearch         bool
	SearchResults     int
	TopK              int
	ConciseMaxTokens  int
	DetailedMaxTokens int
}

// Assistant answers chat questions about the current report. It keeps the
// report, its score and the chat history in a session store.
type Assistant struct {
	session  port.SessionStore
	engine   *Engine
	scoring  *ScoreUseCase
	llm      port.LLM
	searcher port.WebSearcher
	opts     AssistantOptions
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAssistant wires an assistant. llm and searcher may be nil; questions then
// fail with an explanatory message and web search is skipped.
func NewAssistant(
	session port.SessionStore,
	engine *Engine,
	scoring *ScoreUseCase,
	llm port.LLM,
	searcher port.WebSearcher,
	opts AssistantOptions,
	logger zerolog.Logger,
) *Assistant {
	if opts.SearchResults < 1 {
		opts.SearchResults = 3
	}
	if opts.TopK < 1 {
		opts.TopK = 3
	}
	return &Assistant{
		session:  session,
		engine:   engine,
		scoring:  scoring,
		llm:      llm,
		searcher: searcher,
		opts:     opts,
		logger:   logger.With().Str("component", "assistant").Logger(),
		now:      time.Now,
	}
}

// LoadDocument makes doc the current report and indexes it. The stored score
// is dropped; the chat history is kept. A report without visible text is
// rejected and leaves the session untouched.
func (a *Assistant) LoadDocument(ctx context.Context, doc domain.Document) (*IndexResult, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: document %q has no text", domain.ErrEmptyInput, doc.Name)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = a.now()
	}

	result, err := a.engine.BuildIndex(ctx, doc.Text)
	if err != nil {
		return nil, err
	}
	if err := a.session.PutDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	a.logger.Info().Str("document", doc.Name).Int("chunks", result.Chunks).Msg("document loaded")
	return result, nil
}

// Document returns the current report.
func (a *Assistant) Document() (domain.Document, error) {
	return a.session.GetDocument()
}

// ensureIndex rebuilds the index from the stored report when this process
// has not built one yet.
func (a *Assistant) ensureIndex(ctx context.Context) error {
	if a.engine.Ready() {
		return nil
	}
	doc, err := a.session.GetDocument()
	if errors.Is(err, domain.ErrNoDocument) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = a.engine.BuildIndex(ctx, doc.Text)
	return err
}

// Retrieve returns the passages of the current report nearest to query.
func (a *Assistant) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if err := a.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return a.engine.Retrieve(ctx, query, topK)
}

// Score returns the score of the current report, computing and storing it
// when the stored one is missing or was produced by other rules.
func (a *Assistant) Score(ctx context.Context, obs port.ProgressObserver, force bool) (*domain.ScoreResult, error) {
	doc, err := a.session.GetDocument()
	if err != nil {
		return nil, err
	}

	hash := a.scoring.Rules().Hash()
	if !force {
		cached, ok, err := a.session.GetScore(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to load score: %w", err)
		}
		if ok {
			return cached, nil
		}
	}

	result, err := a.scoring.Score(ctx, doc.Text, obs)
	if err != nil {
		return nil, err
	}
	if err := a.session.PutScore(*result, hash); err != nil {
		return nil, fmt.Errorf("failed to store score: %w", err)
	}
	return result, nil
}

// StoredScore returns the stored score of the current report if the current
// rules produced it.
func (a *Assistant) StoredScore() (*domain.ScoreResult, bool, error) {
	return a.session.GetScore(a.scoring.Rules().Hash())
}

// Ask answers question and records both turns in the chat history. Failures
// of the answering pipeline become the answer text; the returned error only
// reports session storage failures.
func (a *Assistant) Ask(ctx context.Context, question string, mode domain.ResponseMode) (string, error) {
	if err := a.record(domain.RoleUser, question); err != nil {
		return "", err
	}

	var answer string
	if IsScoreCommand(question) {
		answer = a.answerScore(ctx)
	} else {
		answer = a.answer(ctx, question, mode)
	}

	if err := a.record(domain.RoleAssistant, answer); err != nil {
		return "", err
	}
	return answer, nil
}

// IsScoreCommand reports whether question asks for the ESG score.
func IsScoreCommand(question string) bool {
	_, ok := scoreCommands[strings.ToLower(question)]
	return ok
}

func (a *Assistant) answerScore(ctx context.Context) string {
	result, err := a.Score(ctx, nil, false)
	switch {
	case errors.Is(err, domain.ErrNoDocument):
		return msgNoDocument
	case err != nil:
		a.logger.Error().Err(err).Msg("score command failed")
		return msgScoreFailed
	}
	return RenderRecommendations(result)
}

func (a *Assistant) answer(ctx context.Context, question string, mode domain.ResponseMode) string {
	if a.llm == nil {
		return "Error generating response: no language model configured"
	}

	prompt, err := a.BuildPrompt(ctx, question, mode)
	if err != nil {
		return fmt.Sprintf("Error generating response: %v", err)
	}

	response, err := a.llm.Generate(ctx, prompt, a.maxTokens(mode))
	if err != nil {
		a.logger.Error().Err(err).Str("model", a.llm.ModelName()).Msg("generation failed")
		return fmt.Sprintf("Error generating response: %v", err)
	}
	return response
}

func (a *Assistant) maxTokens(mode domain.ResponseMode) int {
	if mode == domain.ModeConcise {
		return a.opts.ConciseMaxTokens
	}
	return a.opts.DetailedMaxTokens
}

// BuildPrompt assembles the analyst prompt for question from document
// passages and, for questions about recent events, web results.
func (a *Assistant) BuildPrompt(ctx context.Context, question string, mode domain.ResponseMode) (string, error) {
	var parts []string

	passages, err := a.Retrieve(ctx, question, a.opts.TopK)
	if err != nil {
		return "", err
	}
	if len(passages) > 0 {
		parts = append(parts, documentHeading, strings.Join(passages, "\n\n"))
	}

	if a.opts.WebSearch && a.searcher != nil && wantsRecent(question) {
		results, err := a.searcher.Search(ctx, webSearchPrefix+question, a.opts.SearchResults)
		if err != nil {
			a.logger.Warn().Err(err).Msg("web search failed")
		}
		if len(results) > 0 {
			parts = append(parts, websearch.FormatResults(results))
		}
	}

	background := msgNoContext
	if len(parts) > 0 {
		background = strings.Join(parts, "\n\n")
	}

	return fmt.Sprintf(promptTemplate, background, question, modeInstruction(mode)), nil
}

func wantsRecent(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range recencyKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

func modeInstruction(mode domain.ResponseMode) string {
	if mode == domain.ModeConcise {
		return "Provide a concise, brief response (2-4 sentences). Focus on key insights only."
	}
	return "Provide a detailed, comprehensive analysis with specific metrics, data points, and actionable insights."
}

func (a *Assistant) record(role domain.Role, content string) error {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: a.now(),
	}
	if err := a.session.AppendMessage(msg); err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	return nil
}

// History returns the chat history.
func (a *Assistant) History() ([]domain.Message, error) {
	return a.session.Messages()
}

// ClearHistory drops the chat history.
func (a *Assistant) ClearHistory() error {
	return a.session.ClearMessages()
}

// Reset drops the report, its score, the chat history and the index.
func (a *Assistant) Reset() error {
	a.engine.Clear()
	return a.session.Clear()
}
