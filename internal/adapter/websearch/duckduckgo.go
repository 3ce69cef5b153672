// Package websearch looks up recent ESG news through the DuckDuckGo instant
// answer API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"esgrag/internal/domain"
)

// DuckDuckGo is a throttled WebSearcher. Requests are spaced at least
// interval apart.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewDuckDuckGo(baseURL string, interval time.Duration, logger zerolog.Logger) *DuckDuckGo {
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com/"
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &DuckDuckGo{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With().Str("component", "websearch").Logger(),
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Name     string     `json:"Name"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading        string     `json:"Heading"`
	AbstractText   string     `json:"AbstractText"`
	AbstractURL    string     `json:"AbstractURL"`
	AbstractSource string     `json:"AbstractSource"`
	Results        []ddgTopic `json:"Results"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
}

// Search returns up to maxResults hits for query. Failures are logged and
// yield an empty list.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	results, err := d.search(ctx, query, maxResults)
	if err != nil {
		d.logger.Warn().Err(err).Str("query", query).Msg("web search failed")
		return nil, nil
	}
	d.logger.Debug().Str("query", query).Int("results", len(results)).Msg("web search")
	return results, nil
}

func (d *DuckDuckGo) search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if maxResults <= 0 {
		return nil, nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "esgrag/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var body ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var out []domain.SearchResult
	if body.AbstractText != "" {
		title := body.Heading
		if title == "" {
			title = body.AbstractSource
		}
		out = append(out, domain.SearchResult{Title: title, Snippet: body.AbstractText, Link: body.AbstractURL})
	}
	for _, t := range flatten(append(body.Results, body.RelatedTopics...)) {
		out = append(out, topicResult(t))
	}

	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func flatten(topics []ddgTopic) []ddgTopic {
	var out []ddgTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, flatten(t.Topics)...)
			continue
		}
		if t.Text != "" {
			out = append(out, t)
		}
	}
	return out
}

func topicResult(t ddgTopic) domain.SearchResult {
	title := t.Text
	if i := strings.Index(t.Text, " - "); i > 0 {
		title = t.Text[:i]
	}
	return domain.SearchResult{Title: title, Snippet: t.Text, Link: t.FirstURL}
}

// FormatResults renders results as an LLM context section.
func FormatResults(results []domain.SearchResult) string {
	if len(results) == 0 {
		return "No search results found."
	}

	var sb strings.Builder
	sb.WriteString("=== Web Search Results ===\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		fmt.Fprintf(&sb, "   Source: %s\n\n", r.Link)
	}
	return sb.String()
}
