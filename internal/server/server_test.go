package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/adapter/cache"
	"esgrag/internal/adapter/chunker"
	"esgrag/internal/adapter/embedding"
	"esgrag/internal/adapter/extract"
	"esgrag/internal/adapter/memstore"
	"esgrag/internal/adapter/scorer"
	"esgrag/internal/adapter/store"
	"esgrag/internal/domain"
	"esgrag/internal/usecase"
)

const sampleReport = "We reached net zero in Europe. Net Zero globally by 2040. One pollution incident.\n\n" +
	"Employee turnover remained stable and safety training reached all sites.\n\n" +
	"The audit committee met six times and reviewed the whistleblower cases."

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	provider := embedding.NewProvider(embedding.LoadHash(256, true), embedding.ProviderOptions{
		Name:      "hash",
		Dimension: 256,
		MaxTokens: 512,
		Logger:    zerolog.Nop(),
	})
	engine := usecase.NewEngine(chunker.NewCharChunker(100, 0), provider, store.NewFlatIndex(), cache.NewPassageCache(16, 0), 3, zerolog.Nop())
	scoring := usecase.NewScoreUseCase(scorer.DefaultRules(), chunker.NewParagraphChunker(20000), false, 1, zerolog.Nop())
	assistant := usecase.NewAssistant(memstore.NewMemorySession(), engine, scoring, nil, nil, usecase.AssistantOptions{}, zerolog.Nop())

	srv := httptest.NewServer(New(assistant, extract.NewRegistry(), nil, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestUploadJSONThenQuery(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/v1/document", documentRequest{Name: "report.txt", Text: sampleReport})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := decode[documentResponse](t, resp)
	assert.Equal(t, "report.txt", doc.Name)
	assert.Equal(t, 3, doc.Chunks)
	assert.False(t, doc.UploadedAt.IsZero())

	resp = postJSON(t, srv, "/v1/query", queryRequest{Query: "audit committee whistleblower", TopK: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	passages := decode[queryResponse](t, resp).Passages
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0], "audit committee")
}

func TestUploadMultipart(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "annual.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(sampleReport))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/v1/document", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "annual.txt", decode[documentResponse](t, resp).Name)

	resp = get(t, srv, "/v1/document")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "annual.txt", decode[documentResponse](t, resp).Name)
}

func TestUploadRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/v1/document", documentRequest{Name: "empty.txt", Text: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "slides.pptx")
	require.NoError(t, err)
	_, err = fw.Write([]byte("binary"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp2, err := http.Post(srv.URL+"/v1/document", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp2).Error, "unsupported")

	resp3, err := http.Post(srv.URL+"/v1/query", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestBlankUploadKeepsCurrentReport(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/v1/document", documentRequest{Name: "report.txt", Text: sampleReport})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv, "/v1/document", documentRequest{Name: "blank.txt", Text: "  \n\n  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "no extractable text")

	resp = get(t, srv, "/v1/document")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "report.txt", decode[documentResponse](t, resp).Name)
}

func TestQueryWithoutDocumentIsEmpty(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/v1/query", queryRequest{Query: "emissions"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[queryResponse](t, resp).Passages)

	resp = postJSON(t, srv, "/v1/query", queryRequest{Query: " "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScoreLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/v1/score", scoreRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no document loaded")

	resp = postJSON(t, srv, "/v1/document", documentRequest{Name: "report.txt", Text: sampleReport})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = get(t, srv, "/v1/score")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, srv, "/v1/score", scoreRequest{Force: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scored := decode[scoreResponse](t, resp)
	require.NotNil(t, scored.Result)
	assert.Equal(t, 4.0, scored.Result.Environmental.Score)
	assert.Contains(t, scored.Summary, "ESG Risk Assessment")
	assert.NotEmpty(t, scored.Gaps)

	resp = get(t, srv, "/v1/score")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, scored.Result.Overall, decode[scoreResponse](t, resp).Result.Overall)

	resp = get(t, srv, "/v1/gaps")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, scored.Gaps, decode[map[string][]string](t, resp)["gaps"])
}

func TestAsk(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/v1/document", documentRequest{Name: "report.txt", Text: sampleReport})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv, "/v1/ask", askRequest{Question: "ESG score"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[askResponse](t, resp).Answer, "Recommendations")

	resp = postJSON(t, srv, "/v1/ask", askRequest{Question: "What about water?", Mode: "detailed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[askResponse](t, resp).Answer, "Error generating response")

	resp = postJSON(t, srv, "/v1/ask", askRequest{Question: "hi", Mode: "verbose"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrEmptyInput:       http.StatusBadRequest,
		extract.ErrNoText:          http.StatusBadRequest,
		domain.ErrNoDocument:       http.StatusConflict,
		domain.ErrIndexNotReady:    http.StatusConflict,
		domain.ErrModelUnavailable: http.StatusServiceUnavailable,
		domain.ErrScoringFailure:   http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := New(nil, extract.NewRegistry(), []string{"https://dashboard.example"}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodOptions, "/v1/query", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := New(nil, extract.NewRegistry(), nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.ListenAndServe(ctx, "127.0.0.1:0"))
}
