// Package server exposes the assistant over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"esgrag/internal/adapter/extract"
	"esgrag/internal/domain"
	"esgrag/internal/port"
	"esgrag/internal/usecase"
)

const maxUploadBytes = 64 << 20

// Assistant is the server-facing subset of usecase.Assistant.
type Assistant interface {
	LoadDocument(ctx context.Context, doc domain.Document) (*usecase.IndexResult, error)
	Document() (domain.Document, error)
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
	Score(ctx context.Context, obs port.ProgressObserver, force bool) (*domain.ScoreResult, error)
	StoredScore() (*domain.ScoreResult, bool, error)
	Ask(ctx context.Context, question string, mode domain.ResponseMode) (string, error)
}

// Server routes HTTP requests to the assistant.
type Server struct {
	assistant Assistant
	extractor port.TextExtractor
	router    *mux.Router
	handler   http.Handler
	logger    zerolog.Logger
}

// New creates a server. allowedOrigins configures CORS; empty allows any.
func New(assistant Assistant, extractor port.TextExtractor, allowedOrigins []string, logger zerolog.Logger) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s := &Server{
		assistant: assistant,
		extractor: extractor,
		router:    mux.NewRouter(),
		logger:    logger.With().Str("component", "server").Logger(),
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.registerRoutes()
	s.handler = c.Handler(s.router)
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/document", s.handleUpload).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/document", s.handleGetDocument).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/query", s.handleQuery).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/score", s.handleScore).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/score", s.handleGetScore).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/gaps", s.handleGaps).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/ask", s.handleAsk).Methods(http.MethodPost)
}

// Handler returns the root handler including CORS.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type documentRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type documentResponse struct {
	Name       string    `json:"name"`
	Chunks     int       `json:"chunks,omitempty"`
	Characters int       `json:"characters"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResponse struct {
	Passages []string `json:"passages"`
}

type scoreRequest struct {
	Force bool `json:"force"`
}

type scoreResponse struct {
	Result  *domain.ScoreResult `json:"result"`
	Summary string              `json:"summary"`
	Gaps    []string            `json:"gaps"`
}

type askRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts either a JSON body with the report text or a
// multipart form with the report file in the "file" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var (
		doc domain.Document
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		doc, err = s.readUpload(w, r)
	} else {
		var req documentRequest
		if err = decodeJSON(r, &req); err == nil {
			doc = domain.Document{Name: req.Name, Text: req.Text}
			if strings.TrimSpace(req.Text) == "" {
				err = badRequest(extract.ErrNoText)
			}
		}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.assistant.LoadDocument(r.Context(), doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	stored, err := s.assistant.Document()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentResponse{
		Name:       stored.Name,
		Chunks:     result.Chunks,
		Characters: result.Runes,
		UploadedAt: stored.UploadedAt,
	})
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (domain.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		return domain.Document{}, badRequest(fmt.Errorf("missing file: %w", err))
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "esgrag-upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return domain.Document{}, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		return domain.Document{}, badRequest(fmt.Errorf("failed to read upload: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return domain.Document{}, err
	}

	text, err := s.extractor.Extract(tmp.Name())
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Name: filepath.Base(header.Filename), Text: text}, nil
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.assistant.Document()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		Name:       doc.Name,
		Characters: len([]rune(doc.Text)),
		UploadedAt: doc.UploadedAt,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, badRequest(errors.New("query is required")))
		return
	}

	passages, err := s.assistant.Retrieve(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if passages == nil {
		passages = []string{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Passages: passages})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}

	result, err := s.assistant.Score(r.Context(), nil, req.Force)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newScoreResponse(result))
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	result, ok, err := s.assistant.StoredScore()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "score not calculated"})
		return
	}
	writeJSON(w, http.StatusOK, newScoreResponse(result))
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	result, err := s.assistant.Score(r.Context(), nil, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"gaps": usecase.AnalyzeGaps(result)})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, badRequest(errors.New("question is required")))
		return
	}

	mode := domain.ModeConcise
	switch domain.ResponseMode(req.Mode) {
	case "", domain.ModeConcise:
	case domain.ModeDetailed:
		mode = domain.ModeDetailed
	default:
		s.writeError(w, badRequest(fmt.Errorf("unknown mode %q", req.Mode)))
		return
	}

	answer, err := s.assistant.Ask(r.Context(), req.Question, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func newScoreResponse(result *domain.ScoreResult) scoreResponse {
	return scoreResponse{
		Result:  result,
		Summary: usecase.RenderSummary(result),
		Gaps:    usecase.AnalyzeGaps(result),
	}
}

type requestError struct {
	err error
}

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return requestError{err: err}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var reqErr requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, extract.ErrNoText),
		errors.Is(err, extract.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoDocument),
		errors.Is(err, domain.ErrIndexNotReady):
		return http.StatusConflict
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
