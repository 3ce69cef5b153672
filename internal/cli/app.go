package cli

import (
	"fmt"
	"time"

	"esgrag/config"
	"esgrag/internal/adapter/cache"
	"esgrag/internal/adapter/chunker"
	"esgrag/internal/adapter/embedding"
	"esgrag/internal/adapter/llm"
	"esgrag/internal/adapter/scorer"
	"esgrag/internal/adapter/store"
	"esgrag/internal/adapter/websearch"
	"esgrag/internal/port"
	"esgrag/internal/usecase"
)

// app holds the components a command works with.
type app struct {
	session   port.SessionStore
	engine    *usecase.Engine
	scoring   *usecase.ScoreUseCase
	assistant *usecase.Assistant
}

// openApp wires the components from the loaded config around the session
// stored in the working directory.
func openApp() (*app, error) {
	cfg := GetConfig()

	if err := config.EnsureDataDir(GetRootDir()); err != nil {
		return nil, fmt.Errorf("failed to create .esgrag directory: %w", err)
	}

	session, err := store.OpenBoltSession(config.SessionDBPath(GetRootDir()))
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	a, err := newApp(cfg, session)
	if err != nil {
		session.Close()
		return nil, err
	}

	pruned, err := session.PruneStaleScore(a.scoring.Rules().Hash())
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to check stored score: %w", err)
	}
	if pruned {
		log.Info().Msg("scoring rules changed, stored score dropped")
	}

	return a, nil
}

// newApp wires the components for cfg around session.
func newApp(cfg *config.Config, session port.SessionStore) (*app, error) {
	rules, err := scorer.NewRules(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring rules: %w", err)
	}

	embedder, err := embedding.NewFromConfig(cfg.Embedding, log)
	if err != nil {
		return nil, err
	}

	index, err := store.NewIndex(cfg.Index.Backend)
	if err != nil {
		return nil, err
	}

	var passageCache *cache.PassageCache
	if cfg.Retrieve.CacheSize > 0 {
		passageCache = cache.NewPassageCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTLSeconds)*time.Second)
	}

	engine := usecase.NewEngine(
		chunker.NewCharChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap),
		embedder,
		index,
		passageCache,
		cfg.Retrieve.TopK,
		log,
	)
	scoring := usecase.NewScoreUseCase(
		rules,
		chunker.NewParagraphChunker(cfg.Chunking.BlockSize),
		cfg.Scoring.Parallel,
		cfg.Scoring.Workers,
		log,
	)

	var model port.LLM
	if chat, err := llm.New(cfg.LLM); err != nil {
		log.Debug().Err(err).Msg("language model unavailable")
	} else {
		model = chat
	}

	var searcher port.WebSearcher
	if cfg.Search.Enabled {
		searcher = websearch.NewDuckDuckGo(cfg.Search.BaseURL, time.Duration(cfg.Search.IntervalMS)*time.Millisecond, log)
	}

	assistant := usecase.NewAssistant(session, engine, scoring, model, searcher, usecase.AssistantOptions{
		WebSearch:         cfg.Search.Enabled,
		SearchResults:     3,
		TopK:              cfg.Retrieve.TopK,
		ConciseMaxTokens:  cfg.LLM.ConciseMaxTokens,
		DetailedMaxTokens: cfg.LLM.DetailedMaxTokens,
	}, log)

	return &app{
		session:   session,
		engine:    engine,
		scoring:   scoring,
		assistant: assistant,
	}, nil
}

func (a *app) Close() error {
	return a.session.Close()
}
