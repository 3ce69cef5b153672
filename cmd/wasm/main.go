//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/rs/zerolog"

	"esgrag/internal/adapter/cache"
	"esgrag/internal/adapter/chunker"
	"esgrag/internal/adapter/embedding"
	"esgrag/internal/adapter/memstore"
	"esgrag/internal/adapter/scorer"
	"esgrag/internal/adapter/store"
	"esgrag/internal/domain"
	"esgrag/internal/usecase"
)

var assistant *usecase.Assistant

func init() {
	assistant = newAssistant()
}

func newAssistant() *usecase.Assistant {
	provider := embedding.NewProvider(embedding.LoadHash(384, true), embedding.ProviderOptions{
		Name:      "hash",
		Dimension: 384,
		MaxTokens: 512,
		Logger:    zerolog.Nop(),
	})
	engine := usecase.NewEngine(
		chunker.NewCharChunker(1000, 200),
		provider,
		store.NewFlatIndex(),
		cache.NewPassageCache(64, 0),
		3,
		zerolog.Nop(),
	)
	scoring := usecase.NewScoreUseCase(scorer.DefaultRules(), chunker.NewParagraphChunker(20000), false, 1, zerolog.Nop())
	return usecase.NewAssistant(memstore.NewMemorySession(), engine, scoring, nil, nil, usecase.AssistantOptions{}, zerolog.Nop())
}

func main() {
	c := make(chan struct{})

	js.Global().Set("esgIndex", js.FuncOf(indexReport))
	js.Global().Set("esgQuery", js.FuncOf(queryReport))
	js.Global().Set("esgScore", js.FuncOf(scoreReport))
	js.Global().Set("esgClear", js.FuncOf(clearReport))

	<-c
}

func indexReport(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: esgIndex(name, text)")
	}

	result, err := assistant.LoadDocument(context.Background(), domain.Document{
		Name: args[0].String(),
		Text: args[1].String(),
	})
	if err != nil {
		return makeError("indexing failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":    true,
		"chunks":     result.Chunks,
		"characters": result.Runes,
		"name":       args[0].String(),
	})
}

func queryReport(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: esgQuery(query, [topK])")
	}

	query := args[0].String()
	topK := 3
	if len(args) > 1 {
		topK = args[1].Int()
	}

	passages, err := assistant.Retrieve(context.Background(), query, topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}
	if passages == nil {
		passages = []string{}
	}

	return makeResult(map[string]interface{}{
		"passages": passages,
		"query":    query,
	})
}

func scoreReport(this js.Value, args []js.Value) interface{} {
	result, err := assistant.Score(context.Background(), nil, false)
	if err != nil {
		return makeError("scoring failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"result":  result,
		"summary": usecase.RenderSummary(result),
		"gaps":    usecase.AnalyzeGaps(result),
	})
}

func clearReport(this js.Value, args []js.Value) interface{} {
	if err := assistant.Reset(); err != nil {
		return makeError("clear failed: " + err.Error())
	}
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
