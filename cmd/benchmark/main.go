package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"esgrag/config"
	"esgrag/internal/adapter/chunker"
	"esgrag/internal/adapter/embedding"
	"esgrag/internal/adapter/extract"
	"esgrag/internal/adapter/scorer"
	"esgrag/internal/adapter/store"
	"esgrag/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding esgrag.yaml")
	reportPath := flag.String("report", "", "Report to benchmark")
	query := flag.String("q", "greenhouse gas emissions", "Query to test")
	topK := flag.Int("k", 3, "Number of passages")
	runs := flag.Int("runs", 5, "Scoring runs per mode")
	flag.Parse()

	if *reportPath == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -report report.pdf -q \"query\"")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Extraction and index build time")
		fmt.Println("  2. Retrieval latency and passage similarity")
		fmt.Println("  3. Sequential versus parallel scoring")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	nop := zerolog.Nop()

	fmt.Println("ESG RAG BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	start := time.Now()
	text, err := extract.NewRegistry().Extract(*reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Report:     %s (%d characters)\n", filepath.Base(*reportPath), len([]rune(text)))
	fmt.Printf("Extraction: %s\n", time.Since(start).Round(time.Millisecond))

	embedder, err := embedding.NewFromConfig(cfg.Embedding, nop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding setup error: %v\n", err)
		os.Exit(1)
	}
	index, err := store.NewIndex(cfg.Index.Backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index setup error: %v\n", err)
		os.Exit(1)
	}
	engine := usecase.NewEngine(
		chunker.NewCharChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap),
		embedder,
		index,
		nil,
		*topK,
		nop,
	)

	built, err := engine.BuildIndex(ctx, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index:      %d chunks, %d dimensions, %s (%s, %s)\n",
		built.Chunks, built.Dimension, built.Duration.Round(time.Millisecond), built.Model, cfg.Index.Backend)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	start = time.Now()
	passages, err := engine.Retrieve(ctx, *query, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	queryVec, err := embedder.EmbedOne(ctx, *query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}

	totalScore := 0.0
	for i, p := range passages {
		vec, err := embedder.EmbedOne(ctx, p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
			os.Exit(1)
		}
		similarity := cosine(queryVec, vec)
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		preview := []rune(strings.ReplaceAll(p, "\n", " "))
		if len(preview) > 150 {
			preview = append(preview[:150], []rune("...")...)
		}
		fmt.Printf("%d. [%s %.3f]\n   %s\n\n", i+1, rating, similarity, string(preview))
	}
	fmt.Printf("Retrieval latency: %s\n", elapsed.Round(time.Microsecond))
	if len(passages) > 0 {
		fmt.Printf("Average similarity: %.3f\n", totalScore/float64(len(passages)))
	}
	fmt.Println()

	rules, err := scorer.NewRules(cfg.Scoring)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scoring rules error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SCORING")
	fmt.Println(strings.Repeat("-", 70))
	for _, parallel := range []bool{false, true} {
		scoring := usecase.NewScoreUseCase(rules, chunker.NewParagraphChunker(cfg.Chunking.BlockSize), parallel, cfg.Scoring.Workers, nop)

		var total time.Duration
		var last float64
		for range *runs {
			start := time.Now()
			result, err := scoring.Score(ctx, text, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Scoring error: %v\n", err)
				os.Exit(1)
			}
			total += time.Since(start)
			last = result.Overall
		}

		mode := "sequential"
		if parallel {
			mode = fmt.Sprintf("parallel (%d workers)", cfg.Scoring.Workers)
		}
		fmt.Printf("  %-24s avg %s  overall %s\n", mode, (total / time.Duration(max(*runs, 1))).Round(time.Microsecond), usecase.FormatScore(last))
	}
}

// cosine assumes unit-length inputs.
func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
