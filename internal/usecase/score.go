package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"esgrag/internal/adapter/scorer"
	"esgrag/internal/domain"
	"esgrag/internal/port"
)

const maxSignals = 10

var scanMessages = [3]string{
	"🌍 Analyzing Environmental factors...",
	"👥 Analyzing Social factors...",
	"🏛️ Analyzing Governance factors...",
}

// ScoreUseCase computes keyword risk scores for a document.
type ScoreUseCase struct {
	rules    *scorer.Rules
	blocks   port.BlockChunker
	parallel bool
	workers  int
	logger   zerolog.Logger
}

// NewScoreUseCase creates a scoring use case. With parallel set, blocks are
// scanned on a pool of workers goroutines.
func NewScoreUseCase(rules *scorer.Rules, blocks port.BlockChunker, parallel bool, workers int, logger zerolog.Logger) *ScoreUseCase {
	if workers < 1 {
		workers = 1
	}
	return &ScoreUseCase{
		rules:    rules,
		blocks:   blocks,
		parallel: parallel,
		workers:  workers,
		logger:   logger.With().Str("component", "scorer").Logger(),
	}
}

// Rules returns the rules the use case scores with.
func (u *ScoreUseCase) Rules() *scorer.Rules {
	return u.rules
}

// Score runs one scoring pass over text. Progress events go to obs, which
// may be nil. Any failure, including a panic, is reported as
// domain.ErrScoringFailure and no result is returned.
func (u *ScoreUseCase) Score(ctx context.Context, text string, obs port.ProgressObserver) (result *domain.ScoreResult, err error) {
	if obs == nil {
		obs = port.ProgressFunc(nil)
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrScoringFailure, r)
		}
		if err != nil {
			if !errors.Is(err, domain.ErrScoringFailure) {
				err = fmt.Errorf("%w: %w", domain.ErrScoringFailure, err)
			}
			u.logger.Error().Err(err).Msg("scoring failed")
			obs.OnProgress(domain.ProgressEvent{Percent: 100, Stage: domain.StageFailed, Message: "❌ Error occurred"})
		}
	}()

	obs.OnProgress(domain.ProgressEvent{Percent: 5, Stage: domain.StagePreparing, Message: "🔍 Preparing text analysis..."})

	blocks := u.blocks.Blocks(text)
	n := len(blocks)
	if n == 0 {
		return nil, errors.New("no analysis blocks")
	}
	obs.OnProgress(domain.ProgressEvent{
		Percent: 10,
		Stage:   domain.StageChunking,
		Message: fmt.Sprintf("📄 Analyzing %d sections...", n),
		Blocks:  n,
	})

	scan := u.scanSequential
	if u.parallel && n > 1 {
		scan = u.scanParallel
	}
	scores, err := scan(ctx, blocks, obs)
	if err != nil {
		return nil, err
	}

	result = aggregate(scores, u.rules, obs)
	result.Blocks = n

	obs.OnProgress(domain.ProgressEvent{Percent: 100, Stage: domain.StageDone, Message: "✅ Analysis complete!", Blocks: n})

	u.logger.Info().
		Int("blocks", n).
		Float64("overall", scorer.Round2(result.Overall)).
		Str("tier", string(result.Tier)).
		Bool("parallel", u.parallel).
		Dur("took", time.Since(start)).
		Msg("document scored")

	return result, nil
}

func scanEvent(i, n int) domain.ProgressEvent {
	return domain.ProgressEvent{
		Percent: 15 + (i+1)*60/n,
		Stage:   domain.StageScanning,
		Message: scanMessages[i%3],
		Block:   i + 1,
		Blocks:  n,
	}
}

func (u *ScoreUseCase) scanSequential(ctx context.Context, blocks []domain.Block, obs port.ProgressObserver) ([][3]scorer.BlockScore, error) {
	out := make([][3]scorer.BlockScore, len(blocks))
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = u.rules.ScoreAll(b.Text)
		obs.OnProgress(scanEvent(i, len(blocks)))
	}
	return out, nil
}

// scanParallel scores blocks on an ants pool. Progress is reported from the
// calling goroutine in completion count order so percentages never decrease.
func (u *ScoreUseCase) scanParallel(ctx context.Context, blocks []domain.Block, obs port.ProgressObserver) ([][3]scorer.BlockScore, error) {
	pool, err := ants.NewPool(u.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring worker pool: %w", err)
	}
	defer pool.Release()

	n := len(blocks)
	out := make([][3]scorer.BlockScore, n)
	done := make(chan error, n)

	var wg sync.WaitGroup
	for i, b := range blocks {
		wg.Add(1)
		idx, text := i, b.Text
		err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in block %d: %v", idx, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				done <- err
				return
			}
			out[idx] = u.rules.ScoreAll(text)
			done <- nil
		})
		if err != nil {
			wg.Done()
			done <- fmt.Errorf("failed to submit block %d: %w", idx, err)
		}
	}

	var firstErr error
	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if firstErr == nil {
			obs.OnProgress(scanEvent(i, n))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// aggregate averages block scores per dimension and collects signals in
// block order, keeping the first occurrence of each.
func aggregate(scores [][3]scorer.BlockScore, rules *scorer.Rules, obs port.ProgressObserver) *domain.ScoreResult {
	var dims [3]domain.DimensionScore
	var pos, neg [3][]string

	for d := range dims {
		sum := 0.0
		for _, s := range scores {
			sum += s[d].Score
			pos[d] = append(pos[d], s[d].Positive...)
			neg[d] = append(neg[d], s[d].Negative...)
		}
		dims[d].Score = sum / float64(len(scores))
	}
	obs.OnProgress(domain.ProgressEvent{Percent: 80, Stage: domain.StageAggregating, Message: "📊 Calculating final scores..."})

	for d := range dims {
		dims[d].Positive = dedupe(pos[d], maxSignals)
		dims[d].Negative = dedupe(neg[d], maxSignals)
	}
	obs.OnProgress(domain.ProgressEvent{Percent: 90, Stage: domain.StageAggregating, Message: "✅ Finalizing results..."})

	overall := 0.0
	for i, d := range domain.Dimensions {
		overall += dims[i].Score * rules.Weight(d)
	}

	return &domain.ScoreResult{
		Overall:       overall,
		Tier:          domain.TierFor(overall),
		Environmental: dims[0],
		Social:        dims[1],
		Governance:    dims[2],
	}
}

func dedupe(signals []string, limit int) []string {
	seen := make(map[string]struct{}, len(signals))
	out := make([]string, 0, min(len(signals), limit))
	for _, s := range signals {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
