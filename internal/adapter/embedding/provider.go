package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"esgrag/internal/adapter/analyzer"
	"esgrag/internal/domain"
)

// Model is a loaded embedding backend. Vectors it returns need not be
// normalized.
type Model interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Name() string
}

// Loader constructs a Model. It is called at most once per Provider.
type Loader func(ctx context.Context) (Model, error)

type ProviderOptions struct {
	Name      string
	Dimension int
	MaxTokens int
	BatchSize int
	Logger    zerolog.Logger
}

// Provider turns texts into unit-length vectors. The backing model is loaded
// on first use; a load failure is remembered and reported as
// domain.ErrModelUnavailable on every later call.
type Provider struct {
	load Loader
	opts ProviderOptions

	once    sync.Once
	model   Model
	loadErr error
	dim     atomic.Int64
}

func NewProvider(load Loader, opts ProviderOptions) *Provider {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	p := &Provider{
		load: load,
		opts: opts,
	}
	p.dim.Store(int64(opts.Dimension))
	return p
}

func (p *Provider) ensureModel(ctx context.Context) (Model, error) {
	p.once.Do(func() {
		// A cancelled first caller must not poison the cached load.
		m, err := p.load(context.WithoutCancel(ctx))
		if err != nil {
			p.loadErr = err
			p.opts.Logger.Error().Err(err).Str("model", p.opts.Name).Msg("embedding model failed to load")
			return
		}
		p.model = m
		p.dim.Store(int64(m.Dimension()))
		p.opts.Logger.Debug().Str("model", m.Name()).Int("dimension", m.Dimension()).Msg("embedding model loaded")
	})
	if p.loadErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, p.loadErr)
	}
	return p.model, nil
}

// EmbedOne embeds a single text.
func (p *Provider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany embeds texts in batches, preserving order.
func (p *Provider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	model, err := p.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += p.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(i+p.opts.BatchSize, len(texts))
		batch := make([]string, end-i)
		for j, t := range texts[i:end] {
			batch[j] = analyzer.TruncateWords(t, p.opts.MaxTokens)
		}

		vecs, err := model.Embed(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", i, end, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("model returned %d vectors for %d texts", len(vecs), len(batch))
		}
		for _, v := range vecs {
			out = append(out, unitVector(v))
		}
	}

	return out, nil
}

// Dimension returns the loaded model's dimension, or the configured one
// before the first load.
func (p *Provider) Dimension() int {
	return int(p.dim.Load())
}

func (p *Provider) ModelName() string {
	return p.opts.Name
}

// unitVector normalizes v. Text without tokens embeds to the zero vector,
// which is mapped to the first basis vector so every output has unit norm.
func unitVector(v []float32) []float32 {
	v = Normalize(v)
	if len(v) > 0 && isZero(v) {
		v[0] = 1
	}
	return v
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Normalize scales v to unit L2 norm in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
	return v
}
