package scorer

import (
	"fmt"
	"math"

	"esgrag/internal/domain"
)

const (
	Baseline = 3.0
	MinScore = 1.0
	MaxScore = 5.0
)

// BlockScore is the score of one analysis block on one dimension.
type BlockScore struct {
	Score    float64
	Positive []string
	Negative []string
}

// ScoreBlock scores text on dimension d. Each phrase found adds
// weight*min(count, cap) to the baseline; the sum is clamped to [1, 5] and
// rounded to two decimals. Signals are reported as "<phrase> (<n>x)" in
// lexicon order.
func (r *Rules) ScoreBlock(text string, d domain.Dimension) BlockScore {
	lex := r.lexicons[d]
	score := Baseline
	var res BlockScore

	for _, t := range lex.positive {
		if n := t.count(text); n > 0 {
			score += t.Weight * float64(min(n, r.positiveCap))
			res.Positive = append(res.Positive, signal(t.Phrase, n))
		}
	}
	for _, t := range lex.negative {
		if n := t.count(text); n > 0 {
			score += t.Weight * float64(min(n, r.negativeCap))
			res.Negative = append(res.Negative, signal(t.Phrase, n))
		}
	}

	res.Score = Round2(math.Max(MinScore, math.Min(MaxScore, score)))
	return res
}

// ScoreAll scores text on every dimension, in domain.Dimensions order.
func (r *Rules) ScoreAll(text string) [3]BlockScore {
	var out [3]BlockScore
	for i, d := range domain.Dimensions {
		out[i] = r.ScoreBlock(text, d)
	}
	return out
}

func signal(phrase string, n int) string {
	return fmt.Sprintf("%s (%dx)", phrase, n)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
