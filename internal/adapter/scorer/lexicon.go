// Package scorer implements keyword-and-weight ESG scoring of text blocks.
package scorer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"esgrag/config"
	"esgrag/internal/domain"
)

// Term is one lexicon entry.
type Term struct {
	Phrase string  `json:"phrase"`
	Weight float64 `json:"weight"`
}

type compiledTerm struct {
	Term
	re *regexp.Regexp
}

type lexicon struct {
	positive []compiledTerm
	negative []compiledTerm
}

// Rules holds the compiled lexicons, dimension weights and match caps. It is
// immutable after NewRules and safe for concurrent use.
type Rules struct {
	lexicons    map[domain.Dimension]lexicon
	weights     map[domain.Dimension]float64
	positiveCap int
	negativeCap int
	hash        string
}

// NewRules validates and compiles the scoring configuration.
func NewRules(cfg config.ScoringConfig) (*Rules, error) {
	r := &Rules{
		lexicons: make(map[domain.Dimension]lexicon, len(domain.Dimensions)),
		weights: map[domain.Dimension]float64{
			domain.Environmental: cfg.Weights.Environmental,
			domain.Social:        cfg.Weights.Social,
			domain.Governance:    cfg.Weights.Governance,
		},
		positiveCap: cfg.PositiveCap,
		negativeCap: cfg.NegativeCap,
	}

	var sum float64
	for _, d := range domain.Dimensions {
		w := r.weights[d]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("weight for %s must be a finite non-negative number, got %v", d, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		return nil, fmt.Errorf("dimension weights must sum to 1.0, got %v", sum)
	}
	if r.positiveCap < 1 || r.negativeCap < 1 {
		return nil, errors.New("match caps must be at least 1")
	}

	for _, d := range domain.Dimensions {
		lc := lexiconConfig(cfg.Lexicons, d)
		pos, err := compileTerms(lc.Positive)
		if err != nil {
			return nil, fmt.Errorf("%s positive lexicon: %w", d, err)
		}
		neg, err := compileTerms(lc.Negative)
		if err != nil {
			return nil, fmt.Errorf("%s negative lexicon: %w", d, err)
		}
		r.lexicons[d] = lexicon{positive: pos, negative: neg}
	}

	r.hash = r.computeHash()
	return r, nil
}

// DefaultRules returns the rules built from the default configuration.
func DefaultRules() *Rules {
	r, err := NewRules(config.DefaultConfig().Scoring)
	if err != nil {
		panic(fmt.Sprintf("default scoring rules are invalid: %v", err))
	}
	return r
}

func lexiconConfig(l config.LexiconsConfig, d domain.Dimension) config.LexiconConfig {
	switch d {
	case domain.Environmental:
		return l.Environmental
	case domain.Social:
		return l.Social
	default:
		return l.Governance
	}
}

func compileTerms(terms []config.TermConfig) ([]compiledTerm, error) {
	out := make([]compiledTerm, 0, len(terms))
	for _, t := range terms {
		phrase := strings.TrimSpace(t.Phrase)
		if phrase == "" {
			return nil, errors.New("empty phrase")
		}
		if math.IsNaN(t.Weight) || math.IsInf(t.Weight, 0) {
			return nil, fmt.Errorf("weight of %q is not finite", phrase)
		}
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(phrase))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %q: %w", phrase, err)
		}
		out = append(out, compiledTerm{Term: Term{Phrase: phrase, Weight: t.Weight}, re: re})
	}
	return out, nil
}

// count returns the number of non-overlapping whole-word occurrences of the
// term in text. Word characters are Unicode letters, numbers and '_'.
func (t compiledTerm) count(text string) int {
	n := 0
	for i := 0; i <= len(text); {
		loc := t.re.FindStringIndex(text[i:])
		if loc == nil {
			break
		}
		start, end := i+loc[0], i+loc[1]
		if isBoundary(text, start) && isBoundary(text, end) {
			n++
			i = max(end, start+1)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		i = start + max(size, 1)
	}
	return n
}

// isBoundary reports whether a word boundary lies at byte offset pos.
func isBoundary(text string, pos int) bool {
	before, after := false, false
	if pos > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:pos])
		before = isWordRune(r)
	}
	if pos < len(text) {
		r, _ := utf8.DecodeRuneInString(text[pos:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Weight returns the contribution of d to the overall score.
func (r *Rules) Weight(d domain.Dimension) float64 {
	return r.weights[d]
}

// Terms returns a copy of the lexicon for d and polarity p.
func (r *Rules) Terms(d domain.Dimension, p domain.Polarity) []Term {
	src := r.lexicons[d].positive
	if p == domain.Negative {
		src = r.lexicons[d].negative
	}
	out := make([]Term, len(src))
	for i, t := range src {
		out[i] = t.Term
	}
	return out
}

// Hash identifies the rules. Scores computed under different hashes are not
// comparable.
func (r *Rules) Hash() string {
	return r.hash
}

func (r *Rules) computeHash() string {
	type dimRules struct {
		Dimension domain.Dimension `json:"dimension"`
		Weight    float64          `json:"weight"`
		Positive  []Term           `json:"positive"`
		Negative  []Term           `json:"negative"`
	}
	canonical := struct {
		PositiveCap int        `json:"positive_cap"`
		NegativeCap int        `json:"negative_cap"`
		Dimensions  []dimRules `json:"dimensions"`
	}{
		PositiveCap: r.positiveCap,
		NegativeCap: r.negativeCap,
	}
	for _, d := range domain.Dimensions {
		canonical.Dimensions = append(canonical.Dimensions, dimRules{
			Dimension: d,
			Weight:    r.weights[d],
			Positive:  r.Terms(d, domain.Positive),
			Negative:  r.Terms(d, domain.Negative),
		})
	}

	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
