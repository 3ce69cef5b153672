package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/config"
	"esgrag/internal/domain"
)

func TestScoreBlockNetZeroAndPollution(t *testing.T) {
	r := DefaultRules()

	res := r.ScoreBlock("We reached net zero in Europe. Net Zero globally by 2040. One pollution incident.", domain.Environmental)

	assert.Equal(t, 4.0, res.Score)
	assert.Equal(t, []string{"net zero (2x)"}, res.Positive)
	assert.Equal(t, []string{"pollution (1x)"}, res.Negative)
}

func TestScoreBlockNegativeCap(t *testing.T) {
	cfg := config.DefaultConfig().Scoring
	cfg.Lexicons.Governance = config.LexiconConfig{
		Negative: []config.TermConfig{{Phrase: "fraud", Weight: -0.5}},
	}
	r, err := NewRules(cfg)
	require.NoError(t, err)

	res := r.ScoreBlock("fraud fraud fraud fraud fraud", domain.Governance)

	assert.Equal(t, 2.0, res.Score, "five matches contribute only weight*2")
	assert.Equal(t, []string{"fraud (5x)"}, res.Negative)
}

func TestScoreBlockPositiveCapAndClamp(t *testing.T) {
	r := DefaultRules()

	res := r.ScoreBlock("renewable energy, renewable energy, renewable energy, renewable energy", domain.Environmental)
	assert.Equal(t, 5.0, res.Score, "3 + 0.8*3 clamps to 5")
	assert.Equal(t, []string{"renewable energy (4x)"}, res.Positive)

	res = r.ScoreBlock("fraud and bribery and corruption", domain.Governance)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, []string{"fraud (1x)", "corruption (1x)", "bribery (1x)"}, res.Negative, "signals follow lexicon order")
}

func TestScoreBlockWholeWordsOnly(t *testing.T) {
	r := DefaultRules()

	res := r.ScoreBlock("Greenhouse gas evergreen policies", domain.Environmental)
	assert.Equal(t, Baseline, res.Score)
	assert.Empty(t, res.Positive)

	res = r.ScoreBlock("A GREEN future.", domain.Environmental)
	assert.Equal(t, []string{"green (1x)"}, res.Positive)
	assert.InDelta(t, 3.4, res.Score, 1e-9)
}

func TestScoreBlockUnicodeWordBoundaries(t *testing.T) {
	r := DefaultRules()

	res := r.ScoreBlock("Rapport: épollution et vertgreen", domain.Environmental)
	assert.Equal(t, Baseline, res.Score)
	assert.Empty(t, res.Positive)
	assert.Empty(t, res.Negative)

	res = r.ScoreBlock("pollutionü green_ 2green", domain.Environmental)
	assert.Equal(t, Baseline, res.Score, "letters, digits and underscores all join words")
	assert.Empty(t, res.Negative)

	res = r.ScoreBlock("Émissions: «pollution» réduite, green/énergie.", domain.Environmental)
	assert.Equal(t, []string{"green (1x)"}, res.Positive)
	assert.Equal(t, []string{"pollution (1x)"}, res.Negative)
	assert.InDelta(t, 2.6, res.Score, 1e-9)
}

func TestTermCountSkipsEmbeddedMatches(t *testing.T) {
	r := DefaultRules()
	green := r.lexicons[domain.Environmental].positive[7]
	require.Equal(t, "green", green.Phrase)

	assert.Equal(t, 0, green.count("greengreen"))
	assert.Equal(t, 1, green.count("greengreen green"))
	assert.Equal(t, 2, green.count("GREEN, green"))
	assert.Equal(t, 0, green.count(""))
}

func TestScoreBlockPunctuatedPhrases(t *testing.T) {
	r := DefaultRules()

	res := r.ScoreBlock("Our anti-corruption training and work-life balance.", domain.Governance)
	assert.Equal(t, []string{"anti-corruption (1x)"}, res.Positive)
	assert.Contains(t, res.Negative, "corruption (1x)", "a hyphen is a word boundary")
}

func TestScoreBlockNeutral(t *testing.T) {
	r := DefaultRules()

	for _, d := range domain.Dimensions {
		res := r.ScoreBlock("Quarterly revenue grew in all regions.", d)
		assert.Equal(t, Baseline, res.Score)
		assert.Empty(t, res.Positive)
		assert.Empty(t, res.Negative)
	}
}

func TestScoreAllOrder(t *testing.T) {
	r := DefaultRules()

	all := r.ScoreAll("diversity and fraud and recycling")
	assert.Equal(t, []string{"recycling (1x)"}, all[0].Positive)
	assert.Equal(t, []string{"diversity (1x)"}, all[1].Positive)
	assert.Equal(t, []string{"fraud (1x)"}, all[2].Negative)
}

func TestNewRulesValidation(t *testing.T) {
	cfg := config.DefaultConfig().Scoring
	cfg.Weights.Governance = 0.5
	_, err := NewRules(cfg)
	assert.ErrorContains(t, err, "sum to 1.0")

	cfg = config.DefaultConfig().Scoring
	cfg.Lexicons.Social.Positive = append(cfg.Lexicons.Social.Positive, config.TermConfig{Phrase: "  "})
	_, err = NewRules(cfg)
	assert.ErrorContains(t, err, "empty phrase")

	cfg = config.DefaultConfig().Scoring
	cfg.NegativeCap = 0
	_, err = NewRules(cfg)
	assert.Error(t, err)
}

func TestRulesHash(t *testing.T) {
	a := DefaultRules()
	b := DefaultRules()
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEmpty(t, a.Hash())

	cfg := config.DefaultConfig().Scoring
	cfg.Lexicons.Environmental.Positive[0].Weight = 0.81
	c, err := NewRules(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestRulesTermsIsCopy(t *testing.T) {
	r := DefaultRules()

	terms := r.Terms(domain.Environmental, domain.Positive)
	require.NotEmpty(t, terms)
	assert.Equal(t, "carbon reduction", terms[0].Phrase)
	terms[0].Phrase = "mutated"

	assert.Equal(t, "carbon reduction", r.Terms(domain.Environmental, domain.Positive)[0].Phrase)
	assert.Equal(t, 0.35, r.Weight(domain.Social))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 4.0, Round2(3.9999999999999996))
	assert.Equal(t, 3.46, Round2(3.456))
	assert.Equal(t, 1.0, Round2(1))
}
