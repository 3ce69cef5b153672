package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/domain"
)

func sampleResult() *domain.ScoreResult {
	return &domain.ScoreResult{
		Overall: 3.35,
		Tier:    domain.MediumRisk,
		Environmental: domain.DimensionScore{
			Score:    4.0,
			Positive: []string{"net zero (2x)"},
			Negative: []string{"pollution (1x)"},
		},
		Social:     domain.DimensionScore{Score: 3.0},
		Governance: domain.DimensionScore{Score: 3.0},
		Blocks:     1,
	}
}

func TestRenderSummary(t *testing.T) {
	want := "## 🟡 ESG Risk Assessment: Medium Risk\n" +
		"**Overall Score: 3.35/5.0**\n" +
		"\n### 🌍 Environmental Score: 4.0/5.0\n" +
		"**Strengths:** net zero (2x)\n" +
		"**Risks:** pollution (1x)\n" +
		"\n### 👥 Social Score: 3.0/5.0\n" +
		"**Strengths:** None identified\n" +
		"**Risks:** None identified\n" +
		"\n### 🏛️ Governance Score: 3.0/5.0\n" +
		"**Strengths:** None identified\n" +
		"**Risks:** None identified\n"

	assert.Equal(t, want, RenderSummary(sampleResult()))
	assert.Equal(t, "Unable to generate score summary.", RenderSummary(nil))
}

func TestRenderSummaryTopFiveSignals(t *testing.T) {
	res := sampleResult()
	res.Social.Positive = []string{"a (1x)", "b (1x)", "c (1x)", "d (1x)", "e (1x)", "f (1x)"}

	assert.Contains(t, RenderSummary(res), "**Strengths:** a (1x), b (1x), c (1x), d (1x), e (1x)\n")
	assert.NotContains(t, RenderSummary(res), "f (1x)")
}

func TestTierEmoji(t *testing.T) {
	assert.Equal(t, "🟢", TierEmoji(domain.LowRisk))
	assert.Equal(t, "🟡", TierEmoji(domain.MediumRisk))
	assert.Equal(t, "🔴", TierEmoji(domain.HighRisk))
}

func TestFormatScore(t *testing.T) {
	tests := map[float64]string{
		4:                  "4.0",
		3.456:              "3.46",
		3.4999999999999996: "3.5",
		1:                  "1.0",
		2.1:                "2.1",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatScore(in), "FormatScore(%v)", in)
	}
}

func TestAnalyzeGaps(t *testing.T) {
	assert.Equal(t, []string{
		"👥 Social: Enhance diversity, inclusion, and employee wellbeing programs",
		"🏛️ Governance: Improve board independence and transparency mechanisms",
		"⚠️ Address environmental compliance issues identified",
	}, AnalyzeGaps(sampleResult()))
}

func TestAnalyzeGapsNone(t *testing.T) {
	res := &domain.ScoreResult{
		Overall:       4.2,
		Tier:          domain.LowRisk,
		Environmental: domain.DimensionScore{Score: 4.5},
		Social:        domain.DimensionScore{Score: 3.5},
		Governance:    domain.DimensionScore{Score: 3.4999999999999996},
	}

	assert.Equal(t, []string{"✅ No major ESG gaps identified. Strong performance across all areas."}, AnalyzeGaps(res),
		"the threshold compares the displayed score")
	assert.Equal(t, []string{"Unable to analyze ESG gaps."}, AnalyzeGaps(nil))
}

func TestAnalyzeGapsAllDimensions(t *testing.T) {
	res := &domain.ScoreResult{
		Overall:       1.5,
		Tier:          domain.HighRisk,
		Environmental: domain.DimensionScore{Score: 1.5, Negative: []string{"spill (1x)"}},
		Social:        domain.DimensionScore{Score: 1.5, Negative: []string{"child labor (1x)"}},
		Governance:    domain.DimensionScore{Score: 1.5, Negative: []string{"fraud (1x)"}},
	}

	gaps := AnalyzeGaps(res)
	require.Len(t, gaps, 6)
	assert.Equal(t, "⚠️ Strengthen governance controls and ethics frameworks", gaps[5])
}

func TestRenderRecommendations(t *testing.T) {
	out := RenderRecommendations(sampleResult())

	assert.Contains(t, out, RenderSummary(sampleResult())+"\n\n### 📋 Recommendations:\n")
	assert.Contains(t, out, "👥 Social: Enhance diversity, inclusion, and employee wellbeing programs\n🏛️ Governance")
}

func TestRenderSummaryHTML(t *testing.T) {
	out, err := RenderSummaryHTML(sampleResult())
	require.NoError(t, err)

	assert.Contains(t, out, "<h2>🟡 ESG Risk Assessment: Medium Risk</h2>")
	assert.Contains(t, out, "<strong>Overall Score: 3.35/5.0</strong>")
	assert.Contains(t, out, "<h3>🌍 Environmental Score: 4.0/5.0</h3>")
	assert.Contains(t, out, "<br>")
}
