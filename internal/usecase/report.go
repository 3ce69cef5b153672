package usecase

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"esgrag/internal/adapter/scorer"
	"esgrag/internal/domain"
)

const (
	summarySignals = 5
	gapThreshold   = 3.5
)

var dimensionEmoji = map[domain.Dimension]string{
	domain.Environmental: "🌍",
	domain.Social:        "👥",
	domain.Governance:    "🏛️",
}

// TierEmoji returns the traffic light shown next to a risk tier.
func TierEmoji(t domain.RiskTier) string {
	switch t {
	case domain.LowRisk:
		return "🟢"
	case domain.MediumRisk:
		return "🟡"
	default:
		return "🔴"
	}
}

// FormatScore renders a score rounded to two decimals, keeping one decimal
// for whole numbers ("4.0", "3.47").
func FormatScore(v float64) string {
	r := scorer.Round2(v)
	if r == float64(int64(r)) {
		return strconv.FormatFloat(r, 'f', 1, 64)
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// RenderSummary renders result as markdown with the top signals of every
// dimension.
func RenderSummary(result *domain.ScoreResult) string {
	if result == nil {
		return "Unable to generate score summary."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s ESG Risk Assessment: %s\n", TierEmoji(result.Tier), result.Tier)
	fmt.Fprintf(&sb, "**Overall Score: %s/5.0**\n", FormatScore(result.Overall))

	for _, d := range domain.Dimensions {
		ds := result.Dimension(d)
		fmt.Fprintf(&sb, "\n### %s %s Score: %s/5.0\n", dimensionEmoji[d], d.Title(), FormatScore(ds.Score))
		fmt.Fprintf(&sb, "**Strengths:** %s\n", joinSignals(ds.Positive))
		fmt.Fprintf(&sb, "**Risks:** %s\n", joinSignals(ds.Negative))
	}
	return sb.String()
}

func joinSignals(signals []string) string {
	if len(signals) == 0 {
		return "None identified"
	}
	return strings.Join(signals[:min(len(signals), summarySignals)], ", ")
}

// RenderSummaryHTML renders the markdown summary as an HTML fragment.
func RenderSummaryHTML(result *domain.ScoreResult) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(RenderSummary(result)), &buf); err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	return buf.String(), nil
}

var gapAdvice = map[domain.Dimension][2]string{
	domain.Environmental: {
		"🌍 Environmental: Strengthen climate action and emissions reduction strategies",
		"⚠️ Address environmental compliance issues identified",
	},
	domain.Social: {
		"👥 Social: Enhance diversity, inclusion, and employee wellbeing programs",
		"⚠️ Resolve social/labor-related concerns",
	},
	domain.Governance: {
		"🏛️ Governance: Improve board independence and transparency mechanisms",
		"⚠️ Strengthen governance controls and ethics frameworks",
	},
}

// AnalyzeGaps lists recommendations for weak dimensions (displayed score
// below 3.5) followed by one for each dimension with risk signals.
func AnalyzeGaps(result *domain.ScoreResult) []string {
	if result == nil {
		return []string{"Unable to analyze ESG gaps."}
	}

	var gaps []string
	for _, d := range domain.Dimensions {
		if scorer.Round2(result.Dimension(d).Score) < gapThreshold {
			gaps = append(gaps, gapAdvice[d][0])
		}
	}
	for _, d := range domain.Dimensions {
		if len(result.Dimension(d).Negative) > 0 {
			gaps = append(gaps, gapAdvice[d][1])
		}
	}

	if len(gaps) == 0 {
		gaps = append(gaps, "✅ No major ESG gaps identified. Strong performance across all areas.")
	}
	return gaps
}

// RenderRecommendations renders the summary followed by the gap list.
func RenderRecommendations(result *domain.ScoreResult) string {
	return RenderSummary(result) + "\n\n### 📋 Recommendations:\n" + strings.Join(AnalyzeGaps(result), "\n")
}
