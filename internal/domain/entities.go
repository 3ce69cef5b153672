package domain

import "time"

// Document is the extracted text of one uploaded report.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source,omitempty"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Chunk is a retrieval passage. Start and End are rune offsets into the
// document text; Index is the chunk's position and its vector id.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// Block is a paragraph-aligned analysis unit used only for scoring.
type Block struct {
	Index int
	Text  string
}

// Hit is a single nearest-neighbour result. Distance is squared L2.
type Hit struct {
	ID       int
	Distance float64
}

type Dimension string

const (
	Environmental Dimension = "environmental"
	Social        Dimension = "social"
	Governance    Dimension = "governance"
)

// Dimensions lists the scored dimensions in reporting order.
var Dimensions = []Dimension{Environmental, Social, Governance}

// Title returns the display name of the dimension.
func (d Dimension) Title() string {
	switch d {
	case Environmental:
		return "Environmental"
	case Social:
		return "Social"
	case Governance:
		return "Governance"
	}
	return string(d)
}

type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

type RiskTier string

const (
	LowRisk    RiskTier = "Low Risk"
	MediumRisk RiskTier = "Medium Risk"
	HighRisk   RiskTier = "High Risk"
)

// TierFor maps an overall score to its risk tier. Lower bounds are inclusive.
func TierFor(overall float64) RiskTier {
	switch {
	case overall >= 4.0:
		return LowRisk
	case overall >= 3.0:
		return MediumRisk
	default:
		return HighRisk
	}
}

// DimensionScore is the document-level result for one dimension.
type DimensionScore struct {
	Score    float64  `json:"score"`
	Positive []string `json:"positive_signals"`
	Negative []string `json:"negative_signals"`
}

// ScoreResult is the outcome of one scoring run. It is never mutated after
// construction.
type ScoreResult struct {
	Overall       float64        `json:"overall_score"`
	Tier          RiskTier       `json:"risk_level"`
	Environmental DimensionScore `json:"environmental"`
	Social        DimensionScore `json:"social"`
	Governance    DimensionScore `json:"governance"`
	Blocks        int            `json:"blocks"`
}

// Dimension returns the score for d.
func (r *ScoreResult) Dimension(d Dimension) DimensionScore {
	switch d {
	case Environmental:
		return r.Environmental
	case Social:
		return r.Social
	default:
		return r.Governance
	}
}

type Stage string

const (
	StagePreparing   Stage = "preparing"
	StageChunking    Stage = "chunking"
	StageScanning    Stage = "scanning"
	StageAggregating Stage = "aggregating"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// ProgressEvent is emitted by long running operations. Percent is in [0, 100].
type ProgressEvent struct {
	Percent int
	Stage   Stage
	Message string
	Block   int
	Blocks  int
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the chat history kept in the session.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult is a web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type ResponseMode string

const (
	ModeConcise  ResponseMode = "concise"
	ModeDetailed ResponseMode = "detailed"
)
