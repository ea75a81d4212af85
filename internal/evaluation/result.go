package evaluation

const (
	DecisionAccepted = "Accepted"
	DecisionRejected = "Rejected"

	MinRating = 1
	MaxRating = 5
)

// Result is a validated interview evaluation.
type Result struct {
	Strengths           []string          `json:"strengths"`
	AreasForImprovement []string          `json:"areasForImprovement"`
	DetailedFeedback    map[string]string `json:"detailedFeedback"`
	FinalDecision       FinalDecision     `json:"finalDecision"`
	AdditionalInsights  map[string]any    `json:"additionalInsights"`
}

type FinalDecision struct {
	Decision        string         `json:"decision"`
	Ratings         map[string]int `json:"ratings"`
	ConfidenceScore string         `json:"confidenceScore"`
}

func (r *Result) Accepted() bool {
	return r != nil && r.FinalDecision.Decision == DecisionAccepted
}
