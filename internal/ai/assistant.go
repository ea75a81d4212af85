package ai

import (
	"context"

	"github.com/ishitcode/hire/internal/interview"
)

// ResumeAnalysis is the model's view of how well a resume fits a job role.
type ResumeAnalysis struct {
	Fit       bool     `json:"fit"`
	Score     float64  `json:"score"`
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Gaps      []string `json:"gaps"`
	Raw       string   `json:"-"`
}

// Evaluator asks a language model to assess an interview. It returns the raw
// model output; structural validation happens in the evaluation package.
type Evaluator interface {
	Evaluate(ctx context.Context, conversation []interview.Turn, summary string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, resumeText, jobRole string) (*ResumeAnalysis, error)
}
