package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/ai"
	"github.com/ishitcode/hire/internal/utils"
)

//go:embed analysis_prompt.md
var analysisPrompt string

// Analyzer screens extracted resume text against a job role.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyzer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, resumeText, jobRole string) (*ai.ResumeAnalysis, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return nil, errors.New("resume text is required")
	}
	jobRole = strings.TrimSpace(jobRole)
	if jobRole == "" {
		return nil, errors.New("job role is required")
	}

	prompt := buildAnalysisPrompt(resumeText, jobRole)

	a.logger.Debug("gemini analysis request",
		zap.String("job_role", jobRole),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini analysis response",
		zap.String("job_role", jobRole),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return nil, err
	}

	analysis.Raw = raw
	return analysis, nil
}

func buildAnalysisPrompt(resumeText, jobRole string) string {
	template := analysisPrompt
	if strings.TrimSpace(template) == "" {
		template = "Job role:\n{{JOB_ROLE}}\n\nResume:\n{{RESUME_TEXT}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{JOB_ROLE}}", jobRole)
	prompt = strings.ReplaceAll(prompt, "{{RESUME_TEXT}}", resumeText)
	return prompt
}

func parseAnalysis(raw string) (*ai.ResumeAnalysis, error) {
	cleaned := utils.ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}

	return &ai.ResumeAnalysis{
		Fit:       coerceBool(data["fit"]),
		Score:     score,
		Summary:   coerceString(data["summary"]),
		Strengths: coerceStrings(data["strengths"]),
		Gaps:      coerceStrings(data["gaps"]),
	}, nil
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				result = append(result, s)
			}
		}
		return result
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	}
	return []string{}
}
