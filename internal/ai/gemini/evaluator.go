package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed evaluation_prompt.md
var evaluationPrompt string

const defaultMaxLogLength = 200

// Evaluator produces a raw interview evaluation from a conversation transcript.
type Evaluator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewEvaluator(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, conversation []interview.Turn, summary string) (string, error) {
	if len(conversation) == 0 {
		return "", interview.ErrEmptyConversation
	}
	if e.generator == nil {
		return "", errors.New("gemini evaluator has no generator")
	}

	conversationJSON, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	prompt := buildEvaluationPrompt(string(conversationJSON), summary)

	e.logger.Debug("gemini evaluation request",
		zap.Int("turns", len(conversation)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	e.logger.Debug("gemini evaluation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return raw, nil
}

func buildEvaluationPrompt(conversationJSON, summary string) string {
	template := evaluationPrompt
	if strings.TrimSpace(template) == "" {
		template = "Interview transcript:\n{{CONVERSATION_JSON}}\n\nCandidate summary:\n{{SUMMARY}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{CONVERSATION_JSON}}", conversationJSON)
	prompt = strings.ReplaceAll(prompt, "{{SUMMARY}}", strings.TrimSpace(summary))
	return prompt
}
