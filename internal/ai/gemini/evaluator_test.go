package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestEvaluatorBuildsPrompt(t *testing.T) {
	stub := &stubGenerator{response: `{"strengths":[]}`}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)

	conversation := []interview.Turn{
		{Speaker: interview.SpeakerAI, Text: "Tell me about yourself."},
		{Speaker: interview.SpeakerCandidate, Text: "I build ML pipelines."},
	}

	raw, err := evaluator.Evaluate(context.Background(), conversation, "  Senior ML engineer  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != stub.response {
		t.Fatalf("expected raw response to be returned unchanged, got %q", raw)
	}

	for _, want := range []string{`"speaker": "AI_HR"`, `"text": "I build ML pipelines."`, "Senior ML engineer", `"finalDecision"`} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("prompt contains unreplaced placeholders")
	}
}

func TestEvaluatorRejectsEmptyConversation(t *testing.T) {
	stub := &stubGenerator{}
	evaluator := NewEvaluator(stub, nil, 0)

	_, err := evaluator.Evaluate(context.Background(), nil, "summary")
	if !errors.Is(err, interview.ErrEmptyConversation) {
		t.Fatalf("expected ErrEmptyConversation, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("generator must not be called for an empty conversation")
	}
}

func TestEvaluatorPropagatesGeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota")}
	evaluator := NewEvaluator(stub, zap.NewNop(), 0)

	_, err := evaluator.Evaluate(context.Background(), []interview.Turn{{Speaker: interview.SpeakerAI, Text: "hi"}}, "s")
	if err == nil || err.Error() != "quota" {
		t.Fatalf("expected generator error, got %v", err)
	}
}
