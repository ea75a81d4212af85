package evaluation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/ai"
	"github.com/ishitcode/hire/internal/events"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/logger"
)

// Notifier validates candidate phone numbers and delivers the decision.
type Notifier interface {
	Enabled() bool
	Validate(phone string) (string, error)
	Notify(ctx context.Context, decision, phone string)
}

// AuditWriter persists the conversation that was submitted for evaluation.
type AuditWriter interface {
	SaveInterview(ctx context.Context, id string, conversation []interview.Turn) error
}

type Publisher interface {
	PublishDecision(ctx context.Context, event events.Decision) error
}

type Recorder interface {
	ObserveEvaluation(outcome string, duration time.Duration)
}

// Input is one evaluation request as received from a client.
type Input struct {
	RequestID    string
	Conversation []interview.Turn
	Summary      string
	PhoneNumber  string
}

// Service runs the evaluation pipeline: input checks, phone validation, audit
// write, model call, response validation, then best-effort notification and
// event publishing.
type Service struct {
	evaluator ai.Evaluator
	notifier  Notifier
	audit     AuditWriter
	publisher Publisher
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAudit(a AuditWriter) Option {
	return func(s *Service) { s.audit = a }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(evaluator ai.Evaluator, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{evaluator: evaluator, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run carries the state of a single evaluation request through the stages.
type run struct {
	id     string
	logger *zap.Logger
	input  Input
	phone  string
}

func (s *Service) Evaluate(ctx context.Context, in Input) (*Result, error) {
	start := s.now()

	r := &run{id: uuid.NewString(), input: in}
	if in.RequestID == "" {
		r.input.RequestID = r.id
	}
	r.logger = logger.WithEvaluation(s.logger, r.id, r.input.RequestID)

	result, err := s.execute(ctx, r)
	s.observe(outcome(result, err), s.now().Sub(start))
	if err != nil {
		r.logger.Warn("evaluation failed", zap.Error(err))
		return nil, err
	}

	r.logger.Info("evaluation completed",
		zap.String("decision", result.FinalDecision.Decision),
		zap.Int("turns", len(r.input.Conversation)),
	)
	return result, nil
}

func (s *Service) execute(ctx context.Context, r *run) (*Result, error) {
	r.input.Conversation = spokenTurns(r.input.Conversation)
	if len(r.input.Conversation) == 0 {
		return nil, interview.ErrEmptyConversation
	}
	if strings.TrimSpace(r.input.Summary) == "" {
		return nil, interview.WrapError(interview.ErrInvalidInput, "validate summary", errors.New("summary must be a non-empty string"))
	}

	r.phone = r.input.PhoneNumber
	if s.notifier != nil && s.notifier.Enabled() {
		phone, err := s.notifier.Validate(r.input.PhoneNumber)
		if err != nil {
			return nil, err
		}
		r.phone = phone
	} else if strings.TrimSpace(r.input.PhoneNumber) != "" {
		r.logger.Info("phone number provided but sms is not configured")
	}

	if s.audit != nil {
		if err := s.audit.SaveInterview(ctx, r.id, r.input.Conversation); err != nil {
			r.logger.Error("failed to write interview audit record", zap.Error(err))
		}
	}

	if s.evaluator == nil {
		return nil, interview.WrapError(interview.ErrUpstream, "evaluate interview", errors.New("evaluation provider is not configured"))
	}

	raw, err := s.evaluator.Evaluate(ctx, r.input.Conversation, r.input.Summary)
	if err != nil {
		return nil, interview.WrapError(interview.ErrUpstream, "evaluate interview", err)
	}

	result, err := Validate(raw)
	if err != nil {
		return nil, err
	}

	notified := false
	if s.notifier != nil && s.notifier.Enabled() && r.phone != "" {
		s.notifier.Notify(ctx, result.FinalDecision.Decision, r.phone)
		notified = true
	}

	if s.publisher != nil {
		event := events.Decision{
			ID:              r.id,
			RequestID:       r.input.RequestID,
			Decision:        result.FinalDecision.Decision,
			Ratings:         result.FinalDecision.Ratings,
			ConfidenceScore: result.FinalDecision.ConfidenceScore,
			Summary:         r.input.Summary,
			Turns:           len(r.input.Conversation),
			Notified:        notified,
			OccurredAt:      s.now().UTC(),
		}
		if err := s.publisher.PublishDecision(ctx, event); err != nil {
			r.logger.Warn("failed to publish decision event", zap.Error(err))
		}
	}

	return result, nil
}

func (s *Service) observe(outcome string, d time.Duration) {
	if s.recorder != nil {
		s.recorder.ObserveEvaluation(outcome, d)
	}
}

func outcome(result *Result, err error) string {
	switch {
	case err == nil && result.Accepted():
		return "accepted"
	case err == nil:
		return "rejected"
	case interview.IsKind(err, interview.ErrInvalidInput):
		return "invalid_input"
	case interview.IsKind(err, interview.ErrUpstream):
		return "upstream_error"
	default:
		return "invalid_response"
	}
}

// spokenTurns drops turns with no text.
func spokenTurns(turns []interview.Turn) []interview.Turn {
	var out []interview.Turn
	for _, turn := range turns {
		if strings.TrimSpace(turn.Text) != "" {
			out = append(out, turn)
		}
	}
	return out
}
