package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/evaluation"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/logger"
)

const (
	DefaultInterval   = 5 * time.Second
	DefaultMaxRetries = 30

	MessageCallFailed  = "Call failed to connect"
	MessageCallTimeout = "Call initialization timed out. Please try again."
	MessageCheckFailed = "Failed to check call status. Please try again."
)

// ProcessingState tracks the post-call pipeline.
type ProcessingState string

const (
	ProcessingIdle         ProcessingState = ""
	ProcessingDownloading  ProcessingState = "downloading"
	ProcessingTranscribing ProcessingState = "transcribing"
	ProcessingEvaluating   ProcessingState = "evaluating"
	ProcessingDone         ProcessingState = "done"
	ProcessingError        ProcessingState = "error"
)

// API is the subset of the hire server used by a session.
type API interface {
	CallStatus(ctx context.Context, callID string) (*interview.StatusReport, error)
	Call(ctx context.Context, callID string) (*interview.CallArtifact, error)
	Evaluate(ctx context.Context, req *interview.EvaluationRequest) (*evaluation.Result, error)
	RecordingURL(filename string) string
}

type Config struct {
	// CallID selects the call to follow. Empty follows the server's active call.
	CallID         string        `mapstructure:"call-id"`
	Interval       time.Duration `mapstructure:"interval"`
	MaxRetries     int           `mapstructure:"max-retries"`
	Summary        string        `mapstructure:"summary"`
	DefaultSummary string        `mapstructure:"default-summary"`
	PhoneNumber    string        `mapstructure:"phone-number"`
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	return c
}

// State is the observable state of a session.
type State struct {
	Status        interview.CallStatus
	RetryCount    int
	Error         string
	Processing    ProcessingState
	RecordingFile string
	AudioURL      string
	Transcript    string
	Conversation  []interview.Turn
	Result        *evaluation.Result
}

type Option func(*Session)

// WithBuilder replaces the request builder, e.g. to plug in another speaker tagger.
func WithBuilder(b *interview.Builder) Option {
	return func(s *Session) { s.builder = b }
}

// WithObserver registers a callback invoked with a snapshot after every state change.
func WithObserver(fn func(State)) Option {
	return func(s *Session) { s.observer = fn }
}

// ErrClosed is returned by Process and Retry once the session is closed.
var ErrClosed = errors.New("session closed")

// Session follows one interview call from placement to evaluation.
type Session struct {
	api      API
	builder  *interview.Builder
	cfg      Config
	logger   *zap.Logger
	observer func(State)

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	closed bool

	// processMu keeps Process and Retry from overlapping.
	processMu sync.Mutex
}

func New(api API, cfg Config, log *zap.Logger, opts ...Option) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	s := &Session{
		api:    api,
		cfg:    cfg,
		logger: logger.WithCall(log, cfg.CallID),
		state:  State{Status: interview.StatusInitiating},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = interview.NewBuilder(nil, cfg.DefaultSummary)
	}

	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	st := s.state
	if s.state.Conversation != nil {
		st.Conversation = append([]interview.Turn(nil), s.state.Conversation...)
	}
	return st
}

// Done is closed once the polling loop and any processing it started have
// finished. It is closed immediately when Monitor was never called.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

// Close stops polling, waits for the loop to exit and releases the recording
// reference. Process and Retry return ErrClosed afterwards. It is safe to call
// more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stop()

	s.mu.Lock()
	s.state.AudioURL = ""
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if s.observer != nil {
		s.observer(snapshot)
	}
}

func (s *Session) callID() string {
	return strings.TrimSpace(s.cfg.CallID)
}
