package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/ai"
	"github.com/ishitcode/hire/internal/evaluation"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/store"
	"github.com/ishitcode/hire/internal/voice"
)

// VoiceProvider places interview calls and exposes their artifacts.
type VoiceProvider interface {
	PlaceCall(ctx context.Context, call voice.CallRequest) (*interview.StatusReport, error)
	CallStatus(ctx context.Context, callID string) (*interview.StatusReport, error)
	Call(ctx context.Context, callID string) (*interview.CallArtifact, error)
	OpenRecording(ctx context.Context, filename string) (io.ReadCloser, string, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, in evaluation.Input) (*evaluation.Result, error)
}

type ResumeStore interface {
	SaveResume(ctx context.Context, resume store.ResumeRecord) error
	LatestResume(ctx context.Context) (*store.ResumeRecord, error)
}

// MetricsCollector exposes request instrumentation and the scrape endpoint.
type MetricsCollector interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// Dependencies are the collaborators of the HTTP handlers. Voice, Analyzer,
// Resumes and Metrics are optional; routes that need a missing collaborator
// answer 503.
type Dependencies struct {
	Evaluator Evaluator
	Analyzer  ai.Analyzer
	Voice     VoiceProvider
	Resumes   ResumeStore
	Builder   *interview.Builder
	Metrics   MetricsCollector
	Logger    *zap.Logger
}

type Config struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed-origins"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

const (
	defaultAddr            = ":4000"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 90 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return c
}

// Server serves the hire HTTP API.
type Server struct {
	cfg     Config
	deps    Dependencies
	logger  *zap.Logger
	calls   *callTracker
	now     func() time.Time
	handler http.Handler
}

func New(cfg Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Builder == nil {
		deps.Builder = interview.NewBuilder(nil, "")
	}

	s := &Server{
		cfg:    cfg.withDefaults(),
		deps:   deps,
		logger: deps.Logger,
		calls:  &callTracker{},
		now:    time.Now,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/interview", s.handleInterview)
		r.Get("/calls", s.handleCall)
		r.Get("/calls/status", s.handleCallStatus)
		r.Get("/recordings/{filename}", s.handleRecording)
		r.Post("/finaleval", s.handleFinalEvaluation)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.logger.Info("server stopped")
	return nil
}
