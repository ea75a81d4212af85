package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

type step int

const (
	stepContinue step = iota
	stepStop
	stepProcess
)

// Monitor resets the session and starts polling the call status: once
// immediately, then every Interval. A loop started by an earlier Monitor call
// is stopped first.
func (s *Session) Monitor(ctx context.Context) {
	if s.isClosed() {
		return
	}
	s.stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.update(func(st *State) {
		*st = State{Status: interview.StatusInitiating}
	})

	s.logger.Info("monitoring call status",
		zap.String("call_id", s.callID()),
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("max_retries", s.cfg.MaxRetries),
	)

	go s.loop(loopCtx, done)
}

func (s *Session) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		switch s.check(ctx) {
		case stepProcess:
			if err := s.Process(ctx); err != nil {
				s.logger.Warn("interview processing failed", zap.Error(err))
			}
			return
		case stepStop:
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// check performs one status request and applies its outcome.
func (s *Session) check(ctx context.Context) step {
	report, err := s.api.CallStatus(ctx, s.callID())
	if ctx.Err() != nil {
		return stepStop
	}
	if err == nil && report == nil {
		err = interview.ErrNoResponse
	}

	var next step
	s.update(func(st *State) {
		st.RetryCount++

		if err != nil {
			s.logger.Warn("call status check failed", zap.Int("retry", st.RetryCount), zap.Error(err))
			if st.RetryCount >= s.cfg.MaxRetries {
				st.Status = interview.StatusFailed
				st.Error = MessageCheckFailed
				next = stepStop
			}
			return
		}

		s.logger.Debug("call status", zap.String("status", string(report.Status)), zap.Int("retry", st.RetryCount))

		switch report.Status {
		case interview.StatusCompleted:
			st.Status = interview.StatusCompleted
			next = stepProcess
			return
		case interview.StatusFailed:
			st.Status = interview.StatusFailed
			st.Error = report.Error
			if st.Error == "" {
				st.Error = MessageCallFailed
			}
			next = stepStop
			return
		case interview.StatusInProgress:
			st.Status = interview.StatusInProgress
		}

		if st.RetryCount >= s.cfg.MaxRetries {
			st.Status = interview.StatusFailed
			st.Error = MessageCallTimeout
			next = stepStop
		}
	})

	switch next {
	case stepProcess:
		s.logger.Info("call completed")
	case stepStop:
		st := s.Snapshot()
		s.logger.Warn("call monitoring stopped", zap.String("status", string(st.Status)), zap.String("error", st.Error))
	}
	return next
}
