package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

// Process fetches the finished call, normalizes its transcript and submits it
// for evaluation. A missing transcript is fatal; call Retry to run it again.
func (s *Session) Process(ctx context.Context) error {
	s.processMu.Lock()
	defer s.processMu.Unlock()

	if s.isClosed() {
		return ErrClosed
	}

	s.update(func(st *State) {
		st.Processing = ProcessingDownloading
		st.Error = ""
		st.Result = nil
	})

	artifact, err := s.api.Call(ctx, s.callID())
	if err == nil && artifact == nil {
		err = interview.ErrNoResponse
	}
	if err != nil {
		return s.fail(ctx, "fetch call data", err)
	}

	turns, transcript := interview.NormalizeArtifact(artifact)
	s.update(func(st *State) {
		st.Processing = ProcessingTranscribing
		st.RecordingFile = artifact.RecordingFile
		st.AudioURL = ""
		if artifact.RecordingFile != "" && !s.closed {
			st.AudioURL = s.api.RecordingURL(artifact.RecordingFile)
		}
		st.Conversation = turns
		st.Transcript = transcript
	})

	if strings.TrimSpace(transcript) == "" {
		return s.fail(ctx, "read transcript", interview.ErrNoTranscript)
	}

	req, err := s.builder.Build(transcript, s.cfg.Summary, s.cfg.PhoneNumber)
	if err != nil {
		return s.fail(ctx, "build evaluation request", err)
	}

	s.update(func(st *State) { st.Processing = ProcessingEvaluating })
	s.logger.Info("submitting interview for evaluation", zap.Int("turns", len(req.Conversation)))

	result, err := s.api.Evaluate(ctx, req)
	if err != nil {
		return s.fail(ctx, "evaluate interview", err)
	}

	s.update(func(st *State) {
		st.Processing = ProcessingDone
		st.Result = result
	})
	s.logger.Info("interview evaluated", zap.String("decision", result.FinalDecision.Decision))
	return nil
}

// Retry re-runs processing after a failure.
func (s *Session) Retry(ctx context.Context) error {
	s.logger.Info("retrying interview processing")
	return s.Process(ctx)
}

func (s *Session) fail(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.update(func(st *State) {
			st.Processing = ProcessingError
			st.Error = "session stopped"
		})
		return ctxErr
	}

	s.update(func(st *State) {
		st.Processing = ProcessingError
		st.Error = err.Error()
	})
	return interview.WrapError(errKind(err), operation, err)
}

func errKind(err error) error {
	for _, kind := range []error{
		interview.ErrInvalidInput,
		interview.ErrDataShape,
		interview.ErrTemporary,
		interview.ErrTimeout,
	} {
		if interview.IsKind(err, kind) {
			return kind
		}
	}
	return interview.ErrUpstream
}
