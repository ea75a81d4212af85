package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/evaluation"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/logger"
	"github.com/ishitcode/hire/internal/resume"
	"github.com/ishitcode/hire/internal/store"
	"github.com/ishitcode/hire/internal/voice"
)

const maxJSONBody = 2 << 20

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logger.WithRequest(s.logger, chimiddleware.GetReqID(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type uploadResponse struct {
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxSize+(1<<20))
	if err := r.ParseMultipartForm(resume.MaxSize); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "No file uploaded"})
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "No file uploaded"})
		return
	}
	defer file.Close()

	log := s.requestLogger(r).With(zap.String("filename", header.Filename))
	log.Info("resume received", zap.Int64("size", header.Size))

	text, err := resume.ExtractText(file)
	if err != nil {
		s.writeError(w, r, "Error processing PDF", err)
		return
	}

	record := store.ResumeRecord{
		Filename:   header.Filename,
		Text:       text,
		UploadedAt: s.now().UTC(),
	}
	if s.deps.Resumes != nil {
		if err := s.deps.Resumes.SaveResume(r.Context(), record); err != nil {
			s.writeError(w, r, "Failed to save text to file", err)
			return
		}
	}

	log.Info("resume text extracted", zap.Int("chars", len(text)))
	writeJSON(w, http.StatusOK, uploadResponse{Filename: record.Filename, Text: record.Text, UploadedAt: record.UploadedAt})
}

type analyzeRequest struct {
	Text    string `json:"text"`
	JobRole string `json:"jobRole"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.deps.Analyzer == nil {
		s.writeError(w, r, "Resume analysis unavailable", fmt.Errorf("analyzer: %w", errNotConfigured))
		return
	}

	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid input. Expected JSON with 'text' and 'jobRole'."})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && s.deps.Resumes != nil {
		latest, err := s.deps.Resumes.LatestResume(r.Context())
		switch {
		case err == nil:
			text = latest.Text
		case !errors.Is(err, store.ErrNotFound):
			s.writeError(w, r, "Failed to load resume", err)
			return
		}
	}
	if text == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "No resume text provided"})
		return
	}

	analysis, err := s.deps.Analyzer.Analyze(r.Context(), text, req.JobRole)
	if err != nil {
		s.writeError(w, r, "Failed to analyze resume", interview.WrapError(interview.ErrUpstream, "analyze resume", err))
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

type interviewRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Summary     string `json:"summary"`
	JobRole     string `json:"jobRole"`
}

type interviewResponse struct {
	CallID string               `json:"callId"`
	Status interview.CallStatus `json:"status"`
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Voice == nil {
		s.writeError(w, r, "Interview calls unavailable", fmt.Errorf("voice provider: %w", errNotConfigured))
		return
	}

	var req interviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid input. Expected JSON with 'phoneNumber'."})
		return
	}

	report, err := s.deps.Voice.PlaceCall(r.Context(), voice.CallRequest{
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Summary:     req.Summary,
		JobRole:     req.JobRole,
	})
	if err != nil {
		s.writeError(w, r, "Failed to start interview call", err)
		return
	}

	s.calls.set(report.CallID)
	s.requestLogger(r).Info("interview call placed", zap.String("call_id", report.CallID), zap.String("status", string(report.Status)))

	writeJSON(w, http.StatusOK, interviewResponse{CallID: report.CallID, Status: report.Status})
}

func (s *Server) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	callID, ok := s.resolveCall(w, r)
	if !ok {
		return
	}

	report, err := s.deps.Voice.CallStatus(r.Context(), callID)
	if err != nil {
		s.writeError(w, r, "Failed to check call status", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	callID, ok := s.resolveCall(w, r)
	if !ok {
		return
	}

	artifact, err := s.deps.Voice.Call(r.Context(), callID)
	if err != nil {
		s.writeError(w, r, "Failed to fetch call data", err)
		return
	}

	writeJSON(w, http.StatusOK, artifact)
}

// resolveCall writes the error response itself when no call can be resolved.
func (s *Server) resolveCall(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.deps.Voice == nil {
		s.writeError(w, r, "Interview calls unavailable", fmt.Errorf("voice provider: %w", errNotConfigured))
		return "", false
	}

	callID := s.calls.resolve(r.URL.Query().Get("call_id"))
	if callID == "" {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "No active call"})
		return "", false
	}
	return callID, true
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	if s.deps.Voice == nil {
		s.writeError(w, r, "Recordings unavailable", fmt.Errorf("voice provider: %w", errNotConfigured))
		return
	}

	body, contentType, err := s.deps.Voice.OpenRecording(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		s.writeError(w, r, "Failed to fetch recording", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.requestLogger(r).Warn("recording stream interrupted", zap.Error(err))
	}
}

func (s *Server) handleFinalEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.deps.Evaluator == nil {
		s.writeError(w, r, "Failed to process evaluation", fmt.Errorf("evaluator: %w", errNotConfigured))
		return
	}

	req, err := decodeEvaluationRequest(r, s.deps.Builder)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{
			Message: "Invalid input. 'conversation' must be an array and 'summary' must be a string.",
		})
		return
	}

	result, err := s.deps.Evaluator.Evaluate(r.Context(), evaluation.Input{
		RequestID:    chimiddleware.GetReqID(r.Context()),
		Conversation: req.Conversation,
		Summary:      req.Summary,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		s.writeError(w, r, "Failed to process evaluation", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	return dec.Decode(target)
}
