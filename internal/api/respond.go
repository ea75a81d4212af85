package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errNotConfigured = errors.New("not configured")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps an error kind to the HTTP status returned to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotConfigured):
		return http.StatusServiceUnavailable
	case interview.IsKind(err, interview.ErrInvalidInput):
		return http.StatusBadRequest
	case interview.IsKind(err, interview.ErrTemporary):
		return http.StatusServiceUnavailable
	case interview.IsKind(err, interview.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers client errors with {message} and everything else with
// {error, details}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	status := statusFor(err)
	if status == http.StatusBadRequest {
		writeJSON(w, status, messageResponse{Message: clientMessage(err)})
		return
	}

	s.requestLogger(r).Error(summary, zap.Error(err), zap.Int("status", status))
	writeJSON(w, status, errorResponse{Error: summary, Details: err.Error()})
}

// clientMessage replaces wrapped errors that have a fixed client wording.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, interview.ErrInvalidPhone):
		return "Invalid phone number format. Must be in E.164 format (e.g., +1234567890)"
	case errors.Is(err, interview.ErrEmptyConversation):
		return "Invalid input. 'conversation' must be a non-empty array."
	}
	return err.Error()
}
