package voice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "voice provider status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("voice provider %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("voice provider %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if resilience.IsRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// wrapError maps provider failures onto interview error kinds: retryable
// failures become ErrTemporary, everything else ErrUpstream.
func wrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{interview.ErrInvalidInput, interview.ErrDataShape, interview.ErrTemporary, interview.ErrUpstream} {
		if interview.IsKind(err, kind) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return interview.WrapError(interview.ErrTimeout, "voice "+operation, err)
	}

	class := classifyError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return interview.WrapError(interview.ErrTemporary, "voice "+operation, err)
	}
	return interview.WrapError(interview.ErrUpstream, "voice "+operation, err)
}
