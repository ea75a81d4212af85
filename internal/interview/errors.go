package interview

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the pipeline wraps exactly one of them.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDataShape    = errors.New("unexpected data shape")
	ErrTemporary    = errors.New("temporary failure")
	ErrTimeout      = errors.New("timed out")
	ErrUpstream     = errors.New("upstream provider failure")
)

var (
	ErrNoResponse        = fmt.Errorf("no response data received: %w", ErrDataShape)
	ErrNoTranscript      = fmt.Errorf("no transcript found in response structure: %w", ErrDataShape)
	ErrEmptyConversation = fmt.Errorf("conversation is empty: %w", ErrInvalidInput)
	ErrMalformedJSON     = fmt.Errorf("malformed json: %w", ErrDataShape)
	ErrMissingField      = fmt.Errorf("missing required field: %w", ErrDataShape)
	ErrInvalidRating     = fmt.Errorf("rating is not numeric: %w", ErrDataShape)
	ErrInvalidDecision   = fmt.Errorf("decision must be Accepted or Rejected: %w", ErrDataShape)
	ErrInvalidPhone      = fmt.Errorf("invalid phone number format, must be in E.164 format (e.g., +1234567890): %w", ErrInvalidInput)
)

// WrapError preserves the error kind with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
