package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Recorder observes notification outcomes.
type Recorder interface {
	ObserveNotification(status string)
}

// Dispatcher sends the final interview decision to the candidate. It never
// fails the caller: delivery problems are logged and dropped.
type Dispatcher struct {
	sender   Sender
	logger   *zap.Logger
	recorder Recorder
}

// NewDispatcher creates a dispatcher. A nil sender yields an unconfigured
// dispatcher that validates nothing and sends nothing.
func NewDispatcher(sender Sender, logger *zap.Logger, recorder Recorder) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sender: sender, logger: logger, recorder: recorder}
}

func (d *Dispatcher) Enabled() bool {
	return d != nil && d.sender != nil
}

// Validate returns the normalized phone number. Blank numbers and unconfigured
// dispatchers return an empty string without error.
func (d *Dispatcher) Validate(phone string) (string, error) {
	if !d.Enabled() || strings.TrimSpace(phone) == "" {
		return "", nil
	}

	cleaned := NormalizePhone(phone)
	if !ValidateE164(cleaned) {
		d.logger.Info("phone number format validation failed",
			zap.String("original", phone),
			zap.String("cleaned", cleaned),
		)
		return "", fmt.Errorf("%q: %w", cleaned, interview.ErrInvalidPhone)
	}

	return cleaned, nil
}

// Notify sends the decision by SMS on a best-effort basis.
func (d *Dispatcher) Notify(ctx context.Context, decision, phone string) {
	if !d.Enabled() {
		return
	}

	if strings.TrimSpace(phone) == "" {
		d.logger.Debug("no phone number provided, skipping sms notification")
		return
	}

	to := NormalizePhone(phone)
	if !ValidateE164(to) {
		d.logger.Warn("skipping sms notification", zap.String("reason", "invalid phone number"), zap.String("to", to))
		d.observe("skipped")
		return
	}

	sid, err := d.sender.Send(ctx, to, fmt.Sprintf("Interview Decision: %s", decision))
	if err != nil {
		d.logger.Error("failed to send sms notification", zap.String("to", to), zap.Error(err))
		d.observe("error")
		return
	}

	d.logger.Info("sms notification sent", zap.String("to", to), zap.String("sid", sid))
	d.observe("sent")
}

func (d *Dispatcher) observe(status string) {
	if d.recorder != nil {
		d.recorder.ObserveNotification(status)
	}
}
