package notify

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ishitcode/hire/internal/interview"
)

type stubSender struct {
	err   error
	calls []string
	body  string
}

func (s *stubSender) Send(_ context.Context, to, body string) (string, error) {
	s.calls = append(s.calls, to)
	s.body = body
	if s.err != nil {
		return "", s.err
	}
	return "SM123", nil
}

type statusRecorder struct {
	statuses []string
}

func (r *statusRecorder) ObserveNotification(status string) {
	r.statuses = append(r.statuses, status)
}

func TestDispatcherValidate(t *testing.T) {
	d := NewDispatcher(&stubSender{}, zap.NewNop(), nil)

	phone, err := d.Validate("+1 234 567 8900")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phone != "+12345678900" {
		t.Fatalf("unexpected normalized phone: %q", phone)
	}

	_, err = d.Validate("1 234 567 8900")
	if !errors.Is(err, interview.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
	if !interview.IsKind(err, interview.ErrInvalidInput) {
		t.Fatalf("invalid phone must be an invalid input error")
	}

	phone, err = d.Validate("   ")
	if err != nil || phone != "" {
		t.Fatalf("blank phone must be accepted as empty, got %q, %v", phone, err)
	}
}

func TestDispatcherUnconfiguredSkipsValidation(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)

	if d.Enabled() {
		t.Fatalf("dispatcher without sender must be disabled")
	}

	phone, err := d.Validate("not a phone")
	if err != nil || phone != "" {
		t.Fatalf("expected no validation when unconfigured, got %q, %v", phone, err)
	}

	// Must not panic.
	d.Notify(context.Background(), "Accepted", "+12345678900")
}

func TestDispatcherNotifySendsDecision(t *testing.T) {
	sender := &stubSender{}
	recorder := &statusRecorder{}
	d := NewDispatcher(sender, zap.NewNop(), recorder)

	d.Notify(context.Background(), "Accepted", "+1 234-567-8900")

	if len(sender.calls) != 1 || sender.calls[0] != "+12345678900" {
		t.Fatalf("unexpected send calls: %v", sender.calls)
	}
	if sender.body != "Interview Decision: Accepted" {
		t.Fatalf("unexpected sms body: %q", sender.body)
	}
	if len(recorder.statuses) != 1 || recorder.statuses[0] != "sent" {
		t.Fatalf("unexpected recorded statuses: %v", recorder.statuses)
	}
}

func TestDispatcherNotifySwallowsProviderErrors(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sender := &stubSender{err: errors.New("twilio down")}
	recorder := &statusRecorder{}
	d := NewDispatcher(sender, zap.New(core), recorder)

	d.Notify(context.Background(), "Rejected", "+12345678900")

	entries := observed.FilterMessage("failed to send sms notification").All()
	if len(entries) != 1 {
		t.Fatalf("expected provider error to be logged once, got %d", len(entries))
	}
	if len(recorder.statuses) != 1 || recorder.statuses[0] != "error" {
		t.Fatalf("unexpected recorded statuses: %v", recorder.statuses)
	}
}

func TestDispatcherNotifySkipsBlankPhone(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(sender, zap.NewNop(), nil)

	d.Notify(context.Background(), "Accepted", "  ")

	if len(sender.calls) != 0 {
		t.Fatalf("expected no send for blank phone, got %v", sender.calls)
	}
}
