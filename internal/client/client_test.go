package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ishitcode/hire/internal/interview"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 0, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("  ", 0, nil); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestCallStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/calls/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("call_id"); got != "call 1" {
			t.Errorf("unexpected call id %q", got)
		}
		_, _ = w.Write([]byte(`{"status":"failed","error":"busy"}`))
	})

	report, err := c.CallStatus(context.Background(), "call 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != interview.StatusFailed || report.Error != "busy" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCallNullPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	_, err := c.Call(context.Background(), "")
	if !errors.Is(err, interview.ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
}

func TestCallDecodesArtifact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recording_file":"a.wav","structured_conversation":{"conversation":[{"speaker":"AI_HR","text":"hi"}]}}`))
	})

	artifact, err := c.Call(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artifact.RecordingFile != "a.wav" || len(artifact.StructuredConversation.Conversation) != 1 {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
}

func TestEvaluate(t *testing.T) {
	var got interview.EvaluationRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/finaleval" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"strengths":["Go"],"areasForImprovement":[],"detailedFeedback":{},"finalDecision":{"decision":"Accepted","ratings":{"Technical Skills":5},"confidenceScore":"High"},"additionalInsights":{}}`))
	})

	req := &interview.EvaluationRequest{
		Conversation: []interview.Turn{{Speaker: interview.SpeakerAI, Text: "hi"}},
		Summary:      "Backend",
		PhoneNumber:  "+15550001111",
	}
	result, err := c.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Accepted() || result.FinalDecision.Ratings["Technical Skills"] != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got.Summary != "Backend" || got.PhoneNumber != "+15550001111" || len(got.Conversation) != 1 {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestStatusErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"message":"Invalid phone number format"}`, kind: interview.ErrInvalidInput, message: "Invalid phone number format"},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"Failed to process evaluation","details":"bad json"}`, kind: interview.ErrUpstream, message: "Failed to process evaluation: bad json"},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `{"error":"down"}`, kind: interview.ErrTemporary, message: "down"},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, body: ``, kind: interview.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CallStatus(context.Background(), "")
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected kind %v, got %v", tt.kind, err)
			}

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %T", err)
			}
			if statusErr.StatusCode != tt.status || statusErr.Message != tt.message {
				t.Fatalf("unexpected status error %+v", statusErr)
			}
		})
	}
}

func TestTransportFailureIsTemporary(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, 0, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.CallStatus(context.Background(), "")
	if !errors.Is(err, interview.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestDownloadRecording(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recordings/call-1.wav" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("audio-bytes"))
	})

	var buf bytes.Buffer
	n, err := c.DownloadRecording(context.Background(), "call-1.wav", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(len("audio-bytes")) || buf.String() != "audio-bytes" {
		t.Fatalf("unexpected download %d %q", n, buf.String())
	}

	if _, err := c.DownloadRecording(context.Background(), "missing.wav", &buf); !errors.Is(err, interview.ErrUpstream) {
		t.Fatalf("expected upstream error for missing recording, got %v", err)
	}
}

func TestRecordingURL(t *testing.T) {
	c, _ := New("http://localhost:4000/", 0, nil)
	if got := c.RecordingURL("call 1.wav"); got != "http://localhost:4000/api/recordings/call%201.wav" {
		t.Fatalf("unexpected url %q", got)
	}
}
