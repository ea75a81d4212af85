package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/ai"
	"github.com/ishitcode/hire/internal/evaluation"
	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/store"
	"github.com/ishitcode/hire/internal/voice"
)

type stubEvaluator struct {
	input  evaluation.Input
	calls  int
	result *evaluation.Result
	err    error
}

func (s *stubEvaluator) Evaluate(_ context.Context, in evaluation.Input) (*evaluation.Result, error) {
	s.calls++
	s.input = in
	return s.result, s.err
}

type stubModel struct {
	calls int
}

func (s *stubModel) Evaluate(context.Context, []interview.Turn, string) (string, error) {
	s.calls++
	return `{"strengths":[],"areasForImprovement":[],"detailedFeedback":{},"finalDecision":{"decision":"Accepted"}}`, nil
}

type stubVoice struct {
	placed    voice.CallRequest
	statusFor string
	report    *interview.StatusReport
	artifact  *interview.CallArtifact
	recording string
	err       error
}

func (s *stubVoice) PlaceCall(_ context.Context, call voice.CallRequest) (*interview.StatusReport, error) {
	s.placed = call
	if s.err != nil {
		return nil, s.err
	}
	return &interview.StatusReport{CallID: "call-1", Status: interview.StatusInitiating}, nil
}

func (s *stubVoice) CallStatus(_ context.Context, callID string) (*interview.StatusReport, error) {
	s.statusFor = callID
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubVoice) Call(_ context.Context, callID string) (*interview.CallArtifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

func (s *stubVoice) OpenRecording(_ context.Context, filename string) (io.ReadCloser, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	s.recording = filename
	return io.NopCloser(strings.NewReader("RIFF-audio")), "audio/wav", nil
}

type stubAnalyzer struct {
	text, role string
}

func (s *stubAnalyzer) Analyze(_ context.Context, text, role string) (*ai.ResumeAnalysis, error) {
	s.text, s.role = text, role
	return &ai.ResumeAnalysis{Fit: true, Score: 82, Summary: "Solid backend profile"}, nil
}

type memResumes struct {
	saved  []store.ResumeRecord
	latest *store.ResumeRecord
}

func (m *memResumes) SaveResume(_ context.Context, r store.ResumeRecord) error {
	m.saved = append(m.saved, r)
	return nil
}

func (m *memResumes) LatestResume(context.Context) (*store.ResumeRecord, error) {
	if m.latest == nil {
		return nil, store.ErrNotFound
	}
	return m.latest, nil
}

func newTestServer(deps Dependencies) http.Handler {
	deps.Logger = zap.NewNop()
	return New(Config{}, deps).Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(Dependencies{}), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := decodeBody(t, rec)["status"]; got != "ok" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestFinalEvaluationTagsStringConversation(t *testing.T) {
	eval := &stubEvaluator{result: &evaluation.Result{
		Strengths:           []string{"Go"},
		AreasForImprovement: []string{},
		DetailedFeedback:    map[string]string{},
		FinalDecision:       evaluation.FinalDecision{Decision: "Accepted", Ratings: map[string]int{"Technical Skills": 4}},
		AdditionalInsights:  map[string]any{},
	}}
	h := newTestServer(Dependencies{Evaluator: eval})

	body := `{"conversation":["Interviewer: tell me about yourself","I build services in Go"],"summary":"Backend role","phoneNumber":"+15550001111"}`
	rec := do(t, h, http.MethodPost, "/api/finaleval", strings.NewReader(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	want := []interview.Turn{
		{Speaker: interview.SpeakerAI, Text: "Interviewer: tell me about yourself"},
		{Speaker: interview.SpeakerCandidate, Text: "I build services in Go"},
	}
	if len(eval.input.Conversation) != len(want) {
		t.Fatalf("unexpected conversation %+v", eval.input.Conversation)
	}
	for i := range want {
		if eval.input.Conversation[i] != want[i] {
			t.Fatalf("turn %d: expected %+v, got %+v", i, want[i], eval.input.Conversation[i])
		}
	}
	if eval.input.Summary != "Backend role" || eval.input.PhoneNumber != "+15550001111" {
		t.Fatalf("unexpected input %+v", eval.input)
	}
	if eval.input.RequestID == "" {
		t.Fatal("expected request id to be propagated")
	}

	out := decodeBody(t, rec)
	decision := out["finalDecision"].(map[string]any)["decision"]
	if decision != "Accepted" {
		t.Fatalf("unexpected decision %v", decision)
	}
}

func TestFinalEvaluationKeepsTurnObjects(t *testing.T) {
	eval := &stubEvaluator{result: &evaluation.Result{FinalDecision: evaluation.FinalDecision{Decision: "Rejected"}}}
	h := newTestServer(Dependencies{Evaluator: eval})

	body := `{"conversation":[{"speaker":"Candidate","text":"hello"},{"text":"how are you"}],"summary":"s"}`
	rec := do(t, h, http.MethodPost, "/api/finaleval", strings.NewReader(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	got := eval.input.Conversation
	if len(got) != 2 || got[0].Speaker != interview.SpeakerCandidate || got[1].Speaker != interview.SpeakerCandidate {
		t.Fatalf("unexpected conversation %+v", got)
	}
}

func TestFinalEvaluationRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "summary not a string", body: `{"conversation":["a"],"summary":42}`},
		{name: "missing summary", body: `{"conversation":["a"]}`},
		{name: "conversation not an array", body: `{"conversation":"a","summary":"s"}`},
		{name: "not json", body: `conversation=a`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &stubEvaluator{}
			rec := do(t, newTestServer(Dependencies{Evaluator: eval}), http.MethodPost, "/api/finaleval", strings.NewReader(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if eval.calls != 0 {
				t.Fatal("evaluator must not be called")
			}
			if msg, _ := decodeBody(t, rec)["message"].(string); !strings.HasPrefix(msg, "Invalid input") {
				t.Fatalf("unexpected message %q", msg)
			}
		})
	}
}

func TestFinalEvaluationBlankTurnsAreEmptyConversation(t *testing.T) {
	model := &stubModel{}
	svc := evaluation.NewService(model, zap.NewNop())
	h := newTestServer(Dependencies{Evaluator: svc})

	body := `{"conversation":[{"speaker":"AI_HR","text":"   "},{"speaker":"Candidate","text":""}],"summary":"s"}`
	rec := do(t, h, http.MethodPost, "/api/finaleval", strings.NewReader(body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if model.calls != 0 {
		t.Fatalf("model called %d times for a blank conversation", model.calls)
	}
	if _, ok := decodeBody(t, rec)["message"]; !ok {
		t.Fatalf("expected message in %s", rec.Body.String())
	}
}

func TestFinalEvaluationErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKey    string
	}{
		{
			name:       "invalid phone",
			err:        fmt.Errorf("%q: %w", "+0123", interview.ErrInvalidPhone),
			wantStatus: http.StatusBadRequest,
			wantKey:    "message",
		},
		{
			name:       "empty conversation",
			err:        interview.ErrEmptyConversation,
			wantStatus: http.StatusBadRequest,
			wantKey:    "message",
		},
		{
			name:       "upstream failure",
			err:        interview.WrapError(interview.ErrUpstream, "evaluate interview", errors.New("quota exceeded")),
			wantStatus: http.StatusInternalServerError,
			wantKey:    "error",
		},
		{
			name:       "malformed model output",
			err:        interview.ErrMalformedJSON,
			wantStatus: http.StatusInternalServerError,
			wantKey:    "error",
		},
		{
			name:       "temporary",
			err:        interview.WrapError(interview.ErrTemporary, "evaluate interview", errors.New("connection reset")),
			wantStatus: http.StatusServiceUnavailable,
			wantKey:    "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := &stubEvaluator{err: tt.err}
			body := `{"conversation":[{"speaker":"AI_HR","text":"hi"}],"summary":"s","phoneNumber":"+0123"}`
			rec := do(t, newTestServer(Dependencies{Evaluator: eval}), http.MethodPost, "/api/finaleval", strings.NewReader(body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}

			out := decodeBody(t, rec)
			if _, ok := out[tt.wantKey]; !ok {
				t.Fatalf("expected key %q in %v", tt.wantKey, out)
			}
			if tt.wantKey == "error" {
				if out["error"] != "Failed to process evaluation" {
					t.Fatalf("unexpected error field %v", out["error"])
				}
				if details, _ := out["details"].(string); details == "" {
					t.Fatal("expected details")
				}
			}
		})
	}
}

func TestInterviewTracksActiveCall(t *testing.T) {
	v := &stubVoice{report: &interview.StatusReport{CallID: "call-1", Status: interview.StatusInProgress}}
	h := newTestServer(Dependencies{Voice: v})

	rec := do(t, h, http.MethodGet, "/api/calls/status", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without active call, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/interview", strings.NewReader(`{"phoneNumber":" +15550001111 ","summary":"Go dev","jobRole":"Backend"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if v.placed.PhoneNumber != "+15550001111" || v.placed.JobRole != "Backend" {
		t.Fatalf("unexpected call request %+v", v.placed)
	}
	if out := decodeBody(t, rec); out["callId"] != "call-1" {
		t.Fatalf("unexpected response %v", out)
	}

	rec = do(t, h, http.MethodGet, "/api/calls/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if v.statusFor != "call-1" {
		t.Fatalf("expected active call to be polled, got %q", v.statusFor)
	}
	if out := decodeBody(t, rec); out["status"] != "in_progress" {
		t.Fatalf("unexpected status body %v", out)
	}

	do(t, h, http.MethodGet, "/api/calls/status?call_id=other", nil)
	if v.statusFor != "other" {
		t.Fatalf("expected explicit call id to win, got %q", v.statusFor)
	}
}

func TestCallArtifact(t *testing.T) {
	v := &stubVoice{artifact: &interview.CallArtifact{CallID: "call-1", RecordingFile: "rec.wav", RawTranscription: "hello"}}
	rec := do(t, newTestServer(Dependencies{Voice: v}), http.MethodGet, "/api/calls?call_id=call-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	out := decodeBody(t, rec)
	if out["recording_file"] != "rec.wav" || out["raw_transcription"] != "hello" {
		t.Fatalf("unexpected artifact %v", out)
	}
}

func TestVoiceErrorsMapToStatus(t *testing.T) {
	v := &stubVoice{err: interview.WrapError(interview.ErrTimeout, "call status", context.DeadlineExceeded)}
	rec := do(t, newTestServer(Dependencies{Voice: v}), http.MethodGet, "/api/calls/status?call_id=x", nil)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
}

func TestVoiceRoutesUnavailableWithoutProvider(t *testing.T) {
	h := newTestServer(Dependencies{})
	for _, target := range []string{"/api/calls/status", "/api/calls", "/api/recordings/a.wav"} {
		rec := do(t, h, http.MethodGet, target, nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", target, rec.Code)
		}
	}
}

func TestRecordingIsStreamed(t *testing.T) {
	v := &stubVoice{}
	rec := do(t, newTestServer(Dependencies{Voice: v}), http.MethodGet, "/api/recordings/call-1.wav", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if v.recording != "call-1.wav" {
		t.Fatalf("unexpected filename %q", v.recording)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.String() != "RIFF-audio" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestAnalyzeFallsBackToLatestResume(t *testing.T) {
	analyzer := &stubAnalyzer{}
	resumes := &memResumes{latest: &store.ResumeRecord{Filename: "cv.pdf", Text: "Go engineer, 6 years"}}
	h := newTestServer(Dependencies{Analyzer: analyzer, Resumes: resumes})

	rec := do(t, h, http.MethodPost, "/api/analyze", strings.NewReader(`{"jobRole":"Backend Engineer"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if analyzer.text != "Go engineer, 6 years" || analyzer.role != "Backend Engineer" {
		t.Fatalf("unexpected analyzer input %q %q", analyzer.text, analyzer.role)
	}
	out := decodeBody(t, rec)
	if out["fit"] != true || out["score"].(float64) != 82 {
		t.Fatalf("unexpected analysis %v", out)
	}
}

func TestAnalyzeWithoutResumeText(t *testing.T) {
	h := newTestServer(Dependencies{Analyzer: &stubAnalyzer{}, Resumes: &memResumes{}})
	rec := do(t, h, http.MethodPost, "/api/analyze", strings.NewReader(`{"jobRole":"Backend"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{name: "missing file", field: ""},
		{name: "not a pdf", field: "resume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resumes := &memResumes{}
			h := newTestServer(Dependencies{Resumes: resumes})

			body, contentType := multipartBody(t, tt.field, "cv.txt", []byte("plain text resume"))
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(resumes.saved) != 0 {
				t.Fatal("nothing should be stored")
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	h := New(Config{AllowedOrigins: []string{"http://localhost:4200"}}, Dependencies{Logger: zap.NewNop()}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4200" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin, got %q", got)
	}
}
