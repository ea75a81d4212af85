package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/evaluation"
	"github.com/ishitcode/hire/internal/interview"
)

const (
	defaultTimeout = 90 * time.Second
	maxErrorBody   = 1024
	userAgent      = "ishitcode/hire"
)

// Client talks to a running hire server.
type Client struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("api base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    base,
		logger:     logger,
		HTTPClient: &http.Client{Timeout: timeout},
	}, nil
}

// StatusError is a non-2xx answer of the server.
type StatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server returned %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Operation, e.StatusCode, e.Message)
}

type placeCallRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Summary     string `json:"summary,omitempty"`
	JobRole     string `json:"jobRole,omitempty"`
}

type placeCallResponse struct {
	CallID string               `json:"callId"`
	Status interview.CallStatus `json:"status"`
}

func (c *Client) PlaceCall(ctx context.Context, phoneNumber, summary, jobRole string) (*interview.StatusReport, error) {
	var resp placeCallResponse
	err := c.do(ctx, "place call", http.MethodPost, "/api/interview", placeCallRequest{
		PhoneNumber: phoneNumber,
		Summary:     summary,
		JobRole:     jobRole,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &interview.StatusReport{CallID: resp.CallID, Status: resp.Status}, nil
}

// CallStatus polls the status of a call. An empty id asks for the server's
// active call.
func (c *Client) CallStatus(ctx context.Context, callID string) (*interview.StatusReport, error) {
	var report interview.StatusReport
	if err := c.do(ctx, "call status", http.MethodGet, withCallID("/api/calls/status", callID), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Call fetches the artifacts of a finished call. A null payload yields
// interview.ErrNoResponse.
func (c *Client) Call(ctx context.Context, callID string) (*interview.CallArtifact, error) {
	var artifact *interview.CallArtifact
	if err := c.do(ctx, "call data", http.MethodGet, withCallID("/api/calls", callID), nil, &artifact); err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, interview.ErrNoResponse
	}
	return artifact, nil
}

func (c *Client) Evaluate(ctx context.Context, req *interview.EvaluationRequest) (*evaluation.Result, error) {
	if req == nil {
		return nil, interview.WrapError(interview.ErrInvalidInput, "evaluate", errors.New("request is nil"))
	}

	var result evaluation.Result
	if err := c.do(ctx, "evaluate", http.MethodPost, "/api/finaleval", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecordingURL is the server address of a call recording.
func (c *Client) RecordingURL(filename string) string {
	return c.baseURL + "/api/recordings/" + url.PathEscape(filename)
}

// DownloadRecording copies a recording into w and returns the number of bytes written.
func (c *Client) DownloadRecording(ctx context.Context, filename string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RecordingURL(filename), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.send(req)
	if err != nil {
		return 0, wrapTransport("download recording", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError("download recording", resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, interview.WrapError(interview.ErrTemporary, "download recording", err)
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return wrapTransport(operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(operation, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return interview.WrapError(interview.ErrTemporary, operation, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return interview.WrapError(interview.ErrDataShape, "decode "+operation+" response", err)
	}
	return nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func withCallID(path, callID string) string {
	if callID = strings.TrimSpace(callID); callID == "" {
		return path
	}
	return path + "?call_id=" + url.QueryEscape(callID)
}

func wrapTransport(operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return interview.WrapError(interview.ErrTimeout, operation, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return interview.WrapError(interview.ErrTimeout, operation, err)
	}
	return interview.WrapError(interview.ErrTemporary, operation, err)
}

// statusError reads the {message} or {error, details} body of a failed call
// and maps the status code onto an error kind.
func statusError(operation string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	message := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Message != "":
			message = body.Message
		case body.Error != "" && body.Details != "":
			message = body.Error + ": " + body.Details
		case body.Error != "":
			message = body.Error
		}
	}

	statusErr := &StatusError{Operation: operation, StatusCode: resp.StatusCode, Message: message}

	var kind error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		kind = interview.ErrInvalidInput
	case resp.StatusCode == http.StatusGatewayTimeout:
		kind = interview.ErrTimeout
	case resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusBadGateway:
		kind = interview.ErrTemporary
	default:
		kind = interview.ErrUpstream
	}
	return fmt.Errorf("%w: %w", statusErr, kind)
}
