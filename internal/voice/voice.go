package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/resilience"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "ishitcode/hire"
)

type Config struct {
	BaseURL    string            `mapstructure:"base-url"`
	APIKey     string            `mapstructure:"api-key"`
	APIKeyFile string            `mapstructure:"api-key-file"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Resilience resilience.Config `mapstructure:"resilience"`
}

type executor interface {
	Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier resilience.ErrorClassifier) error
}

// Client talks to the voice agent provider that places and records interview calls.
type Client struct {
	baseURL    string
	apiKey     string
	logger     *zap.Logger
	executor   executor
	HTTPClient *http.Client
	UserAgent  string
}

// CallRequest asks the provider to phone a candidate.
type CallRequest struct {
	PhoneNumber string `json:"phone_number"`
	Summary     string `json:"summary,omitempty"`
	JobRole     string `json:"job_role,omitempty"`
}

func New(cfg Config, exec executor, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("voice provider base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse voice provider base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:  base,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		logger:   logger,
		executor: exec,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
	}, nil
}

// PlaceCall starts an outbound interview call.
func (c *Client) PlaceCall(ctx context.Context, call CallRequest) (*interview.StatusReport, error) {
	if strings.TrimSpace(call.PhoneNumber) == "" {
		return nil, interview.WrapError(interview.ErrInvalidInput, "place call", errors.New("phone number is required"))
	}

	var payload providerCall
	err := c.do(ctx, "place call", func(ctx context.Context) error {
		return c.postJSON(ctx, "place call", c.baseURL+"/v1/calls", call, &payload)
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(payload.CallID) == "" {
		return nil, interview.WrapError(interview.ErrDataShape, "place call", errors.New("provider returned no call id"))
	}

	return payload.report(), nil
}

// CallStatus returns the normalized status of a call.
func (c *Client) CallStatus(ctx context.Context, callID string) (*interview.StatusReport, error) {
	if err := requireCallID(callID); err != nil {
		return nil, err
	}

	var payload providerCall
	err := c.do(ctx, "call status", func(ctx context.Context) error {
		return c.getJSON(ctx, "call status", c.callURL(callID), &payload)
	})
	if err != nil {
		return nil, err
	}

	report := payload.report()
	if report.CallID == "" {
		report.CallID = callID
	}
	return report, nil
}

// Call returns the artifacts of a finished call.
func (c *Client) Call(ctx context.Context, callID string) (*interview.CallArtifact, error) {
	if err := requireCallID(callID); err != nil {
		return nil, err
	}

	var payload map[string]any
	err := c.do(ctx, "call artifact", func(ctx context.Context) error {
		payload = nil
		return c.getJSON(ctx, "call artifact", c.callURL(callID), &payload)
	})
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, interview.ErrNoResponse
	}

	artifact, err := decodeArtifact(payload)
	if err != nil {
		return nil, interview.WrapError(interview.ErrDataShape, "decode call artifact", err)
	}
	if artifact.CallID == "" {
		artifact.CallID = callID
	}
	return artifact, nil
}

// OpenRecording streams a call recording. The caller closes the body.
func (c *Client) OpenRecording(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		return nil, "", interview.WrapError(interview.ErrInvalidInput, "open recording", fmt.Errorf("invalid recording name %q", filename))
	}

	var resp *http.Response
	err := c.do(ctx, "recording", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/recordings/"+url.PathEscape(filename), nil)
		if err != nil {
			return err
		}
		c.setHeaders(req)

		r, err := c.request(req)
		if err != nil {
			return err
		}
		if r.StatusCode != http.StatusOK {
			defer r.Body.Close()
			return newStatusError("recording", r)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return resp.Body, contentType, nil
}

func (c *Client) callURL(callID string) string {
	return c.baseURL + "/v1/calls/" + url.PathEscape(strings.TrimSpace(callID))
}

// do runs fn through the resilience executor and maps the outcome onto the
// interview error kinds.
func (c *Client) do(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "voice "+operation, fn, classifyError)
	} else {
		err = fn(ctx)
	}
	return wrapError(operation, err)
}

func requireCallID(callID string) error {
	if strings.TrimSpace(callID) == "" {
		return interview.WrapError(interview.ErrInvalidInput, "call lookup", errors.New("call id is required"))
	}
	return nil
}
