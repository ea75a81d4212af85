package utils

import (
	"context"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "plain", input: ` {"a":1} `, expect: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", expect: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```\n", expect: `{"a":1}`},
		{name: "unterminated fence", input: "```json\n{\"a\":1}", expect: `{"a":1}`},
		{name: "javascript fence", input: "```javascript\n{\"a\":1}\n```", expect: `{"a":1}`},
		{name: "jsonc fence", input: "```jsonc \r\n{\"a\":[1]}\n```", expect: `{"a":[1]}`},
		{name: "payload on fence line", input: "```{\"a\":1}```", expect: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractJSON(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestWaitFor(t *testing.T) {
	originalSleep := sleep
	defer func() { sleep = originalSleep }()

	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }

	if err := WaitFor(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != time.Second {
		t.Fatalf("expected to sleep for 1s, got %s", slept)
	}

	block := make(chan struct{})
	defer close(block)
	sleep = func(time.Duration) { <-block }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitFor(ctx, time.Minute); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("zero duration must return immediately, got %v", err)
	}
}
