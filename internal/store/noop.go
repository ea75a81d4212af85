package store

import (
	"context"

	"github.com/ishitcode/hire/internal/interview"
)

// NoopStore discards everything.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveInterview(context.Context, string, []interview.Turn) error { return nil }
func (s *NoopStore) SaveResume(context.Context, ResumeRecord) error                { return nil }
func (s *NoopStore) LatestResume(context.Context) (*ResumeRecord, error)           { return nil, ErrNotFound }
func (s *NoopStore) Close() error                                                  { return nil }
