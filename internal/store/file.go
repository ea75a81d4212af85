package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

const (
	defaultDir     = "data"
	interviewsFile = "interviews.json"
	resumeFile     = "pdfText.json"
)

// FileStore keeps audit records as JSON files in a directory. Writes are
// serialized within the process only.
type FileStore struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		dir = defaultDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

// SaveInterview appends the conversation to interviews.json. A corrupt file is
// replaced rather than failing the write.
func (s *FileStore) SaveInterview(ctx context.Context, id string, conversation []interview.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, interviewsFile)

	var records []InterviewRecord
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			s.logger.Warn("failed to parse existing interviews file, overwriting", zap.String("path", path), zap.Error(err))
			records = nil
		}
	}

	records = append(records, InterviewRecord{
		ID:           id,
		Conversation: conversation,
		CreatedAt:    s.now().UTC(),
	})

	return writeJSON(path, records)
}

func (s *FileStore) SaveResume(ctx context.Context, resume ResumeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(filepath.Join(s.dir, resumeFile), resume)
}

func (s *FileStore) LatestResume(ctx context.Context) (*ResumeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, resumeFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var resume ResumeRecord
	if err := json.Unmarshal(data, &resume); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &resume, nil
}

func (s *FileStore) Close() error { return nil }

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
