package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

var ErrNotFound = errors.New("record not found")

// InterviewRecord is the audit copy of a conversation submitted for evaluation.
type InterviewRecord struct {
	ID           string           `json:"id" dynamodbav:"ID"`
	Conversation []interview.Turn `json:"conversation" dynamodbav:"Conversation"`
	CreatedAt    time.Time        `json:"createdAt" dynamodbav:"CreatedAt"`
}

// ResumeRecord is the text extracted from an uploaded resume.
type ResumeRecord struct {
	ID         string    `json:"id,omitempty" dynamodbav:"ID"`
	Filename   string    `json:"filename" dynamodbav:"Filename"`
	Text       string    `json:"text" dynamodbav:"Text"`
	UploadedAt time.Time `json:"uploadedAt" dynamodbav:"UploadedAt"`
}

type Store interface {
	SaveInterview(ctx context.Context, id string, conversation []interview.Turn) error
	SaveResume(ctx context.Context, resume ResumeRecord) error
	LatestResume(ctx context.Context) (*ResumeRecord, error)
	Close() error
}

type Driver string

const (
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
	DriverDynamoDB Driver = "dynamodb"
	DriverNone     Driver = "none"
)

type Config struct {
	Driver   Driver         `mapstructure:"driver"`
	Dir      string         `mapstructure:"dir"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	DynamoDB DynamoConfig   `mapstructure:"dynamodb"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// New opens the store selected by cfg.Driver. An empty driver selects the file store.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := Driver(strings.ToLower(strings.TrimSpace(string(cfg.Driver))))
	if driver == "" {
		driver = DriverFile
	}

	logger = logger.With(zap.String("store", string(driver)))

	switch driver {
	case DriverFile:
		return NewFileStore(cfg.Dir, logger)
	case DriverPostgres:
		db, err := OpenDB(cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStore(db, logger)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	case DriverDynamoDB:
		return NewDynamoDBStore(ctx, cfg.DynamoDB, logger)
	case DriverNone:
		logger.Info("audit storage disabled")
		return NewNoopStore(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
