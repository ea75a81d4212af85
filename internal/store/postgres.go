package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ishitcode/hire/internal/interview"
)

type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger, now: time.Now}
}

func OpenDB(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent server startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2024031501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS interviews (
	id TEXT PRIMARY KEY,
	conversation JSONB NOT NULL,
	turns INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS resumes (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	text TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resumes_uploaded_at ON resumes(uploaded_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveInterview(ctx context.Context, id string, conversation []interview.Turn) error {
	conversationJSON, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO interviews (id, conversation, turns, created_at)
VALUES ($1, $2, $3, $4)
`, id, conversationJSON, len(conversation), s.now().UTC())
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveResume(ctx context.Context, resume ResumeRecord) error {
	if resume.ID == "" {
		resume.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO resumes (id, filename, text, uploaded_at)
VALUES ($1, $2, $3, $4)
`, resume.ID, resume.Filename, resume.Text, resume.UploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestResume(ctx context.Context) (*ResumeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, filename, text, uploaded_at
FROM resumes
ORDER BY uploaded_at DESC
LIMIT 1
`)

	var resume ResumeRecord
	if err := row.Scan(&resume.ID, &resume.Filename, &resume.Text, &resume.UploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select latest resume: %w", err)
	}
	return &resume, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
