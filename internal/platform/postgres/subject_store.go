package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/darvell/inkmill/internal/platform/logger"
	"github.com/darvell/inkmill/internal/store"
)

// SubjectStore implements store.SubjectStore on the subjects table.
type SubjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSubjectStore creates a PostgreSQL subject content store.
func NewSubjectStore(db store.DBTX, log *slog.Logger) *SubjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &SubjectStore{
		db:     db,
		logger: log.With(slog.String("component", "subject_store")),
	}
}

var _ store.SubjectStore = (*SubjectStore)(nil)

// Upsert implements store.SubjectStore.Upsert.
func (s *SubjectStore) Upsert(ctx context.Context, subjectID, content string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO subjects (id, content, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, subjectID, content, time.Now().UTC()); err != nil {
		log.Error("failed to upsert subject content",
			slog.String("subject_id", subjectID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to store subject content: %w", MapError(err))
	}

	return nil
}

// GetContent implements store.SubjectStore.GetContent.
func (s *SubjectStore) GetContent(ctx context.Context, subjectID string) (string, error) {
	query := `SELECT content FROM subjects WHERE id = $1`

	var content string
	err := s.db.QueryRowContext(ctx, query, subjectID).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrSubjectNotFound
		}
		return "", fmt.Errorf("failed to read subject content: %w", MapError(err))
	}

	return content, nil
}
