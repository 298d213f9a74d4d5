package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/platform/logger"
	"github.com/darvell/inkmill/internal/store"
)

// ArtifactStore implements store.ArtifactStore on the artifacts table.
type ArtifactStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewArtifactStore creates a PostgreSQL artifact store. The caller owns the
// connection or transaction passed as db. If logger is nil, a default
// logger is used.
func NewArtifactStore(db store.DBTX, log *slog.Logger) *ArtifactStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ArtifactStore{
		db:     db,
		logger: log.With(slog.String("component", "artifact_store")),
	}
}

var _ store.ArtifactStore = (*ArtifactStore)(nil)

// WithTx returns a store bound to the given transaction.
func (s *ArtifactStore) WithTx(tx *sql.Tx) *ArtifactStore {
	return &ArtifactStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.ArtifactStore.Get.
func (s *ArtifactStore) Get(ctx context.Context, subjectID string, kind domain.ArtifactType) (*domain.Artifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT subject_id, artifact_type, content, created_at
		FROM artifacts
		WHERE subject_id = $1 AND artifact_type = $2
	`

	var a domain.Artifact
	err := s.db.QueryRowContext(ctx, query, subjectID, string(kind)).
		Scan(&a.SubjectID, &a.Type, &a.Content, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrArtifactNotFound
		}
		log.Error("failed to query artifact",
			slog.String("subject_id", subjectID),
			slog.String("artifact_type", string(kind)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return &a, nil
}

// Put implements store.ArtifactStore.Put. The existing row for the key is
// deleted and the new one inserted. When the store is backed by a plain
// connection the replace runs inside its own transaction so concurrent
// readers never observe the gap between the two statements.
func (s *ArtifactStore) Put(ctx context.Context, artifact *domain.Artifact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := artifact.Validate(); err != nil {
		log.Warn("artifact validation failed during put",
			slog.String("subject_id", artifact.SubjectID),
			slog.String("error", err.Error()))
		return err
	}

	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.WithTx(tx).replace(ctx, artifact)
		})
	}
	return s.replace(ctx, artifact)
}

func (s *ArtifactStore) replace(ctx context.Context, artifact *domain.Artifact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deleteQuery := `
		DELETE FROM artifacts
		WHERE subject_id = $1 AND artifact_type = $2
	`
	if _, err := s.db.ExecContext(ctx, deleteQuery, artifact.SubjectID, string(artifact.Type)); err != nil {
		log.Error("failed to delete previous artifact",
			slog.String("subject_id", artifact.SubjectID),
			slog.String("artifact_type", string(artifact.Type)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to replace artifact: %w", MapError(err))
	}

	insertQuery := `
		INSERT INTO artifacts (subject_id, artifact_type, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, insertQuery,
		artifact.SubjectID,
		string(artifact.Type),
		artifact.Content,
		artifact.CreatedAt,
	); err != nil {
		log.Error("failed to insert artifact",
			slog.String("subject_id", artifact.SubjectID),
			slog.String("artifact_type", string(artifact.Type)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to store artifact: %w", MapError(err))
	}

	log.Debug("artifact stored",
		slog.String("subject_id", artifact.SubjectID),
		slog.String("artifact_type", string(artifact.Type)),
		slog.Int("content_length", len(artifact.Content)))
	return nil
}

// Invalidate implements store.ArtifactStore.Invalidate.
func (s *ArtifactStore) Invalidate(ctx context.Context, subjectID string, kind domain.ArtifactType) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM artifacts
		WHERE subject_id = $1 AND artifact_type = $2
	`
	if _, err := s.db.ExecContext(ctx, query, subjectID, string(kind)); err != nil {
		log.Error("failed to invalidate artifact",
			slog.String("subject_id", subjectID),
			slog.String("artifact_type", string(kind)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to invalidate artifact: %w", MapError(err))
	}

	return nil
}
