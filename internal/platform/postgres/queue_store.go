package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/platform/logger"
	"github.com/darvell/inkmill/internal/store"
	"github.com/darvell/inkmill/internal/task"
)

// QueueStore implements task.QueueStore on the queue_tasks table.
type QueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewQueueStore creates a PostgreSQL task queue store.
func NewQueueStore(db store.DBTX, log *slog.Logger) *QueueStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &QueueStore{
		db:     db,
		logger: log.With(slog.String("component", "queue_store")),
	}
}

var _ task.QueueStore = (*QueueStore)(nil)

const queueTaskColumns = `
	id, subject_id, artifact_type, status, priority, created_at,
	started_at, completed_at, result, error_message, retry_count, owner_lock
`

// Enqueue implements task.QueueStore.Enqueue.
func (s *QueueStore) Enqueue(ctx context.Context, t *task.QueueTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO queue_tasks
			(id, subject_id, artifact_type, status, priority, created_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.SubjectID,
		string(t.Type),
		string(t.Status),
		t.Priority,
		t.CreatedAt,
		t.RetryCount,
	)
	if err != nil {
		log.Error("failed to enqueue task",
			slog.String("task_id", t.ID.String()),
			slog.String("subject_id", t.SubjectID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to enqueue task: %w", MapError(err))
	}

	log.Info("task enqueued",
		slog.String("task_id", t.ID.String()),
		slog.String("subject_id", t.SubjectID),
		slog.String("artifact_type", string(t.Type)),
		slog.Int("priority", t.Priority))
	return nil
}

// GetByID implements task.QueueStore.GetByID.
func (s *QueueStore) GetByID(ctx context.Context, id uuid.UUID) (*task.QueueTask, error) {
	query := `SELECT ` + queueTaskColumns + ` FROM queue_tasks WHERE id = $1`

	t, err := scanQueueTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return t, nil
}

// ClaimPending implements task.QueueStore.ClaimPending. The SKIP LOCKED
// subquery makes concurrent claimants mutually exclusive: a pending row is
// handed to exactly one worker.
func (s *QueueStore) ClaimPending(ctx context.Context, workerID string, batchSize int) ([]*task.QueueTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if batchSize < 1 {
		batchSize = 1
	}

	query := `
		UPDATE queue_tasks
		SET status = $1, owner_lock = $2, started_at = $3
		WHERE id IN (
			SELECT id FROM queue_tasks
			WHERE status = $4
			ORDER BY priority DESC, created_at ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueTaskColumns

	rows, err := s.db.QueryContext(ctx, query,
		string(task.StatusProcessing),
		workerID,
		time.Now().UTC(),
		string(task.StatusPending),
		batchSize,
	)
	if err != nil {
		log.Error("failed to claim pending tasks",
			slog.String("worker_id", workerID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to claim pending tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var claimed []*task.QueueTask
	for rows.Next() {
		t, err := scanQueueTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claimed task: %w", err)
		}
		claimed = append(claimed, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating claimed tasks: %w", err)
	}

	if len(claimed) > 0 {
		log.Debug("claimed tasks",
			slog.String("worker_id", workerID),
			slog.Int("count", len(claimed)))
	}
	return claimed, nil
}

// MarkCompleted implements task.QueueStore.MarkCompleted.
func (s *QueueStore) MarkCompleted(ctx context.Context, id uuid.UUID, result string) error {
	query := `
		UPDATE queue_tasks
		SET status = $1, result = $2, completed_at = $3, owner_lock = NULL, error_message = NULL
		WHERE id = $4
	`
	res, err := s.db.ExecContext(ctx, query,
		string(task.StatusCompleted),
		result,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark task completed: %w", MapError(err))
	}
	if err := CheckRowsAffected(res, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// MarkFailed implements task.QueueStore.MarkFailed.
func (s *QueueStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE queue_tasks
		SET status = $1, error_message = $2, completed_at = $3,
			owner_lock = NULL, retry_count = retry_count + 1
		WHERE id = $4
	`
	res, err := s.db.ExecContext(ctx, query,
		string(task.StatusFailed),
		errorMessage,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark task failed: %w", MapError(err))
	}
	if err := CheckRowsAffected(res, "task"); err != nil {
		return store.ErrTaskNotFound
	}
	return nil
}

// RequeueFailed implements task.QueueStore.RequeueFailed.
func (s *QueueStore) RequeueFailed(ctx context.Context, maxRetries int) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE queue_tasks
		SET status = $1, started_at = NULL, completed_at = NULL
		WHERE status = $2 AND retry_count < $3
	`
	res, err := s.db.ExecContext(ctx, query,
		string(task.StatusPending),
		string(task.StatusFailed),
		maxRetries,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue failed tasks: %w", MapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Info("requeued failed tasks", slog.Int64("count", n))
	}
	return n, nil
}

// ReclaimExpired implements task.QueueStore.ReclaimExpired. Processing
// rows whose start time predates the lease window lost their worker;
// returning them to pending lets another worker finish the job.
func (s *QueueStore) ReclaimExpired(ctx context.Context, lease time.Duration) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE queue_tasks
		SET status = $1, owner_lock = NULL, started_at = NULL
		WHERE status = $2 AND started_at < $3
	`
	res, err := s.db.ExecContext(ctx, query,
		string(task.StatusPending),
		string(task.StatusProcessing),
		time.Now().UTC().Add(-lease),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim expired tasks: %w", MapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		log.Warn("reclaimed expired task leases", slog.Int64("count", n))
	}
	return n, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueTask(row rowScanner) (*task.QueueTask, error) {
	var (
		t            task.QueueTask
		artifactType string
		status       string
		startedAt    sql.NullTime
		completedAt  sql.NullTime
		result       sql.NullString
		errorMessage sql.NullString
		ownerLock    sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&t.SubjectID,
		&artifactType,
		&status,
		&t.Priority,
		&t.CreatedAt,
		&startedAt,
		&completedAt,
		&result,
		&errorMessage,
		&t.RetryCount,
		&ownerLock,
	)
	if err != nil {
		return nil, err
	}

	t.Type = domain.ArtifactType(artifactType)
	t.Status = task.Status(status)
	if startedAt.Valid {
		v := startedAt.Time
		t.StartedAt = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	t.Result = result.String
	t.ErrorMessage = errorMessage.String
	t.OwnerLock = ownerLock.String

	return &t, nil
}
