package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/darvell/inkmill/internal/domain"
)

// Status represents the lifecycle state of a queued task.
type Status string

// Task lifecycle states. Pending tasks are claimable; processing tasks are
// owned by exactly one worker until completion, failure, or lease expiry.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Validation errors for queue tasks.
var (
	ErrEmptySubjectID  = errors.New("task subject ID cannot be empty")
	ErrInvalidTaskType = errors.New("task artifact type is not valid")
)

// QueueTask is one unit of deferred generation work, persisted in the
// queue_tasks table.
type QueueTask struct {
	ID           uuid.UUID
	SubjectID    string
	Type         domain.ArtifactType
	Status       Status
	Priority     int
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Result       string
	ErrorMessage string
	RetryCount   int
	OwnerLock    string
}

// NewQueueTask creates a pending task for generating one artifact.
func NewQueueTask(subjectID string, kind domain.ArtifactType, priority int) (*QueueTask, error) {
	if subjectID == "" {
		return nil, ErrEmptySubjectID
	}
	if !domain.IsValidArtifactType(kind) {
		return nil, ErrInvalidTaskType
	}

	return &QueueTask{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Type:      kind,
		Status:    StatusPending,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Terminal reports whether the task has reached a final state.
func (t *QueueTask) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// QueueStore is the persistence contract for the durable task queue.
// Claiming must be mutually exclusive across concurrent workers: a pending
// task is handed to at most one claimant.
type QueueStore interface {
	// Enqueue persists a new pending task.
	Enqueue(ctx context.Context, t *QueueTask) error

	// GetByID returns the task with the given ID.
	// Returns store.ErrTaskNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*QueueTask, error)

	// ClaimPending atomically transitions up to batchSize pending tasks to
	// processing, stamping the worker's owner lock and start time. Tasks
	// are claimed highest priority first, oldest first within a priority.
	ClaimPending(ctx context.Context, workerID string, batchSize int) ([]*QueueTask, error)

	// MarkCompleted records the result and releases the owner lock.
	MarkCompleted(ctx context.Context, id uuid.UUID, result string) error

	// MarkFailed records the error, bumps the retry count, and releases
	// the owner lock.
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error

	// RequeueFailed re-marks failed tasks with retry_count below the limit
	// as pending. Returns the number of tasks requeued.
	RequeueFailed(ctx context.Context, maxRetries int) (int64, error)

	// ReclaimExpired returns processing tasks whose lease has lapsed to
	// pending so another worker can pick them up. Returns the number of
	// tasks reclaimed.
	ReclaimExpired(ctx context.Context, lease time.Duration) (int64, error)
}
