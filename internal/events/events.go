package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/darvell/inkmill/internal/domain"
)

// Validation errors for task request events.
var (
	ErrEmptySubjectID   = errors.New("event subject ID cannot be empty")
	ErrInvalidEventType = errors.New("event artifact type is not valid")
)

// TaskRequestEvent asks for a generation task to be enqueued. It carries
// the request data without a direct dependency on the queue, so API
// handlers and the orchestrator can request background work through the
// emitter alone.
type TaskRequestEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// SubjectID names the content the artifact belongs to.
	SubjectID string `json:"subject_id"`

	// ArtifactType is the kind of artifact to generate.
	ArtifactType domain.ArtifactType `json:"artifact_type"`

	// Priority orders the task among pending work; higher runs first.
	Priority int `json:"priority"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskRequestEvent creates a validated TaskRequestEvent.
func NewTaskRequestEvent(subjectID string, kind domain.ArtifactType, priority int) (*TaskRequestEvent, error) {
	if subjectID == "" {
		return nil, ErrEmptySubjectID
	}
	if !domain.IsValidArtifactType(kind) {
		return nil, ErrInvalidEventType
	}

	return &TaskRequestEvent{
		ID:           uuid.New(),
		SubjectID:    subjectID,
		ArtifactType: kind,
		Priority:     priority,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// EventHandler processes emitted events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to registered handlers, decoupling event
// producers from the components that act on them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
