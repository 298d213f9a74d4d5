package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darvell/inkmill/internal/events"
)

// EnqueueHandler turns task request events into durable queue rows. It is
// the bridge between the events package and the queue store.
type EnqueueHandler struct {
	store  QueueStore
	logger *slog.Logger
}

// NewEnqueueHandler creates an EnqueueHandler backed by the given store.
func NewEnqueueHandler(store QueueStore, logger *slog.Logger) *EnqueueHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnqueueHandler{
		store:  store,
		logger: logger.With("component", "enqueue_handler"),
	}
}

var _ events.EventHandler = (*EnqueueHandler)(nil)

// HandleEvent implements events.EventHandler.
func (h *EnqueueHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	t, err := NewQueueTask(event.SubjectID, event.ArtifactType, event.Priority)
	if err != nil {
		return fmt.Errorf("failed to build queue task from event: %w", err)
	}
	// The event ID doubles as the task ID so emitters can poll the row
	// they were handed.
	t.ID = event.ID

	if err := h.store.Enqueue(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue task for event %s: %w", event.ID, err)
	}

	h.logger.Debug("enqueued task from event",
		"event_id", event.ID,
		"task_id", t.ID,
		"subject_id", t.SubjectID,
		"artifact_type", string(t.Type))
	return nil
}
