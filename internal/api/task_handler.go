package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/darvell/inkmill/internal/api/shared"
	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/events"
	"github.com/darvell/inkmill/internal/platform/logger"
	"github.com/darvell/inkmill/internal/store"
	"github.com/darvell/inkmill/internal/task"
)

// TaskReader looks up queued generation tasks.
type TaskReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*task.QueueTask, error)
}

// TaskHandler handles deferred generation HTTP requests. Creation goes
// through the event emitter; the enqueue handler persists the queue row
// under the event's ID before EmitEvent returns.
type TaskHandler struct {
	tasks     TaskReader
	subjects  store.SubjectStore
	emitter   events.EventEmitter
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(
	tasks TaskReader,
	subjects store.SubjectStore,
	emitter events.EventEmitter,
	log *slog.Logger,
) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		tasks:     tasks,
		subjects:  subjects,
		emitter:   emitter,
		validator: validator.New(),
		logger:    log.With("component", "task_handler"),
	}
}

// CreateTask handles POST /api/tasks requests. Processing happens in the
// background runner, so the response is 202 Accepted with the task ID to
// poll.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if req.Content != "" {
		if err := h.subjects.Upsert(r.Context(), req.SubjectID, req.Content); err != nil {
			log.Error("failed to store subject content", "error", err, "subject_id", req.SubjectID)
			HandleAPIError(w, r, err, "Failed to store content")
			return
		}
	}

	event, err := events.NewTaskRequestEvent(req.SubjectID, domain.ArtifactType(req.Type), req.Priority)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		log.Error("failed to emit task request event", "error", err, "subject_id", req.SubjectID)
		HandleAPIError(w, r, err, "Failed to enqueue task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskAcceptedResponse{
		ID:        event.ID.String(),
		SubjectID: req.SubjectID,
		Type:      req.Type,
		Status:    string(task.StatusPending),
		Priority:  req.Priority,
	})
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	t, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(t))
}
