package api

import (
	"time"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/task"
)

// Common request/response structures

// AugmentRequest defines the payload for the synchronous augmentation
// endpoint. An empty Types list means every configured artifact type.
type AugmentRequest struct {
	Content string   `json:"content" validate:"required,min=1"`
	Types   []string `json:"types"   validate:"omitempty,dive,oneof=summary tags category seo"`
}

// ArtifactResponse represents one generated artifact.
type ArtifactResponse struct {
	SubjectID string    `json:"subject_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CacheHit  bool      `json:"cache_hit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AugmentResponse defines the per-type outcome of an augmentation run.
// Types that failed carry a sanitized message in Errors instead of an
// entry in Artifacts.
type AugmentResponse struct {
	SubjectID string             `json:"subject_id"`
	Artifacts []ArtifactResponse `json:"artifacts"`
	Errors    map[string]string  `json:"errors,omitempty"`
}

// CreateTaskRequest defines the payload for enqueueing deferred generation.
// Content is optional; when present it is stored for the subject before the
// task is queued, otherwise previously stored content is used.
type CreateTaskRequest struct {
	SubjectID string `json:"subject_id" validate:"required,min=1"`
	Type      string `json:"type"       validate:"required,oneof=summary tags category seo"`
	Priority  int    `json:"priority"   validate:"min=0,max=100"`
	Content   string `json:"content,omitempty"`
}

// TaskAcceptedResponse acknowledges an enqueued generation request.
type TaskAcceptedResponse struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Priority  int    `json:"priority"`
}

// TaskResponse represents the state of a queued generation task.
type TaskResponse struct {
	ID           string     `json:"id"`
	SubjectID    string     `json:"subject_id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Priority     int        `json:"priority"`
	Result       string     `json:"result,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// artifactToResponse converts a domain.Artifact to an ArtifactResponse.
func artifactToResponse(a *domain.Artifact, cacheHit bool) ArtifactResponse {
	return ArtifactResponse{
		SubjectID: a.SubjectID,
		Type:      string(a.Type),
		Content:   a.Content,
		CacheHit:  cacheHit,
		CreatedAt: a.CreatedAt,
	}
}

// taskToResponse converts a task.QueueTask to a TaskResponse.
func taskToResponse(t *task.QueueTask) TaskResponse {
	return TaskResponse{
		ID:           t.ID.String(),
		SubjectID:    t.SubjectID,
		Type:         string(t.Type),
		Status:       string(t.Status),
		Priority:     t.Priority,
		Result:       t.Result,
		ErrorMessage: t.ErrorMessage,
		RetryCount:   t.RetryCount,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}
}
