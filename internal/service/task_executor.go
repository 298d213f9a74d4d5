package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/store"
	"github.com/darvell/inkmill/internal/task"
)

// GenerationTaskExecutor runs queued generation tasks through the
// orchestrator, resolving the subject content from the subject store.
type GenerationTaskExecutor struct {
	subjects store.SubjectStore
	orch     *Orchestrator
	logger   *slog.Logger
}

// NewGenerationTaskExecutor creates the queue-side adapter around the
// orchestrator.
func NewGenerationTaskExecutor(subjects store.SubjectStore, orch *Orchestrator, log *slog.Logger) *GenerationTaskExecutor {
	if log == nil {
		log = slog.Default()
	}
	return &GenerationTaskExecutor{
		subjects: subjects,
		orch:     orch,
		logger:   log.With("component", "generation_task_executor"),
	}
}

var _ task.Executor = (*GenerationTaskExecutor)(nil)

// Execute implements task.Executor. The returned string is the generated
// artifact content, persisted as the queue row's result.
func (e *GenerationTaskExecutor) Execute(ctx context.Context, t *task.QueueTask) (string, error) {
	content, err := e.subjects.GetContent(ctx, t.SubjectID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve subject content: %w", err)
	}

	res, err := e.orch.Augment(ctx, t.SubjectID, content, []domain.ArtifactType{t.Type})
	if err != nil {
		return "", err
	}
	if kindErr, failed := res.Errors[t.Type]; failed {
		return "", kindErr
	}

	a, ok := res.Artifacts[t.Type]
	if !ok {
		return "", fmt.Errorf("augmentation produced no %s artifact", t.Type)
	}
	return a.Content, nil
}
