package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darvell/inkmill/internal/store"
)

// memoryQueueStore is an in-memory QueueStore with the same claim
// exclusivity guarantees as the SQL implementation.
type memoryQueueStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*QueueTask
}

func newMemoryQueueStore() *memoryQueueStore {
	return &memoryQueueStore{tasks: make(map[uuid.UUID]*QueueTask)}
}

func (m *memoryQueueStore) Enqueue(_ context.Context, t *QueueTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memoryQueueStore) GetByID(_ context.Context, id uuid.UUID) (*QueueTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryQueueStore) ClaimPending(_ context.Context, workerID string, batchSize int) ([]*QueueTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []*QueueTask
	for _, t := range m.tasks {
		if t.Status == StatusPending {
			pending = append(pending, t)
		}
	}

	// Highest priority first, oldest first within a priority.
	for i := 0; i < len(pending); i++ {
		for j := i + 1; j < len(pending); j++ {
			a, b := pending[i], pending[j]
			if b.Priority > a.Priority ||
				(b.Priority == a.Priority && b.CreatedAt.Before(a.CreatedAt)) {
				pending[i], pending[j] = b, a
			}
		}
	}

	if len(pending) > batchSize {
		pending = pending[:batchSize]
	}

	now := time.Now().UTC()
	claimed := make([]*QueueTask, 0, len(pending))
	for _, t := range pending {
		t.Status = StatusProcessing
		t.OwnerLock = workerID
		started := now
		t.StartedAt = &started
		cp := *t
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (m *memoryQueueStore) MarkCompleted(_ context.Context, id uuid.UUID, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.Result = result
	t.ErrorMessage = ""
	t.OwnerLock = ""
	t.CompletedAt = &now
	return nil
}

func (m *memoryQueueStore) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.Status = StatusFailed
	t.ErrorMessage = errorMessage
	t.OwnerLock = ""
	t.RetryCount++
	t.CompletedAt = &now
	return nil
}

func (m *memoryQueueStore) RequeueFailed(_ context.Context, maxRetries int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.tasks {
		if t.Status == StatusFailed && t.RetryCount < maxRetries {
			t.Status = StatusPending
			t.StartedAt = nil
			t.CompletedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memoryQueueStore) ReclaimExpired(_ context.Context, lease time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().UTC().Add(-lease)
	var n int64
	for _, t := range m.tasks {
		if t.Status == StatusProcessing && t.StartedAt != nil && t.StartedAt.Before(cutoff) {
			t.Status = StatusPending
			t.OwnerLock = ""
			t.StartedAt = nil
			n++
		}
	}
	return n, nil
}
