package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Executor performs the work of one claimed task and returns the result
// payload to persist on the queue row.
type Executor interface {
	Execute(ctx context.Context, t *QueueTask) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, t *QueueTask) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, t *QueueTask) (string, error) {
	return f(ctx, t)
}

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// BatchSize bounds how many tasks one drain pass claims.
	BatchSize int

	// MaxLoad is the system load-average ceiling; above it the runner
	// stops claiming until load drops.
	MaxLoad float64

	// Lease is how long a claimed task may sit in processing before the
	// maintenance pass hands it back to pending.
	Lease time.Duration

	// MaxRetries bounds how often a failed task is requeued.
	MaxRetries int

	// ThrottleEvery and MinTaskInterval pace the workers: after every
	// ThrottleEvery processed tasks, the processing worker pauses for
	// MinTaskInterval.
	ThrottleEvery   int
	MinTaskInterval time.Duration

	// PollInterval is the delay between drain passes.
	PollInterval time.Duration

	// MaintenanceInterval is the delay between lease-expiry and
	// failed-task-requeue sweeps.
	MaintenanceInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:         2,
		BatchSize:           10,
		MaxLoad:             8.0,
		Lease:               30 * time.Minute,
		MaxRetries:          3,
		ThrottleEvery:       10,
		MinTaskInterval:     time.Second,
		PollInterval:        5 * time.Second,
		MaintenanceInterval: 5 * time.Minute,
	}
}

// Runner drains the durable queue: a claim loop pulls batches of pending
// tasks, a worker pool executes them, and a maintenance loop reclaims
// expired leases and requeues retryable failures.
type Runner struct {
	store      QueueStore
	exec       Executor
	config     RunnerConfig
	workerID   string
	taskChan   chan *QueueTask
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	processed  atomic.Int64

	// loadSample is swappable for tests.
	loadSample func() (float64, error)
}

// NewRunner creates a Runner. The worker ID stamped into owner locks is
// unique per runner instance so leases are attributable.
func NewRunner(store QueueStore, exec Executor, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaintenanceInterval <= 0 {
		config.MaintenanceInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:      store,
		exec:       exec,
		config:     config,
		workerID:   fmt.Sprintf("inkmill-%s", uuid.New().String()[:8]),
		taskChan:   make(chan *QueueTask, config.BatchSize),
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With("component", "task_runner"),
		loadSample: readLoadAverage,
	}
}

// Start launches the claim loop, the worker pool, and the maintenance
// monitor.
func (r *Runner) Start() error {
	if r.exec == nil {
		return fmt.Errorf("runner requires an executor")
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.claimLoop()

	r.wg.Add(1)
	go r.maintenanceMonitor()

	r.logger.Info("task runner started",
		"worker_id", r.workerID,
		"worker_count", r.config.WorkerCount,
		"batch_size", r.config.BatchSize)
	return nil
}

// Stop gracefully shuts down the runner, waiting for in-flight tasks.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("task runner stopped", "worker_id", r.workerID)
}

// claimLoop periodically claims a batch of pending tasks and feeds the
// workers. Claiming pauses while system load exceeds the ceiling.
func (r *Runner) claimLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.drainOnce()
		}
	}
}

func (r *Runner) drainOnce() {
	if r.config.MaxLoad > 0 {
		if load, err := r.loadSample(); err == nil && load > r.config.MaxLoad {
			r.logger.Warn("system load above ceiling, skipping drain pass",
				"load", load,
				"max_load", r.config.MaxLoad)
			return
		}
	}

	claimed, err := r.store.ClaimPending(r.ctx, r.workerID, r.config.BatchSize)
	if err != nil {
		r.logger.Error("failed to claim pending tasks", "error", err)
		return
	}

	for _, t := range claimed {
		select {
		case r.taskChan <- t:
		case <-r.ctx.Done():
			return
		}
	}
}

// worker executes claimed tasks from the channel.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_index", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_index", id)
			return
		case t := <-r.taskChan:
			r.processTask(t, id)
			r.pace()
		}
	}
}

// processTask handles execution of a single claimed task.
func (r *Runner) processTask(t *QueueTask, workerIndex int) {
	log := r.logger.With(
		"task_id", t.ID.String(),
		"subject_id", t.SubjectID,
		"artifact_type", string(t.Type),
		"worker_index", workerIndex,
	)

	log.Info("processing task")

	result, err := r.exec.Execute(r.ctx, t)
	if err != nil {
		log.Error("task execution failed", "error", err, "retry_count", t.RetryCount)
		if markErr := r.store.MarkFailed(r.ctx, t.ID, err.Error()); markErr != nil {
			log.Error("failed to mark task failed", "error", markErr)
		}
		return
	}

	log.Info("task completed")
	if markErr := r.store.MarkCompleted(r.ctx, t.ID, result); markErr != nil {
		log.Error("failed to mark task completed", "error", markErr)
	}
}

// pace enforces the minimum inter-task interval every ThrottleEvery tasks.
func (r *Runner) pace() {
	if r.config.ThrottleEvery <= 0 || r.config.MinTaskInterval <= 0 {
		return
	}
	if r.processed.Add(1)%int64(r.config.ThrottleEvery) != 0 {
		return
	}

	select {
	case <-time.After(r.config.MinTaskInterval):
	case <-r.ctx.Done():
	}
}

// maintenanceMonitor periodically reclaims expired leases and requeues
// retryable failed tasks.
func (r *Runner) maintenanceMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.store.ReclaimExpired(r.ctx, r.config.Lease); err != nil {
				r.logger.Error("failed to reclaim expired leases", "error", err)
			} else if n > 0 {
				r.logger.Info("reclaimed expired leases", "count", n)
			}

			if n, err := r.store.RequeueFailed(r.ctx, r.config.MaxRetries); err != nil {
				r.logger.Error("failed to requeue failed tasks", "error", err)
			} else if n > 0 {
				r.logger.Info("requeued failed tasks", "count", n)
			}
		}
	}
}
