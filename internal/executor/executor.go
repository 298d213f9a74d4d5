// Package executor runs an independent set of generation tasks concurrently
// while keeping results index-aligned with their inputs. Tasks overlap only
// while blocked on network I/O; completions are delivered by goroutine
// scheduling rather than readiness polling.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Func is a single generation task. It should honor ctx cancellation on
// its network calls.
type Func func(ctx context.Context) (string, error)

// Result holds the outcome of one task. Exactly one of Value or Err is
// meaningful.
type Result struct {
	Value string
	Err   error
}

// Executor runs task sets with bounded concurrency.
type Executor struct {
	maxConcurrent int
	logger        *slog.Logger
}

// New creates an Executor. maxConcurrent <= 0 means no bound beyond the
// number of tasks.
func New(maxConcurrent int, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		maxConcurrent: maxConcurrent,
		logger:        logger.With("component", "executor"),
	}
}

// Run executes all tasks and returns their results in input order: the
// result at index i always belongs to tasks[i] regardless of completion
// order. A failing task only populates its own slot; siblings run to
// completion. Run returns once every slot is filled.
func (e *Executor) Run(ctx context.Context, tasks []Func) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var sem chan struct{}
	if e.maxConcurrent > 0 {
		sem = make(chan struct{}, e.maxConcurrent)
	}

	var wg sync.WaitGroup
	for i, fn := range tasks {
		wg.Add(1)
		go func(idx int, fn Func) {
			defer wg.Done()

			// A panicking task fails its own slot, not the batch.
			defer func() {
				if p := recover(); p != nil {
					e.logger.Error("task panicked",
						"task_index", idx,
						"panic", p)
					results[idx] = Result{Err: fmt.Errorf("task %d panicked: %v", idx, p)}
				}
			}()

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results[idx] = Result{Err: ctx.Err()}
					return
				}
			}

			value, err := fn(ctx)
			if err != nil {
				e.logger.Debug("task failed",
					"task_index", idx,
					"error", err)
				results[idx] = Result{Err: err}
				return
			}
			results[idx] = Result{Value: value}
		}(i, fn)
	}
	wg.Wait()

	return results
}
