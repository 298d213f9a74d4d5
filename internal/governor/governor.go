// Package governor bounds resource usage across an orchestration run with
// named counters. A Governor is an explicit instance passed to whoever
// needs it; there is no process-global tracker.
package governor

import (
	"errors"
	"fmt"
	"sync"
)

// Well-known resource names used by the engine. The per-run time budget
// is enforced with a context deadline in the orchestrator rather than a
// governor counter.
const (
	ResourceConcurrency = "concurrency"
	ResourceMemory      = "memory"
)

// ErrResourceExceeded is returned when an acquisition would push a counter
// past its ceiling. Callers should surface it as a "system busy" condition
// rather than retry.
var ErrResourceExceeded = errors.New("resource limit exceeded")

// Governor tracks named counters against configured ceilings.
// The zero value is not usable; construct with New.
type Governor struct {
	mu      sync.Mutex
	limits  map[string]int64
	current map[string]int64
}

// New creates a Governor with the given ceilings. Resources without a
// ceiling are unknown to the governor and cannot be acquired.
func New(limits map[string]int64) *Governor {
	l := make(map[string]int64, len(limits))
	for name, ceiling := range limits {
		l[name] = ceiling
	}
	return &Governor{
		limits:  l,
		current: make(map[string]int64, len(limits)),
	}
}

// Acquire increments the named counter by amount, failing with
// ErrResourceExceeded if the result would exceed the ceiling.
func (g *Governor) Acquire(name string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("acquire amount cannot be negative: %d", amount)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ceiling, ok := g.limits[name]
	if !ok {
		return fmt.Errorf("unknown resource %q", name)
	}

	if g.current[name]+amount > ceiling {
		return fmt.Errorf("%w: %s %d + %d exceeds ceiling %d",
			ErrResourceExceeded, name, g.current[name], amount, ceiling)
	}

	g.current[name] += amount
	return nil
}

// Release decrements the named counter by amount, flooring at zero.
// Releasing an unknown resource is a no-op.
func (g *Governor) Release(name string, amount int64) {
	if amount < 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.current[name] -= amount
	if g.current[name] < 0 {
		g.current[name] = 0
	}
}

// Usage returns the current value of the named counter.
func (g *Governor) Usage(name string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current[name]
}

// Do runs fn while holding amount of the named resource, releasing it on
// every exit path including panics.
func (g *Governor) Do(name string, amount int64, fn func() error) error {
	if err := g.Acquire(name, amount); err != nil {
		return err
	}
	defer g.Release(name, amount)
	return fn()
}
