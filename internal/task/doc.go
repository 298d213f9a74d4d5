// Package task manages the durable generation queue: persisted task rows,
// the claim protocol that hands each pending task to exactly one worker,
// and the runner that drains the queue with load-aware throttling and
// lease-based recovery of abandoned work.
package task
