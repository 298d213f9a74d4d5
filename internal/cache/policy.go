// Package cache implements the artifact cache layer: a freshness policy
// over a pluggable store backend, with generate-on-miss write-through.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/platform/logger"
	"github.com/darvell/inkmill/internal/store"
)

// Policy decides whether a stored artifact may be served. TTLSeconds has
// three regimes: negative disables the cache entirely, zero never expires
// entries, positive bounds entry age.
type Policy struct {
	TTLSeconds int
}

// Bypass reports whether the cache is disabled outright.
func (p Policy) Bypass() bool {
	return p.TTLSeconds < 0
}

// Fresh reports whether the artifact is still servable at the given time.
// An entry exactly TTLSeconds old has expired.
func (p Policy) Fresh(a *domain.Artifact, now time.Time) bool {
	if p.TTLSeconds == 0 {
		return true
	}
	return a.Age(now) < time.Duration(p.TTLSeconds)*time.Second
}

// Generator produces artifact content when the cache cannot serve it.
type Generator func(ctx context.Context) (string, error)

// Cache wraps an ArtifactStore with the freshness policy.
type Cache struct {
	store  store.ArtifactStore
	policy Policy
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Cache over the given backend.
func New(s store.ArtifactStore, policy Policy, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		store:  s,
		policy: policy,
		now:    time.Now,
		logger: log.With("component", "artifact_cache"),
	}
}

// GetOrGenerate returns the cached artifact for the key when the policy
// allows it, and otherwise runs gen and writes the result through. The
// returned bool reports a cache hit. In the bypass regime nothing is read
// or written; every call generates.
func (c *Cache) GetOrGenerate(
	ctx context.Context,
	subjectID string,
	kind domain.ArtifactType,
	gen Generator,
) (*domain.Artifact, bool, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if c.policy.Bypass() {
		a, err := c.generate(ctx, subjectID, kind, gen)
		return a, false, err
	}

	existing, err := c.store.Get(ctx, subjectID, kind)
	switch {
	case err == nil:
		if c.policy.Fresh(existing, c.now()) {
			log.DebugContext(ctx, "cache hit",
				"subject_id", subjectID,
				"artifact_type", string(kind))
			return existing, true, nil
		}
		log.DebugContext(ctx, "cache entry expired",
			"subject_id", subjectID,
			"artifact_type", string(kind),
			"age_seconds", existing.Age(c.now()).Seconds())
	case store.IsNotFoundError(err):
		// Miss, fall through to generation.
	default:
		return nil, false, fmt.Errorf("failed to read artifact cache: %w", err)
	}

	a, err := c.generate(ctx, subjectID, kind, gen)
	if err != nil {
		return nil, false, err
	}

	if err := c.store.Put(ctx, a); err != nil {
		// The artifact is still usable; losing the write only costs a
		// regeneration later.
		log.WarnContext(ctx, "failed to write artifact through to cache",
			"subject_id", subjectID,
			"artifact_type", string(kind),
			"error", err)
	}

	return a, false, nil
}

// Invalidate removes the cached entry for the key.
func (c *Cache) Invalidate(ctx context.Context, subjectID string, kind domain.ArtifactType) error {
	if c.policy.Bypass() {
		return nil
	}
	return c.store.Invalidate(ctx, subjectID, kind)
}

// Get returns the cached artifact when the policy allows serving it.
// Returns store.ErrArtifactNotFound for misses, expired entries, and the
// bypass regime.
func (c *Cache) Get(ctx context.Context, subjectID string, kind domain.ArtifactType) (*domain.Artifact, error) {
	if c.policy.Bypass() {
		return nil, store.ErrArtifactNotFound
	}

	a, err := c.store.Get(ctx, subjectID, kind)
	if err != nil {
		return nil, err
	}
	if !c.policy.Fresh(a, c.now()) {
		return nil, store.ErrArtifactNotFound
	}
	return a, nil
}

func (c *Cache) generate(
	ctx context.Context,
	subjectID string,
	kind domain.ArtifactType,
	gen Generator,
) (*domain.Artifact, error) {
	content, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewArtifact(subjectID, kind, content)
}
