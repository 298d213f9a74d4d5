// Package rediscache implements store.ArtifactStore on Redis. Artifacts
// are stored as JSON strings; a positive TTL maps onto Redis native key
// expiry so stale entries vanish without a sweeper.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darvell/inkmill/internal/domain"
	"github.com/darvell/inkmill/internal/store"
)

// Store is a Redis-backed artifact store.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Redis artifact store. ttl <= 0 stores entries without
// expiry; the policy layer still applies its age check on top.
func New(opts *redis.Options, ttl time.Duration, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}

	return &Store{
		rdb:    redis.NewClient(opts),
		ttl:    ttl,
		logger: log.With(slog.String("component", "redis_artifact_store")),
	}
}

var _ store.ArtifactStore = (*Store)(nil)

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func artifactKey(subjectID string, kind domain.ArtifactType) string {
	return fmt.Sprintf("inkmill:artifact:%s:%s", subjectID, kind)
}

// Get implements store.ArtifactStore.Get.
func (s *Store) Get(ctx context.Context, subjectID string, kind domain.ArtifactType) (*domain.Artifact, error) {
	raw, err := s.rdb.Get(ctx, artifactKey(subjectID, kind)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact from redis: %w", err)
	}

	var a domain.Artifact
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		// A corrupt entry is as good as a miss; drop it so the next write
		// replaces it cleanly.
		s.logger.Warn("dropping corrupt artifact entry",
			slog.String("subject_id", subjectID),
			slog.String("artifact_type", string(kind)),
			slog.String("error", err.Error()))
		_ = s.rdb.Del(ctx, artifactKey(subjectID, kind)).Err()
		return nil, store.ErrArtifactNotFound
	}

	return &a, nil
}

// Put implements store.ArtifactStore.Put. SET replaces any existing value,
// which preserves the one-live-entry-per-key contract.
func (s *Store) Put(ctx context.Context, artifact *domain.Artifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to serialize artifact: %w", err)
	}

	var expiry time.Duration
	if s.ttl > 0 {
		expiry = s.ttl
	}

	key := artifactKey(artifact.SubjectID, artifact.Type)
	if err := s.rdb.Set(ctx, key, raw, expiry).Err(); err != nil {
		return fmt.Errorf("failed to write artifact to redis: %w", err)
	}

	return nil
}

// Invalidate implements store.ArtifactStore.Invalidate.
func (s *Store) Invalidate(ctx context.Context, subjectID string, kind domain.ArtifactType) error {
	if err := s.rdb.Del(ctx, artifactKey(subjectID, kind)).Err(); err != nil {
		return fmt.Errorf("failed to delete artifact from redis: %w", err)
	}
	return nil
}
