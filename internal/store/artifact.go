package store

import (
	"context"

	"github.com/darvell/inkmill/internal/domain"
)

// ArtifactStore defines the interface for persisting generated artifacts.
// Implementations keep at most one live artifact per (subject, type) key;
// Put replaces any existing entry, it never appends.
type ArtifactStore interface {
	// Get retrieves the artifact for the given key.
	// Returns ErrArtifactNotFound if no entry exists.
	Get(ctx context.Context, subjectID string, kind domain.ArtifactType) (*domain.Artifact, error)

	// Put stores the artifact, replacing any existing entry for its key.
	Put(ctx context.Context, artifact *domain.Artifact) error

	// Invalidate removes the entry for the given key. Removing a key that
	// has no entry is not an error.
	Invalidate(ctx context.Context, subjectID string, kind domain.ArtifactType) error
}
