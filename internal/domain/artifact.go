package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ArtifactType identifies the kind of generated artifact.
type ArtifactType string

// Supported artifact types.
const (
	ArtifactSummary  ArtifactType = "summary"
	ArtifactTags     ArtifactType = "tags"
	ArtifactCategory ArtifactType = "category"
	ArtifactSEO      ArtifactType = "seo"
)

// Common validation errors for Artifact
var (
	ErrEmptySubjectID    = errors.New("artifact subject ID cannot be empty")
	ErrEmptyContent      = errors.New("artifact content cannot be empty")
	ErrInvalidArtifact   = errors.New("invalid artifact type")
	ErrInvalidSEOPayload = errors.New("invalid SEO payload")
)

// Artifact is one generated piece of content for a subject, addressed by
// the (subject ID, type) pair. At most one live artifact exists per pair;
// regeneration replaces it.
type Artifact struct {
	SubjectID string       `json:"subject_id"`
	Type      ArtifactType `json:"type"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewArtifact creates a validated Artifact with the creation timestamp set.
func NewArtifact(subjectID string, kind ArtifactType, content string) (*Artifact, error) {
	a := &Artifact{
		SubjectID: subjectID,
		Type:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// Validate checks if the Artifact has valid data.
func (a *Artifact) Validate() error {
	if a.SubjectID == "" {
		return ErrEmptySubjectID
	}

	if a.Content == "" {
		return ErrEmptyContent
	}

	if !IsValidArtifactType(a.Type) {
		return ErrInvalidArtifact
	}

	return nil
}

// Age reports how long ago the artifact was created.
func (a *Artifact) Age(now time.Time) time.Duration {
	return now.Sub(a.CreatedAt)
}

// IsValidArtifactType checks if the given type is one the engine can generate.
func IsValidArtifactType(kind ArtifactType) bool {
	switch kind {
	case ArtifactSummary, ArtifactTags, ArtifactCategory, ArtifactSEO:
		return true
	default:
		return false
	}
}

// SEOPayload is the structured content of an ArtifactSEO artifact.
type SEOPayload struct {
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// ParseSEOPayload decodes and validates the JSON body of an SEO artifact.
func ParseSEOPayload(content string) (*SEOPayload, error) {
	var p SEOPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, ErrInvalidSEOPayload
	}
	if p.Description == "" || p.Keywords == "" {
		return nil, ErrInvalidSEOPayload
	}
	return &p, nil
}
