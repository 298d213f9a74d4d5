package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArtifact(t *testing.T) {
	a, err := NewArtifact("post-42", ArtifactSummary, "a short summary")
	require.NoError(t, err)
	assert.Equal(t, "post-42", a.SubjectID)
	assert.Equal(t, ArtifactSummary, a.Type)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestNewArtifactValidation(t *testing.T) {
	tests := []struct {
		name      string
		subjectID string
		kind      ArtifactType
		content   string
		wantErr   error
	}{
		{"empty subject", "", ArtifactSummary, "x", ErrEmptySubjectID},
		{"empty content", "post-1", ArtifactTags, "", ErrEmptyContent},
		{"unknown type", "post-1", ArtifactType("outline"), "x", ErrInvalidArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArtifact(tt.subjectID, tt.kind, tt.content)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestArtifactAge(t *testing.T) {
	a, err := NewArtifact("post-1", ArtifactSEO, `{"description":"d","keywords":"k"}`)
	require.NoError(t, err)

	now := a.CreatedAt.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, a.Age(now))
}

func TestParseSEOPayload(t *testing.T) {
	p, err := ParseSEOPayload(`{"description":"a blog post","keywords":"go,testing"}`)
	require.NoError(t, err)
	assert.Equal(t, "a blog post", p.Description)
	assert.Equal(t, "go,testing", p.Keywords)

	_, err = ParseSEOPayload(`not json`)
	assert.ErrorIs(t, err, ErrInvalidSEOPayload)

	_, err = ParseSEOPayload(`{"description":"","keywords":"k"}`)
	assert.ErrorIs(t, err, ErrInvalidSEOPayload)
}
