package store

import "context"

// SubjectStore persists the content bodies that artifacts are generated
// from, so deferred tasks can resolve their subject without the original
// request being around.
type SubjectStore interface {
	// Upsert stores the content for a subject, replacing any previous body.
	Upsert(ctx context.Context, subjectID, content string) error

	// GetContent returns the stored content for a subject.
	// Returns ErrSubjectNotFound if the subject is unknown.
	GetContent(ctx context.Context, subjectID string) (string, error)
}
