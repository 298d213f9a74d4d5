package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/darvell/inkmill/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil passes through", in: nil, want: nil},
		{name: "no rows maps to not found", in: sql.ErrNoRows, want: store.ErrNotFound},
		{
			name: "unique violation maps to duplicate",
			in:   &pgconn.PgError{Code: uniqueViolationCode},
			want: store.ErrDuplicate,
		},
		{
			name: "foreign key violation maps to invalid entity",
			in:   &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "fk_subject"},
			want: store.ErrInvalidEntity,
		},
		{
			name: "check violation maps to invalid entity",
			in:   &pgconn.PgError{Code: checkViolationCode},
			want: store.ErrInvalidEntity,
		},
		{
			name: "not null violation maps to invalid entity",
			in:   &pgconn.PgError{Code: notNullViolationCode, ColumnName: "content"},
			want: store.ErrInvalidEntity,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MapError(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestMapErrorUnknownErrorPassesThrough(t *testing.T) {
	t.Parallel()

	orig := errors.New("connection refused")
	assert.Same(t, orig, MapError(orig))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: uniqueViolationCode})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

// fakeResult implements sql.Result with a fixed row count.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "task"))

	err := CheckRowsAffected(fakeResult{rows: 0}, "task")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "task")

	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, ""), store.ErrNotFound)

	assert.Error(t, CheckRowsAffected(nil, "task"))

	assert.Error(t, CheckRowsAffected(fakeResult{err: errors.New("driver")}, "task"))
}
