package repository

import (
	"context"
	"errors"
	"testing"

	"storymagic/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

// errorDB answers every statement with a fixed error.
type errorDB struct{ err error }

func (db errorDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, db.err
}

func (db errorDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, db.err
}

func (db errorDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{err: db.err}
}

func uniqueViolation(constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func TestProfileCreateConflictMapping(t *testing.T) {
	ctx := context.Background()
	profile := &models.UserProfile{ID: uuid.New(), DisplayName: "Anna"}

	t.Run("Primary key collision maps to profile exists", func(t *testing.T) {
		// Two concurrent first-access requests for the same user collide
		// on the primary key, not on the username constraint.
		repo := NewPgProfileRepository(errorDB{err: uniqueViolation("user_profiles_pkey")}, zap.NewNop())

		err := repo.Create(ctx, profile)

		assert.ErrorIs(t, err, models.ErrProfileExists)
		assert.NotErrorIs(t, err, models.ErrUsernameTaken)
	})

	t.Run("Username collision maps to username taken", func(t *testing.T) {
		repo := NewPgProfileRepository(errorDB{err: uniqueViolation("user_profiles_username_key")}, zap.NewNop())

		err := repo.Create(ctx, profile)

		assert.ErrorIs(t, err, models.ErrUsernameTaken)
	})

	t.Run("Other errors wrapped without a sentinel", func(t *testing.T) {
		repo := NewPgProfileRepository(errorDB{err: errors.New("connection reset")}, zap.NewNop())

		err := repo.Create(ctx, profile)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrProfileExists)
		assert.NotErrorIs(t, err, models.ErrUsernameTaken)
	})
}

func TestSummaryAuthorLabels(t *testing.T) {
	name := "Anna"
	empty := ""
	deleted := true
	notDeleted := false

	cases := []struct {
		name string
		row  storySummaryRow
		want string
	}{
		{"No author row", storySummaryRow{}, models.AnonymousAuthorTag},
		{"Living author", storySummaryRow{AuthorName: &name, AuthorDeleted: &notDeleted}, "Anna"},
		{"Deleted author", storySummaryRow{AuthorName: &name, AuthorDeleted: &deleted}, models.DeletedUserLabel},
		{"Empty display name", storySummaryRow{AuthorName: &empty, AuthorDeleted: &notDeleted}, models.UnknownUserLabel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.row.toSummary().AuthorName)
		})
	}
}
