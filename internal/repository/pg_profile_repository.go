package repository

import (
	"context"
	"errors"
	"fmt"

	"storymagic/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var _ ProfileRepository = (*pgProfileRepository)(nil)

const profileFields = `id, display_name, username, avatar_url, bio, is_deleted, deleted_at, created_at, updated_at`

type pgProfileRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgProfileRepository creates a new PostgreSQL-backed ProfileRepository.
func NewPgProfileRepository(db DBTX, logger *zap.Logger) ProfileRepository {
	return &pgProfileRepository{
		db:     db,
		logger: logger.Named("PgProfileRepo"),
	}
}

func (r *pgProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	query := `SELECT ` + profileFields + ` FROM user_profiles WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *pgProfileRepository) GetByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	query := `SELECT ` + profileFields + ` FROM user_profiles WHERE username = $1 AND is_deleted = false`
	return r.getOne(ctx, query, username)
}

func (r *pgProfileRepository) getOne(ctx context.Context, query string, arg any) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	if err := pgxscan.Get(ctx, r.db, profile, query, arg); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrProfileNotFound
		}
		r.logger.Error("Failed to get profile", zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *pgProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	query := `INSERT INTO user_profiles (id, display_name, username, avatar_url, bio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING is_deleted, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		profile.ID, profile.DisplayName, profile.Username, profile.AvatarURL, profile.Bio,
	).Scan(&profile.IsDeleted, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if isProfileConflict(err) {
			return models.ErrProfileExists
		}
		if isUsernameConflict(err) {
			return models.ErrUsernameTaken
		}
		r.logger.Error("Failed to create profile", zap.Error(err), zap.String("profileID", profile.ID.String()))
		return fmt.Errorf("failed to create profile: %w", err)
	}
	r.logger.Info("Profile created", zap.String("profileID", profile.ID.String()))
	return nil
}

func (r *pgProfileRepository) Update(ctx context.Context, profile *models.UserProfile) error {
	query := `UPDATE user_profiles
		SET display_name = $2, username = $3, avatar_url = $4, bio = $5, updated_at = NOW()
		WHERE id = $1 AND is_deleted = false
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		profile.ID, profile.DisplayName, profile.Username, profile.AvatarURL, profile.Bio,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrProfileNotFound
		}
		if isUsernameConflict(err) {
			return models.ErrUsernameTaken
		}
		r.logger.Error("Failed to update profile", zap.Error(err), zap.String("profileID", profile.ID.String()))
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// SoftDelete anonymizes the row in place. Authored stories keep their
// author_id so the byline can render the deleted-user label.
func (r *pgProfileRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE user_profiles
		SET is_deleted = true, deleted_at = NOW(), username = NULL,
			avatar_url = NULL, bio = NULL, updated_at = NOW()
		WHERE id = $1 AND is_deleted = false`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to soft-delete profile", zap.Error(err), zap.String("profileID", id.String()))
		return fmt.Errorf("failed to soft-delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}
	r.logger.Info("Profile soft-deleted", zap.String("profileID", id.String()))
	return nil
}

func isUsernameConflict(err error) bool {
	return isUniqueViolation(err, "user_profiles_username_key")
}

// isProfileConflict detects a primary-key collision, which happens when two
// first-access requests for the same user create the profile concurrently.
func isProfileConflict(err error) bool {
	return isUniqueViolation(err, "user_profiles_pkey")
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
