package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storymagic/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgStoryRepository implements StoryRepository
var _ StoryRepository = (*pgStoryRepository)(nil)

const storyFields = `id, character, age_group, story_type, extra_wishes, reading_time,
	title, slug, story, partial_story, is_partial, image_url, image_status,
	status, author_id, created_at, updated_at`

type pgStoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

// Create inserts a new story row. The status is forced to generating here:
// every story starts its lifecycle in that state regardless of the caller.
func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	query := `INSERT INTO stories (id, character, age_group, story_type, extra_wishes, reading_time, status, image_status, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, 'generating', 'generating', $7)
		RETURNING status, image_status, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("storyID", story.ID))

	err := r.db.QueryRow(ctx, query,
		story.ID, story.Character, story.AgeGroup, story.StoryType,
		story.ExtraWishes, story.ReadingTime, story.AuthorID,
	).Scan(&story.Status, &story.ImageStatus, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert story", zap.Error(err), zap.String("storyID", story.ID))
		return fmt.Errorf("failed to insert story %s: %w", story.ID, err)
	}
	r.logger.Info("Story created", zap.String("storyID", story.ID))
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	query := `SELECT ` + storyFields + ` FROM stories WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *pgStoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Story, error) {
	query := `SELECT ` + storyFields + ` FROM stories WHERE slug = $1`
	return r.getOne(ctx, query, slug)
}

func (r *pgStoryRepository) getOne(ctx context.Context, query string, arg any) (*models.Story, error) {
	story := &models.Story{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&story.ID, &story.Character, &story.AgeGroup, &story.StoryType,
		&story.ExtraWishes, &story.ReadingTime, &story.Title, &story.Slug,
		&story.Story, &story.PartialStory, &story.IsPartial, &story.ImageURL,
		&story.ImageStatus, &story.Status, &story.AuthorID,
		&story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

// ApplyStatusUpdate persists one webhook delivery. The WHERE clause encodes
// the forward-only transition guard: redelivering the current status is
// allowed (idempotent overwrite), regressing from a newer or terminal state
// is not. A zero rows-affected result is disambiguated with a follow-up
// status read.
func (r *pgStoryRepository) ApplyStatusUpdate(ctx context.Context, id string, patch StatusPatch) error {
	set := []string{"status = $2", "updated_at = now()"}
	args := []any{id, patch.Status}

	addField := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		addField("title", *patch.Title)
	}
	if patch.Slug != nil {
		addField("slug", *patch.Slug)
	}
	if patch.Story != nil {
		addField("story", *patch.Story)
	}
	if patch.PartialStory != nil {
		addField("partial_story", *patch.PartialStory)
	}
	if patch.IsPartial != nil {
		addField("is_partial", *patch.IsPartial)
	}

	query := fmt.Sprintf(`UPDATE stories SET %s
		WHERE id = $1 AND (
			status = $2
			OR (
				status NOT IN ('completed', 'failed')
				AND (CASE status WHEN 'generating' THEN 0 WHEN 'partial' THEN 1 ELSE 2 END)
					<= (CASE $2::text WHEN 'generating' THEN 0 WHEN 'partial' THEN 1 ELSE 2 END)
			)
		)`, strings.Join(set, ", "))

	r.logger.Debug("Executing query", zap.String("query", query), zap.String("storyID", id), zap.String("status", string(patch.Status)))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "stories_slug_key" {
			r.logger.Warn("Slug already in use, caller should retry with a suffix",
				zap.String("storyID", id), zap.Stringp("slug", patch.Slug))
			return models.ErrSlugTaken
		}
		r.logger.Error("Failed to apply status update", zap.Error(err), zap.String("storyID", id))
		return fmt.Errorf("failed to apply status update for %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		var current models.StoryStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM stories WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrStoryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read story status for %s: %w", id, err)
		}
		r.logger.Warn("Rejected stale status update",
			zap.String("storyID", id),
			zap.String("current", string(current)),
			zap.String("delivered", string(patch.Status)),
		)
		return models.ErrStaleStatusUpdate
	}

	r.logger.Info("Status update applied", zap.String("storyID", id), zap.String("status", string(patch.Status)))
	return nil
}

func (r *pgStoryRepository) UpdateImage(ctx context.Context, id string, imageURL *string, status models.ImageStatus) error {
	var query string
	var tag pgconn.CommandTag
	var err error
	if imageURL != nil {
		query = `UPDATE stories SET image_url = $2, image_status = $3, updated_at = now() WHERE id = $1`
		tag, err = r.db.Exec(ctx, query, id, *imageURL, status)
	} else {
		query = `UPDATE stories SET image_status = $2, updated_at = now() WHERE id = $1`
		tag, err = r.db.Exec(ctx, query, id, status)
	}
	if err != nil {
		r.logger.Error("Failed to update story image", zap.Error(err), zap.String("storyID", id))
		return fmt.Errorf("failed to update image for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story image updated", zap.String("storyID", id), zap.String("imageStatus", string(status)))
	return nil
}
