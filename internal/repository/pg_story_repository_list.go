package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storymagic/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// storySummaryRow is the scan target for catalog list queries.
type storySummaryRow struct {
	ID              string    `db:"id"`
	Title           *string   `db:"title"`
	Slug            *string   `db:"slug"`
	Character       string    `db:"character"`
	AgeGroup        string    `db:"age_group"`
	StoryType       string    `db:"story_type"`
	ImageURL        *string   `db:"image_url"`
	AuthorName      *string   `db:"author_name"`
	AuthorDeleted   *bool     `db:"author_deleted"`
	ReadingTimeMins int       `db:"reading_time_minutes"`
	CreatedAt       time.Time `db:"created_at"`
}

func (row *storySummaryRow) toSummary() models.StorySummary {
	var author *models.UserProfile
	if row.AuthorName != nil {
		author = &models.UserProfile{DisplayName: *row.AuthorName}
		if row.AuthorDeleted != nil {
			author.IsDeleted = *row.AuthorDeleted
		}
	}
	return models.StorySummary{
		ID:                 row.ID,
		Title:              row.Title,
		Slug:               row.Slug,
		Character:          row.Character,
		AgeGroup:           row.AgeGroup,
		StoryType:          row.StoryType,
		ImageURL:           row.ImageURL,
		AuthorName:         models.AuthorDisplayName(author),
		ReadingTimeMinutes: row.ReadingTimeMins,
		CreatedAt:          row.CreatedAt,
	}
}

// summarySelect matches the frontend's reading-time heuristic: one minute
// per thousand characters of story text, rounded up.
const summarySelect = `
	SELECT s.id, s.title, s.slug, s.character, s.age_group, s.story_type,
		s.image_url, p.display_name AS author_name, p.is_deleted AS author_deleted,
		CEIL(COALESCE(LENGTH(s.story), 0) / 1000.0)::int AS reading_time_minutes,
		s.created_at
	FROM stories s
	LEFT JOIN user_profiles p ON p.id = s.author_id`

// List returns completed catalog entries matching the filter plus the total
// match count for pagination.
func (r *pgStoryRepository) List(ctx context.Context, filter models.StoryListFilter) ([]models.StorySummary, int64, error) {
	where := []string{"s.status = 'completed'"}
	var args []any

	addArg := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Search != "" {
		addArg(`(s.title ILIKE '%%' || $%d || '%%' OR s.character ILIKE '%%' || $%[1]d || '%%' OR s.story ILIKE '%%' || $%[1]d || '%%')`, filter.Search)
	}
	if filter.StoryType != "" {
		addArg("s.story_type = $%d", filter.StoryType)
	}
	if filter.AgeGroup != "" {
		addArg("s.age_group = $%d", filter.AgeGroup)
	}
	switch filter.ReadingTime {
	case "short":
		where = append(where, "CEIL(COALESCE(LENGTH(s.story), 0) / 1000.0) <= 3")
	case "medium":
		where = append(where, "CEIL(COALESCE(LENGTH(s.story), 0) / 1000.0) BETWEEN 4 AND 7")
	case "long":
		where = append(where, "CEIL(COALESCE(LENGTH(s.story), 0) / 1000.0) >= 8")
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM stories s` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count stories", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count stories: %w", err)
	}

	var orderBy string
	switch filter.SortBy {
	case "oldest":
		orderBy = "s.created_at ASC"
	case "title":
		orderBy = "s.title ASC NULLS LAST, s.created_at DESC"
	case "readingTime":
		orderBy = "reading_time_minutes ASC, s.created_at DESC"
	default: // newest
		orderBy = "s.created_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		summarySelect, whereClause, orderBy, len(args)-1, len(args))

	var rows []storySummaryRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list stories: %w", err)
	}

	summaries := make([]models.StorySummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, rows[i].toSummary())
	}
	return summaries, total, nil
}

// ListByAuthor returns every story of one author, newest first. Unlike the
// public catalog this includes generating and failed rows so the owner can
// watch progress.
func (r *pgStoryRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.StorySummary, error) {
	query := summarySelect + ` WHERE s.author_id = $1 ORDER BY s.created_at DESC`

	var rows []storySummaryRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, authorID); err != nil {
		r.logger.Error("Failed to list stories by author", zap.Error(err), zap.String("authorID", authorID.String()))
		return nil, fmt.Errorf("failed to list stories by author: %w", err)
	}

	summaries := make([]models.StorySummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, rows[i].toSummary())
	}
	return summaries, nil
}

// ListExternallyHostedImages finds completed stories whose cover image still
// points at the automation platform's temporary hosting.
func (r *pgStoryRepository) ListExternallyHostedImages(ctx context.Context, storageHost string, limit int) ([]*models.Story, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + storyFields + ` FROM stories
		WHERE image_url IS NOT NULL AND image_status = 'completed' AND POSITION($1 IN image_url) = 0
		ORDER BY created_at ASC LIMIT $2`

	rows, err := r.db.Query(ctx, query, storageHost, limit)
	if err != nil {
		r.logger.Error("Failed to query externally hosted images", zap.Error(err))
		return nil, fmt.Errorf("failed to query externally hosted images: %w", err)
	}
	defer rows.Close()

	var stories []*models.Story
	for rows.Next() {
		story := &models.Story{}
		if err := rows.Scan(
			&story.ID, &story.Character, &story.AgeGroup, &story.StoryType,
			&story.ExtraWishes, &story.ReadingTime, &story.Title, &story.Slug,
			&story.Story, &story.PartialStory, &story.IsPartial, &story.ImageURL,
			&story.ImageStatus, &story.Status, &story.AuthorID,
			&story.CreatedAt, &story.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// CountImageHosting reports the migration progress: how many completed
// stories have an image and how many of those already live on our storage.
func (r *pgStoryRepository) CountImageHosting(ctx context.Context, storageHost string) (total, migrated int64, err error) {
	query := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE POSITION($1 IN image_url) > 0)
		FROM stories
		WHERE image_url IS NOT NULL AND image_status = 'completed'`

	if err := r.db.QueryRow(ctx, query, storageHost).Scan(&total, &migrated); err != nil {
		r.logger.Error("Failed to count image hosting", zap.Error(err))
		return 0, 0, fmt.Errorf("failed to count image hosting: %w", err)
	}
	return total, migrated, nil
}
