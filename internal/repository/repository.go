package repository

import (
	"context"
	"time"

	"storymagic/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StatusPatch carries the optional fields of one inbound status update.
// Nil pointers leave the stored value untouched.
type StatusPatch struct {
	Status       models.StoryStatus
	Title        *string
	Slug         *string
	Story        *string
	PartialStory *string
	IsPartial    *bool
}

// StoryRepository defines the persistence operations of the story lifecycle.
type StoryRepository interface {
	// Create inserts a new story row in the generating state.
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id string) (*models.Story, error)
	GetBySlug(ctx context.Context, slug string) (*models.Story, error)
	// ApplyStatusUpdate persists a webhook delivery. It enforces the
	// forward-only transition guard (models.ErrStaleStatusUpdate) and
	// reports slug unique-constraint violations as models.ErrSlugTaken so
	// the caller can retry with the next suffix.
	ApplyStatusUpdate(ctx context.Context, id string, patch StatusPatch) error
	// UpdateImage persists the cover-image URL and sub-state.
	UpdateImage(ctx context.Context, id string, imageURL *string, status models.ImageStatus) error
	// List returns completed catalog entries plus the unfiltered total.
	List(ctx context.Context, filter models.StoryListFilter) ([]models.StorySummary, int64, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.StorySummary, error)
	// ListExternallyHostedImages returns completed stories whose image URL
	// does not point at our object storage yet (image migration).
	ListExternallyHostedImages(ctx context.Context, storageHost string, limit int) ([]*models.Story, error)
	// CountImageHosting reports how many completed stories carry an image
	// at all and how many of them are already served from our storage.
	CountImageHosting(ctx context.Context, storageHost string) (total, migrated int64, err error)
}

// ProfileRepository defines the user-profile persistence operations.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	GetByUsername(ctx context.Context, username string) (*models.UserProfile, error)
	Create(ctx context.Context, profile *models.UserProfile) error
	Update(ctx context.Context, profile *models.UserProfile) error
	// SoftDelete flags the profile as deleted; the row and the authored
	// stories are never removed.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// StatusCache is a short-TTL cache in front of the poll read path.
type StatusCache interface {
	Get(ctx context.Context, id string) (*models.StoryStatusResponse, error)
	Set(ctx context.Context, id string, resp *models.StoryStatusResponse, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
}
