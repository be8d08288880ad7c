package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"storymagic/internal/models"
	"storymagic/internal/repository"
	"storymagic/internal/slug"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSlugAttempts bounds the suffix search when a generated slug collides.
const maxSlugAttempts = 25

// StoryService owns the story generation lifecycle: accepting requests,
// applying status updates delivered by the automation platform and serving
// the poll read path.
type StoryService struct {
	repo       repository.StoryRepository
	cache      repository.StatusCache
	dispatcher WebhookDispatcher
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewStoryService creates a StoryService.
func NewStoryService(
	repo repository.StoryRepository,
	cache repository.StatusCache,
	dispatcher WebhookDispatcher,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		repo:       repo,
		cache:      cache,
		dispatcher: dispatcher,
		cacheTTL:   cacheTTL,
		logger:     logger.Named("StoryService"),
	}
}

const storyIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewStoryID builds an identifier in the story-<millis>-<suffix> form the
// frontend and the automation platform already rely on.
func NewStoryID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = storyIDAlphabet[rand.IntN(len(storyIDAlphabet))]
	}
	return fmt.Sprintf("story-%d-%s", time.Now().UnixMilli(), suffix)
}

// GenerateStory validates the request, persists the story in the generating
// state and hands it to the automation platform. The row is written before
// the dispatch so an accepted id is always pollable.
func (s *StoryService) GenerateStory(ctx context.Context, req *models.GenerateStoryRequest, authorID *uuid.UUID) (*models.GenerateStoryResponse, error) {
	if req.Character == "" || req.AgeGroup == "" || req.StoryType == "" {
		return nil, fmt.Errorf("%w: Charakter, Alter Zielgruppe und Art der Geschichte sind erforderlich", models.ErrValidation)
	}

	story := &models.Story{
		ID:          NewStoryID(),
		Character:   req.Character,
		AgeGroup:    req.AgeGroup,
		StoryType:   req.StoryType,
		ExtraWishes: req.ExtraWishes,
		ReadingTime: req.ReadingTime,
		AuthorID:    authorID,
	}
	if err := s.repo.Create(ctx, story); err != nil {
		return nil, err
	}

	payload := &models.DispatchPayload{
		ID:          story.ID,
		Character:   story.Character,
		AgeGroup:    story.AgeGroup,
		ExtraWishes: story.ExtraWishes,
		StoryType:   story.StoryType,
		ReadingTime: story.ReadingTime,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.dispatcher.Dispatch(ctx, payload); err != nil {
		// The platform never saw this story, so no webhook will arrive.
		// Mark the row failed so pollers stop immediately.
		if markErr := s.repo.ApplyStatusUpdate(ctx, story.ID, repository.StatusPatch{
			Status: models.StoryStatusFailed,
		}); markErr != nil {
			s.logger.Error("Failed to mark undispatched story as failed",
				zap.Error(markErr), zap.String("storyID", story.ID))
		}
		return nil, err
	}

	return &models.GenerateStoryResponse{
		ID:      story.ID,
		Status:  models.StoryStatusGenerating,
		Message: "Geschichte wird erstellt...",
	}, nil
}

// ApplyStatusUpdate persists one inbound webhook delivery and returns the
// German acknowledgement message for the sender.
func (s *StoryService) ApplyStatusUpdate(ctx context.Context, upd *models.StatusUpdate) (string, error) {
	if upd.ID == "" {
		return "", fmt.Errorf("%w: Story ID ist erforderlich", models.ErrValidation)
	}
	if !models.IsValidStoryStatus(upd.Status) {
		return "", fmt.Errorf("%w: Gültiger Status ist erforderlich (partial, completed oder failed)", models.ErrValidation)
	}

	current, err := s.repo.GetByID(ctx, upd.ID)
	if err != nil {
		return "", err
	}
	if !current.Status.CanTransitionTo(upd.Status) {
		return "", fmt.Errorf("%w: %s -> %s", models.ErrStaleStatusUpdate, current.Status, upd.Status)
	}

	patch := repository.StatusPatch{Status: upd.Status}
	if upd.Title != "" {
		patch.Title = &upd.Title
	}
	if upd.Story != "" {
		patch.Story = &upd.Story
	}
	if upd.PartialStory != "" {
		patch.PartialStory = &upd.PartialStory
	}
	if upd.IsPartial != nil {
		patch.IsPartial = upd.IsPartial
	}

	switch {
	case upd.Slug != "":
		patch.Slug = &upd.Slug
		err = s.repo.ApplyStatusUpdate(ctx, upd.ID, patch)
	case upd.Title != "" && current.Slug == nil:
		err = s.applyWithGeneratedSlug(ctx, current, upd.Title, patch)
	default:
		err = s.repo.ApplyStatusUpdate(ctx, upd.ID, patch)
	}
	if err != nil {
		return "", err
	}

	if cacheErr := s.cache.Invalidate(ctx, upd.ID); cacheErr != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(cacheErr), zap.String("storyID", upd.ID))
	}

	switch upd.Status {
	case models.StoryStatusCompleted:
		return "Geschichte erfolgreich empfangen", nil
	case models.StoryStatusFailed:
		return "Geschichte als fehlgeschlagen markiert", nil
	default:
		return "Teilgeschichte empfangen", nil
	}
}

// applyWithGeneratedSlug derives a slug from the delivered title and retries
// with numeric suffixes while the unique constraint rejects the candidate.
func (s *StoryService) applyWithGeneratedSlug(ctx context.Context, story *models.Story, title string, patch repository.StatusPatch) error {
	base := slug.ForStory(title, story.Character, story.StoryType)

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}
		patch.Slug = &candidate

		err := s.repo.ApplyStatusUpdate(ctx, story.ID, patch)
		if err == nil {
			if attempt > 0 {
				s.logger.Info("Assigned suffixed slug after collisions",
					zap.String("storyID", story.ID), zap.String("slug", candidate), zap.Int("attempt", attempt))
			}
			return nil
		}
		if !errors.Is(err, models.ErrSlugTaken) {
			return err
		}
	}
	return fmt.Errorf("%w: base %q", models.ErrSlugExhausted, base)
}

// GetStatus serves the poll read path. Unknown ids are reported as still
// generating so that clients racing the initial insert keep polling instead
// of failing.
func (s *StoryService) GetStatus(ctx context.Context, id string) (*models.StoryStatusResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: Story ID ist erforderlich", models.ErrValidation)
	}

	if cached, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn("Status cache read failed, falling back to database", zap.Error(err), zap.String("storyID", id))
	} else if cached != nil {
		return cached, nil
	}

	story, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			return &models.StoryStatusResponse{
				ID:      id,
				Status:  models.StoryStatusGenerating,
				Message: "Geschichte wird noch erstellt...",
			}, nil
		}
		return nil, err
	}

	resp := &models.StoryStatusResponse{
		ID:           story.ID,
		Status:       story.Status,
		Title:        story.Title,
		Slug:         story.Slug,
		StoryType:    story.StoryType,
		Story:        story.Story,
		PartialStory: story.PartialStory,
		IsPartial:    story.IsPartial,
	}
	if err := s.cache.Set(ctx, id, resp, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache status response", zap.Error(err), zap.String("storyID", id))
	}
	return resp, nil
}

// GetByID returns the full story row.
func (s *StoryService) GetByID(ctx context.Context, id string) (*models.Story, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: Story ID ist erforderlich", models.ErrValidation)
	}
	return s.repo.GetByID(ctx, id)
}

// GetBySlug returns the full story row for a canonical reader URL.
func (s *StoryService) GetBySlug(ctx context.Context, slugValue string) (*models.Story, error) {
	if slugValue == "" {
		return nil, fmt.Errorf("%w: Slug ist erforderlich", models.ErrValidation)
	}
	return s.repo.GetBySlug(ctx, slugValue)
}

// List serves the public catalog.
func (s *StoryService) List(ctx context.Context, filter models.StoryListFilter) (*models.StoryListResponse, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	stories, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.StoryListResponse{
		Stories: stories,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// ListByAuthor returns all stories of one author, in-progress ones included.
func (s *StoryService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.StorySummary, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}
