package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storymagic/internal/models"
	"storymagic/internal/repository"
	"storymagic/internal/storage"

	"go.uber.org/zap"
)

// downloadUserAgent is sent when fetching images from the automation
// platform's temporary hosting, which rejects bare Go user agents.
const downloadUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ImageService ingests cover images into durable object storage and runs
// the backfill migration for images still hosted externally.
type ImageService struct {
	repo   repository.StoryRepository
	store  storage.ImageStore
	cache  repository.StatusCache
	client *http.Client
	logger *zap.Logger

	// migrationDelay throttles the backfill loop between stories.
	migrationDelay time.Duration
}

// NewImageService creates an ImageService. downloadTimeout bounds a single
// image download.
func NewImageService(
	repo repository.StoryRepository,
	store storage.ImageStore,
	cache repository.StatusCache,
	downloadTimeout time.Duration,
	logger *zap.Logger,
) *ImageService {
	return &ImageService{
		repo:           repo,
		store:          store,
		cache:          cache,
		client:         &http.Client{Timeout: downloadTimeout},
		logger:         logger.Named("ImageService"),
		migrationDelay: time.Second,
	}
}

// ApplyImageUpdate handles one inbound image webhook delivery. Completed
// images are copied into our storage; when that fails the external URL is
// kept so the story still renders.
func (s *ImageService) ApplyImageUpdate(ctx context.Context, upd *models.ImageUpdate) (string, error) {
	if upd.ID == "" {
		return "", fmt.Errorf("%w: Story ID ist erforderlich", models.ErrValidation)
	}
	if !models.IsValidImageStatus(upd.ImageStatus) {
		return "", fmt.Errorf("%w: Gültiger Image-Status ist erforderlich (generating, completed oder failed)", models.ErrValidation)
	}

	finalURL := upd.ImageURL
	if upd.ImageURL != "" && upd.ImageStatus == models.ImageStatusCompleted {
		stored, err := s.ingest(ctx, upd.ImageURL, "story-"+upd.ID)
		if err != nil {
			s.logger.Error("Could not store image, keeping external URL",
				zap.Error(err), zap.String("storyID", upd.ID), zap.String("imageURL", upd.ImageURL))
		} else {
			finalURL = stored
		}
	}

	var urlPtr *string
	if finalURL != "" {
		urlPtr = &finalURL
	}
	if err := s.repo.UpdateImage(ctx, upd.ID, urlPtr, upd.ImageStatus); err != nil {
		return "", err
	}
	if err := s.cache.Invalidate(ctx, upd.ID); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err), zap.String("storyID", upd.ID))
	}

	if upd.ImageStatus == models.ImageStatusCompleted {
		return "Bild erfolgreich empfangen", nil
	}
	return "Bild als fehlgeschlagen markiert", nil
}

// ingest downloads the image and uploads it under a timestamped key,
// returning the stable public URL.
func (s *ImageService) ingest(ctx context.Context, imageURL, keyPrefix string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	key := fmt.Sprintf("%s-%d.%s", keyPrefix, time.Now().UnixMilli(), extensionFor(contentType))

	storedURL, err := s.store.Upload(ctx, key, contentType, resp.Body)
	if err != nil {
		return "", err
	}
	s.logger.Info("Image stored", zap.String("key", key), zap.String("url", storedURL))
	return storedURL, nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "webp"):
		return "webp"
	case strings.Contains(contentType, "gif"):
		return "gif"
	default:
		return "jpg"
	}
}

// MigrateImages moves externally hosted cover images into our storage. With
// dryRun it only reports what would move.
func (s *ImageService) MigrateImages(ctx context.Context, dryRun bool, batchSize int) (*models.MigrationReport, error) {
	stories, err := s.repo.ListExternallyHostedImages(ctx, s.store.Host(), batchSize)
	if err != nil {
		return nil, err
	}

	if len(stories) == 0 {
		return &models.MigrationReport{
			Success: true,
			Message: "No stories found for migration",
			DryRun:  dryRun,
			Stats:   &models.MigrationStats{},
		}, nil
	}

	if dryRun {
		report := &models.MigrationReport{
			Success: true,
			Message: "Dry run completed",
			DryRun:  true,
			Stats:   &models.MigrationStats{Total: len(stories)},
		}
		for _, story := range stories {
			report.Candidates = append(report.Candidates, models.MigrationCandidate{
				ID:         story.ID,
				Title:      story.Title,
				CurrentURL: derefOrEmpty(story.ImageURL),
			})
		}
		return report, nil
	}

	stats := &models.MigrationStats{Total: len(stories)}
	var results []models.MigrationResult
	for i, story := range stories {
		if i > 0 && s.migrationDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.migrationDelay):
			}
		}

		oldURL := derefOrEmpty(story.ImageURL)
		result := models.MigrationResult{ID: story.ID, Title: story.Title, OldURL: oldURL}

		newURL, err := s.ingest(ctx, oldURL, "migrated-story-"+story.ID)
		if err == nil {
			err = s.repo.UpdateImage(ctx, story.ID, &newURL, models.ImageStatusCompleted)
		}
		if err != nil {
			s.logger.Error("Failed to migrate image", zap.Error(err), zap.String("storyID", story.ID))
			result.Status = "error"
			result.Error = err.Error()
			stats.Errors++
		} else {
			result.Status = "success"
			result.NewURL = newURL
			stats.Successful++
			if err := s.cache.Invalidate(ctx, story.ID); err != nil {
				s.logger.Warn("Failed to invalidate status cache", zap.Error(err), zap.String("storyID", story.ID))
			}
		}
		results = append(results, result)
	}

	return &models.MigrationReport{
		Success: true,
		Message: fmt.Sprintf("Migration completed: %d successful, %d errors", stats.Successful, stats.Errors),
		Results: results,
		Stats:   stats,
	}, nil
}

// MigrationStatus reports how much of the catalog already serves images
// from our storage.
func (s *ImageService) MigrationStatus(ctx context.Context) (*models.MigrationStatus, error) {
	total, migrated, err := s.repo.CountImageHosting(ctx, s.store.Host())
	if err != nil {
		return nil, err
	}
	status := &models.MigrationStatus{
		Total:    total,
		Migrated: migrated,
		Pending:  total - migrated,
	}
	if total > 0 {
		status.Percentage = int(float64(migrated) / float64(total) * 100)
	}
	status.Ready = status.Pending > 0
	return status, nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
