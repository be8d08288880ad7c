package service_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"storymagic/internal/mocks"
	"storymagic/internal/models"
	"storymagic/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newImageService(repo *mocks.MockStoryRepository, store *mocks.MockImageStore, cache *mocks.MockStatusCache) *service.ImageService {
	return service.NewImageService(repo, store, cache, 5*time.Second, zap.NewNop())
}

func TestApplyImageUpdate(t *testing.T) {
	ctx := context.Background()
	storyID := "story-1722000-abc123def"

	t.Run("Missing story id", func(t *testing.T) {
		svc := newImageService(new(mocks.MockStoryRepository), new(mocks.MockImageStore), new(mocks.MockStatusCache))

		_, err := svc.ApplyImageUpdate(ctx, &models.ImageUpdate{ImageStatus: models.ImageStatusCompleted})

		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Contains(t, err.Error(), "Story ID ist erforderlich")
	})

	t.Run("Invalid image status", func(t *testing.T) {
		svc := newImageService(new(mocks.MockStoryRepository), new(mocks.MockImageStore), new(mocks.MockStatusCache))

		_, err := svc.ApplyImageUpdate(ctx, &models.ImageUpdate{ID: storyID, ImageStatus: "done"})

		assert.ErrorIs(t, err, models.ErrValidation)
		assert.Contains(t, err.Error(), "Gültiger Image-Status ist erforderlich")
	})

	t.Run("Completed image is downloaded and stored", func(t *testing.T) {
		imageBytes := []byte("not-really-a-png")
		var gotUserAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUserAgent = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(imageBytes)
		}))
		defer server.Close()

		mockRepo := new(mocks.MockStoryRepository)
		mockStore := new(mocks.MockImageStore)
		mockCache := new(mocks.MockStatusCache)
		svc := newImageService(mockRepo, mockStore, mockCache)

		storedURL := "https://storage.googleapis.com/story-images/story-" + storyID + "-123.png"
		keyPattern := regexp.MustCompile(`^story-` + regexp.QuoteMeta(storyID) + `-\d+\.png$`)
		mockStore.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
			return keyPattern.MatchString(key)
		}), "image/png", mock.Anything).Run(func(args mock.Arguments) {
			body, _ := io.ReadAll(args.Get(3).(io.Reader))
			assert.Equal(t, imageBytes, body)
		}).Return(storedURL, nil).Once()
		mockRepo.On("UpdateImage", ctx, storyID, &storedURL, models.ImageStatusCompleted).Return(nil).Once()
		mockCache.On("Invalidate", ctx, storyID).Return(nil).Once()

		msg, err := svc.ApplyImageUpdate(ctx, &models.ImageUpdate{
			ID:          storyID,
			ImageURL:    server.URL + "/image.png",
			ImageStatus: models.ImageStatusCompleted,
		})

		assert.NoError(t, err)
		assert.Equal(t, "Bild erfolgreich empfangen", msg)
		assert.Contains(t, gotUserAgent, "Mozilla/5.0")
		mockStore.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Download failure keeps external URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		mockRepo := new(mocks.MockStoryRepository)
		mockStore := new(mocks.MockImageStore)
		mockCache := new(mocks.MockStatusCache)
		svc := newImageService(mockRepo, mockStore, mockCache)

		externalURL := server.URL + "/image.jpg"
		mockRepo.On("UpdateImage", ctx, storyID, &externalURL, models.ImageStatusCompleted).Return(nil).Once()
		mockCache.On("Invalidate", ctx, storyID).Return(nil).Once()

		msg, err := svc.ApplyImageUpdate(ctx, &models.ImageUpdate{
			ID:          storyID,
			ImageURL:    externalURL,
			ImageStatus: models.ImageStatusCompleted,
		})

		assert.NoError(t, err)
		assert.Equal(t, "Bild erfolgreich empfangen", msg)
		mockStore.AssertNotCalled(t, "Upload")
		mockRepo.AssertExpectations(t)
	})

	t.Run("Failed status skips the download", func(t *testing.T) {
		mockRepo := new(mocks.MockStoryRepository)
		mockStore := new(mocks.MockImageStore)
		mockCache := new(mocks.MockStatusCache)
		svc := newImageService(mockRepo, mockStore, mockCache)

		mockRepo.On("UpdateImage", ctx, storyID, (*string)(nil), models.ImageStatusFailed).Return(nil).Once()
		mockCache.On("Invalidate", ctx, storyID).Return(nil).Once()

		msg, err := svc.ApplyImageUpdate(ctx, &models.ImageUpdate{
			ID:          storyID,
			ImageStatus: models.ImageStatusFailed,
		})

		assert.NoError(t, err)
		assert.Equal(t, "Bild als fehlgeschlagen markiert", msg)
		mockStore.AssertNotCalled(t, "Upload")
		mockRepo.AssertExpectations(t)
	})
}

func TestMigrateImages(t *testing.T) {
	ctx := context.Background()
	storyID := "story-1722000-abc123def"
	storageHost := "storage.googleapis.com"

	t.Run("Dry run only reports candidates", func(t *testing.T) {
		mockRepo := new(mocks.MockStoryRepository)
		mockStore := new(mocks.MockImageStore)
		svc := newImageService(mockRepo, mockStore, new(mocks.MockStatusCache))

		title := "Der tapfere Roboter"
		externalURL := "https://cdn.example.com/tmp/cover.png"
		mockStore.On("Host").Return(storageHost)
		mockRepo.On("ListExternallyHostedImages", ctx, storageHost, 10).Return([]*models.Story{
			{ID: storyID, Title: &title, ImageURL: &externalURL},
		}, nil).Once()

		report, err := svc.MigrateImages(ctx, true, 10)

		assert.NoError(t, err)
		assert.True(t, report.DryRun)
		if assert.Len(t, report.Candidates, 1) {
			assert.Equal(t, storyID, report.Candidates[0].ID)
			assert.Equal(t, externalURL, report.Candidates[0].CurrentURL)
		}
		assert.Empty(t, report.Results)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Real run moves the image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/webp")
			_, _ = w.Write([]byte("webp-bytes"))
		}))
		defer server.Close()

		mockRepo := new(mocks.MockStoryRepository)
		mockStore := new(mocks.MockImageStore)
		mockCache := new(mocks.MockStatusCache)
		svc := newImageService(mockRepo, mockStore, mockCache)

		externalURL := server.URL + "/cover.webp"
		storedURL := "https://storage.googleapis.com/story-images/migrated-story-" + storyID + "-1.webp"
		keyPattern := regexp.MustCompile(`^migrated-story-` + regexp.QuoteMeta(storyID) + `-\d+\.webp$`)

		mockStore.On("Host").Return(storageHost)
		mockRepo.On("ListExternallyHostedImages", ctx, storageHost, 10).Return([]*models.Story{
			{ID: storyID, ImageURL: &externalURL},
		}, nil).Once()
		mockStore.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
			return keyPattern.MatchString(key)
		}), "image/webp", mock.Anything).Return(storedURL, nil).Once()
		mockRepo.On("UpdateImage", ctx, storyID, &storedURL, models.ImageStatusCompleted).Return(nil).Once()
		mockCache.On("Invalidate", ctx, storyID).Return(nil).Once()

		report, err := svc.MigrateImages(ctx, false, 10)

		assert.NoError(t, err)
		assert.False(t, report.DryRun)
		assert.Equal(t, 1, report.Stats.Successful)
		assert.Equal(t, 0, report.Stats.Errors)
		if assert.Len(t, report.Results, 1) {
			assert.Equal(t, "success", report.Results[0].Status)
			assert.Equal(t, storedURL, report.Results[0].NewURL)
		}
		mockRepo.AssertExpectations(t)
		mockStore.AssertExpectations(t)
	})

	t.Run("Nothing to migrate", func(t *testing.T) {
		mockRepo := new(mocks.MockStoryRepository)
		mockStore := new(mocks.MockImageStore)
		svc := newImageService(mockRepo, mockStore, new(mocks.MockStatusCache))

		mockStore.On("Host").Return(storageHost)
		mockRepo.On("ListExternallyHostedImages", ctx, storageHost, 10).Return(nil, nil).Once()

		report, err := svc.MigrateImages(ctx, false, 10)

		assert.NoError(t, err)
		assert.Equal(t, "No stories found for migration", report.Message)
	})
}

func TestMigrationStatus(t *testing.T) {
	ctx := context.Background()
	storageHost := "storage.googleapis.com"

	mockRepo := new(mocks.MockStoryRepository)
	mockStore := new(mocks.MockImageStore)
	svc := newImageService(mockRepo, mockStore, new(mocks.MockStatusCache))

	mockStore.On("Host").Return(storageHost)
	mockRepo.On("CountImageHosting", ctx, storageHost).Return(int64(4), int64(3), nil).Once()

	status, err := svc.MigrationStatus(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), status.Total)
	assert.Equal(t, int64(3), status.Migrated)
	assert.Equal(t, int64(1), status.Pending)
	assert.Equal(t, 75, status.Percentage)
	assert.True(t, status.Ready)
}
