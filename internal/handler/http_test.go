package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storymagic/internal/handler"
	"storymagic/internal/middleware"
	"storymagic/internal/mocks"
	"storymagic/internal/models"
	"storymagic/internal/repository"
	"storymagic/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testWebhookKey = "test-webhook-key"
	testJWTSecret  = "test-jwt-secret"
)

type testEnv struct {
	router      *gin.Engine
	storyRepo   *mocks.MockStoryRepository
	profileRepo *mocks.MockProfileRepository
	cache       *mocks.MockStatusCache
	dispatcher  *mocks.MockDispatcher
	store       *mocks.MockImageStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		storyRepo:   new(mocks.MockStoryRepository),
		profileRepo: new(mocks.MockProfileRepository),
		cache:       new(mocks.MockStatusCache),
		dispatcher:  new(mocks.MockDispatcher),
		store:       new(mocks.MockImageStore),
	}

	logger := zap.NewNop()
	stories := service.NewStoryService(env.storyRepo, env.cache, env.dispatcher, 10*time.Second, logger)
	images := service.NewImageService(env.storyRepo, env.store, env.cache, 5*time.Second, logger)
	random := service.NewRandomDataService(nil, "gpt-3.5-turbo", logger)
	profiles := service.NewProfileService(env.profileRepo, logger)

	verifier, err := middleware.NewJWTVerifier(testJWTSecret, logger)
	require.NoError(t, err)

	h := handler.NewHandler(stories, images, random, profiles, verifier, testWebhookKey, logger)
	env.router = gin.New()
	h.RegisterRoutes(env.router, []string{"http://localhost:3000"})
	return env
}

func (env *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func signToken(t *testing.T, userID uuid.UUID, name string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"name": name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func TestGenerateStoryEndpoint(t *testing.T) {
	t.Run("Accepted request answers with pollable id", func(t *testing.T) {
		env := newTestEnv(t)
		env.storyRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		env.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()

		w := env.do(http.MethodPost, "/api/generate-story", models.GenerateStoryRequest{
			Character: "Ein kleiner Drache",
			AgeGroup:  "4-6 Jahre",
			StoryType: "Abenteuer",
		}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp models.GenerateStoryResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.StoryStatusGenerating, resp.Status)
		assert.Regexp(t, `^story-\d+-[0-9a-z]{9}$`, resp.ID)
		env.storyRepo.AssertExpectations(t)
	})

	t.Run("Missing fields rejected with German message", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/generate-story", models.GenerateStoryRequest{Character: "Held"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Charakter, Alter Zielgruppe und Art der Geschichte sind erforderlich", resp.Error)
	})

	t.Run("Authenticated request ensures a profile", func(t *testing.T) {
		env := newTestEnv(t)
		userID := uuid.New()

		env.profileRepo.On("GetByID", mock.Anything, userID).
			Return(&models.UserProfile{ID: userID, DisplayName: "Anna"}, nil).Once()
		env.storyRepo.On("Create", mock.Anything, mock.MatchedBy(func(story *models.Story) bool {
			return story.AuthorID != nil && *story.AuthorID == userID
		})).Return(nil).Once()
		env.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()

		w := env.do(http.MethodPost, "/api/generate-story", models.GenerateStoryRequest{
			Character: "Ein kleiner Drache",
			AgeGroup:  "4-6 Jahre",
			StoryType: "Abenteuer",
		}, map[string]string{"Authorization": "Bearer " + signToken(t, userID, "Anna")})

		assert.Equal(t, http.StatusOK, w.Code)
		env.profileRepo.AssertExpectations(t)
		env.storyRepo.AssertExpectations(t)
	})
}

func TestStatusWebhookEndpoint(t *testing.T) {
	storyID := "story-1722000-abc123def"

	t.Run("Rejects missing or wrong key", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/webhook", models.StatusUpdate{ID: storyID, Status: models.StoryStatusCompleted}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = env.do(http.MethodPost, "/api/webhook?key=wrong", models.StatusUpdate{ID: storyID, Status: models.StoryStatusCompleted}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Accepts completed delivery", func(t *testing.T) {
		env := newTestEnv(t)
		env.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{
			ID:        storyID,
			Character: "Roboter",
			StoryType: "Abenteuer",
			Status:    models.StoryStatusPartial,
		}, nil).Once()
		env.storyRepo.On("ApplyStatusUpdate", mock.Anything, storyID, mock.Anything).Return(nil).Once()
		env.cache.On("Invalidate", mock.Anything, storyID).Return(nil).Once()

		w := env.do(http.MethodPost, "/api/webhook?key="+testWebhookKey, models.StatusUpdate{
			ID:     storyID,
			Status: models.StoryStatusCompleted,
			Title:  "Der tapfere Roboter",
			Story:  "Es war einmal...",
		}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var ack models.WebhookAck
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
		assert.True(t, ack.Success)
		assert.Equal(t, "Geschichte erfolgreich empfangen", ack.Message)
	})

	t.Run("Stale delivery answers 409", func(t *testing.T) {
		env := newTestEnv(t)
		env.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{
			ID:     storyID,
			Status: models.StoryStatusCompleted,
		}, nil).Once()

		w := env.do(http.MethodPost, "/api/webhook?key="+testWebhookKey, models.StatusUpdate{
			ID:           storyID,
			Status:       models.StoryStatusPartial,
			PartialStory: "Kapitel 1...",
		}, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		env.storyRepo.AssertNotCalled(t, "ApplyStatusUpdate")
	})

	t.Run("Invalid status answers 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/webhook?key="+testWebhookKey, map[string]any{
			"id":     storyID,
			"status": "done",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Gültiger Status ist erforderlich (partial, completed oder failed)", resp.Error)
	})
}

func TestStoryStatusEndpoint(t *testing.T) {
	storyID := "story-1722000-abc123def"

	t.Run("Known story", func(t *testing.T) {
		env := newTestEnv(t)
		title := "Der tapfere Roboter"
		env.cache.On("Get", mock.Anything, storyID).Return(nil, nil).Once()
		env.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{
			ID:     storyID,
			Title:  &title,
			Status: models.StoryStatusCompleted,
		}, nil).Once()
		env.cache.On("Set", mock.Anything, storyID, mock.Anything, mock.Anything).Return(nil).Once()

		w := env.do(http.MethodGet, "/api/webhook?id="+storyID, nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp models.StoryStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.StoryStatusCompleted, resp.Status)
	})

	t.Run("Unknown story reported as generating", func(t *testing.T) {
		env := newTestEnv(t)
		env.cache.On("Get", mock.Anything, storyID).Return(nil, nil).Once()
		env.storyRepo.On("GetByID", mock.Anything, storyID).Return(nil, models.ErrStoryNotFound).Once()

		w := env.do(http.MethodGet, "/api/webhook?id="+storyID, nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp models.StoryStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.StoryStatusGenerating, resp.Status)
		assert.Equal(t, "Geschichte wird noch erstellt...", resp.Message)
	})

	t.Run("Missing id answers 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodGet, "/api/webhook", nil, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Story ID ist erforderlich", resp.Error)
	})
}

func TestImageWebhookEndpoint(t *testing.T) {
	storyID := "story-1722000-abc123def"

	t.Run("Failed image delivery", func(t *testing.T) {
		env := newTestEnv(t)
		env.storyRepo.On("UpdateImage", mock.Anything, storyID, (*string)(nil), models.ImageStatusFailed).Return(nil).Once()
		env.cache.On("Invalidate", mock.Anything, storyID).Return(nil).Once()

		w := env.do(http.MethodPost, "/api/image-webhook?key="+testWebhookKey, models.ImageUpdate{
			ID:          storyID,
			ImageStatus: models.ImageStatusFailed,
			Error:       "generation failed",
		}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var ack models.WebhookAck
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
		assert.Equal(t, "Bild als fehlgeschlagen markiert", ack.Message)
	})

	t.Run("Requires key", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/image-webhook", models.ImageUpdate{ID: storyID, ImageStatus: models.ImageStatusFailed}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Preflight allowed from anywhere", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodOptions, "/api/image-webhook", nil, map[string]string{
			"Origin":                        "https://automation.example",
			"Access-Control-Request-Method": "POST",
		})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCatalogEndpoints(t *testing.T) {
	t.Run("List stories forwards filter", func(t *testing.T) {
		env := newTestEnv(t)
		env.storyRepo.On("List", mock.Anything, mock.MatchedBy(func(filter models.StoryListFilter) bool {
			return filter.StoryType == "Abenteuer" && filter.SortBy == "title" && filter.Limit == 5
		})).Return([]models.StorySummary{}, int64(0), nil).Once()

		w := env.do(http.MethodGet, "/api/stories?storyType=Abenteuer&sortBy=title&limit=5", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		env.storyRepo.AssertExpectations(t)
	})

	t.Run("Story by slug not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.storyRepo.On("GetBySlug", mock.Anything, "kein-treffer").Return(nil, models.ErrStoryNotFound).Once()

		w := env.do(http.MethodGet, "/api/stories/kein-treffer", nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Geschichte nicht gefunden", resp.Error)
	})
}

func TestProfileEndpoints(t *testing.T) {
	userID := uuid.New()

	t.Run("Requires authentication", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodGet, "/api/me/profile", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Creates profile on first access", func(t *testing.T) {
		env := newTestEnv(t)
		env.profileRepo.On("GetByID", mock.Anything, userID).Return(nil, models.ErrProfileNotFound).Once()
		env.profileRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.UserProfile) bool {
			return p.ID == userID && p.DisplayName == "Anna"
		})).Return(nil).Once()

		w := env.do(http.MethodGet, "/api/me/profile", nil,
			map[string]string{"Authorization": "Bearer " + signToken(t, userID, "Anna")})

		assert.Equal(t, http.StatusOK, w.Code)
		var resp models.ProfileResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Anna", resp.DisplayName)
		env.profileRepo.AssertExpectations(t)
	})

	t.Run("Rejects expired token", func(t *testing.T) {
		env := newTestEnv(t)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": userID.String(),
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(testJWTSecret))
		require.NoError(t, err)

		w := env.do(http.MethodGet, "/api/me/profile", nil,
			map[string]string{"Authorization": "Bearer " + signed})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Soft delete answers success", func(t *testing.T) {
		env := newTestEnv(t)
		env.profileRepo.On("SoftDelete", mock.Anything, userID).Return(nil).Once()

		w := env.do(http.MethodDelete, "/api/me/profile", nil,
			map[string]string{"Authorization": "Bearer " + signToken(t, userID, "Anna")})

		assert.Equal(t, http.StatusOK, w.Code)
		env.profileRepo.AssertExpectations(t)
	})

	t.Run("Public profile by username", func(t *testing.T) {
		env := newTestEnv(t)
		username := "anna_liest"
		env.profileRepo.On("GetByUsername", mock.Anything, username).Return(&models.UserProfile{
			ID:          userID,
			DisplayName: "Anna",
			Username:    &username,
		}, nil).Once()

		w := env.do(http.MethodGet, "/api/users/anna_liest", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp models.ProfileResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Anna", resp.DisplayName)
	})
}

func TestMigrateImagesEndpoint(t *testing.T) {
	t.Run("Dry run by default", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.On("Host").Return("storage.googleapis.com")
		env.storyRepo.On("ListExternallyHostedImages", mock.Anything, "storage.googleapis.com", 10).
			Return(nil, nil).Once()

		w := env.do(http.MethodPost, "/api/migrate-images?key="+testWebhookKey, nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		env.storyRepo.AssertExpectations(t)
	})

	t.Run("Guarded by key", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/api/migrate-images", nil, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// Verifies the repository.StatusPatch ends up with the generated slug when a
// completed delivery arrives without one.
func TestWebhookSlugGeneration(t *testing.T) {
	env := newTestEnv(t)
	storyID := "story-1722000-abc123def"

	env.storyRepo.On("GetByID", mock.Anything, storyID).Return(&models.Story{
		ID:        storyID,
		Character: "Roboter",
		StoryType: "Abenteuer",
		Status:    models.StoryStatusGenerating,
	}, nil).Once()
	env.storyRepo.On("ApplyStatusUpdate", mock.Anything, storyID, mock.MatchedBy(func(patch repository.StatusPatch) bool {
		return patch.Slug != nil && *patch.Slug == "der-tapfere-roboter"
	})).Return(nil).Once()
	env.cache.On("Invalidate", mock.Anything, storyID).Return(nil).Once()

	w := env.do(http.MethodPost, "/api/webhook?key="+testWebhookKey, models.StatusUpdate{
		ID:     storyID,
		Status: models.StoryStatusCompleted,
		Title:  "Der tapfere Roboter",
		Story:  "Es war einmal...",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	env.storyRepo.AssertExpectations(t)
}
