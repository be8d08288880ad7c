package handler

import (
	"net/http"

	"storymagic/internal/middleware"
	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateStory handles POST /api/generate-story. The story is persisted
// first and then dispatched to the automation platform, so the returned id
// is pollable immediately.
func (h *Handler) GenerateStory(c *gin.Context) {
	var req models.GenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Ungültige Anfrage"})
		return
	}

	var authorID *uuid.UUID
	if id, ok := middleware.UserIDFromContext(c); ok {
		authorID = &id
		// Make sure the author has a profile row before the story
		// references it.
		if _, err := h.profiles.EnsureProfile(c.Request.Context(), id, middleware.DisplayNameFromContext(c)); err != nil {
			h.logger.Error("Failed to ensure author profile", zap.Error(err), zap.String("userID", id.String()))
			handleServiceError(c, err)
			return
		}
	}

	resp, err := h.stories.GenerateStory(c.Request.Context(), &req, authorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	generationRequestsTotal.Inc()
	c.JSON(http.StatusOK, resp)
}

// RandomStoryData handles POST /api/random-story-data. It always answers
// 200: AI failures degrade to static fallback data.
func (h *Handler) RandomStoryData(c *gin.Context) {
	c.JSON(http.StatusOK, h.random.RandomStoryData(c.Request.Context()))
}
