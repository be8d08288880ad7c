package handler

import (
	"net/http"

	"storymagic/internal/middleware"
	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
)

// MyProfile handles GET /api/me/profile, creating the profile on first
// access.
func (h *Handler) MyProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	profile, err := h.profiles.EnsureProfile(c.Request.Context(), userID, middleware.DisplayNameFromContext(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProfileResponse(profile))
}

// UpdateMyProfile handles PUT /api/me/profile.
func (h *Handler) UpdateMyProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Ungültige Anfrage"})
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProfileResponse(profile))
}

// DeleteMyProfile handles DELETE /api/me/profile. The profile is
// soft-deleted; authored stories stay published under the anonymized
// byline.
func (h *Handler) DeleteMyProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.profiles.DeleteProfile(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MyStories handles GET /api/me/stories, listing the caller's stories
// including in-progress and failed ones.
func (h *Handler) MyStories(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	stories, err := h.stories.ListByAuthor(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// ProfileByUsername handles GET /api/users/:username, the public profile
// page.
func (h *Handler) ProfileByUsername(c *gin.Context) {
	resp, err := h.profiles.GetProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
