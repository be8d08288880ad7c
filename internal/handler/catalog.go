package handler

import (
	"net/http"
	"strconv"

	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
)

// ListStories handles GET /api/stories, the public catalog.
func (h *Handler) ListStories(c *gin.Context) {
	filter := models.StoryListFilter{
		Search:      c.Query("search"),
		StoryType:   c.Query("storyType"),
		AgeGroup:    c.Query("ageGroup"),
		ReadingTime: c.Query("readingTime"),
		SortBy:      c.DefaultQuery("sortBy", "newest"),
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.stories.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StoryBySlug handles GET /api/stories/:slug, the canonical reader URL.
func (h *Handler) StoryBySlug(c *gin.Context) {
	story, err := h.stories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// StoryByID handles GET /api/story/:id, the fallback reader URL for stories
// without a slug yet.
func (h *Handler) StoryByID(c *gin.Context) {
	story, err := h.stories.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}
