package handler

import (
	"errors"
	"net/http"

	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusWebhook handles POST /api/webhook, the status delivery channel of
// the automation platform. Stale deliveries are rejected with 409 so the
// platform's retry logic never overwrites a newer state.
func (h *Handler) StatusWebhook(c *gin.Context) {
	var upd models.StatusUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Ungültige Anfrage"})
		return
	}

	h.logger.Info("Status webhook received",
		zap.String("storyID", upd.ID),
		zap.String("status", string(upd.Status)),
		zap.Bool("hasStory", upd.Story != ""),
		zap.String("error", upd.Error))

	message, err := h.stories.ApplyStatusUpdate(c.Request.Context(), &upd)
	if err != nil {
		result := "error"
		if errors.Is(err, models.ErrStaleStatusUpdate) {
			result = "stale"
		}
		statusUpdatesTotal.WithLabelValues(string(upd.Status), result).Inc()
		handleServiceError(c, err)
		return
	}

	statusUpdatesTotal.WithLabelValues(string(upd.Status), "ok").Inc()
	c.JSON(http.StatusOK, models.WebhookAck{Success: true, Message: message})
}

// StoryStatus handles GET /api/webhook?id=..., the poll read path of the
// frontend.
func (h *Handler) StoryStatus(c *gin.Context) {
	statusPollsTotal.Inc()

	resp, err := h.stories.GetStatus(c.Request.Context(), c.Query("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
