package handler

import (
	"net/http"

	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageWebhook handles POST /api/image-webhook. Completed images are copied
// into our object storage before the story row is updated.
func (h *Handler) ImageWebhook(c *gin.Context) {
	var upd models.ImageUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Ungültige Anfrage"})
		return
	}

	h.logger.Info("Image webhook received",
		zap.String("storyID", upd.ID),
		zap.String("imageStatus", string(upd.ImageStatus)),
		zap.Bool("hasImageURL", upd.ImageURL != ""),
		zap.String("error", upd.Error))

	message, err := h.images.ApplyImageUpdate(c.Request.Context(), &upd)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	imageUpdatesTotal.WithLabelValues(string(upd.ImageStatus)).Inc()
	c.JSON(http.StatusOK, models.WebhookAck{Success: true, Message: message})
}

// MigrateImages handles POST /api/migrate-images. Without a body the run is
// a dry run.
func (h *Handler) MigrateImages(c *gin.Context) {
	req := models.MigrateImagesRequest{BatchSize: 10}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Ungültige Anfrage"})
			return
		}
	}
	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}
	if req.BatchSize <= 0 {
		req.BatchSize = 10
	}

	report, err := h.images.MigrateImages(c.Request.Context(), dryRun, req.BatchSize)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// MigrationStatus handles GET /api/migrate-images.
func (h *Handler) MigrationStatus(c *gin.Context) {
	status, err := h.images.MigrationStatus(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
