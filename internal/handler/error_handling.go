package handler

import (
	"errors"
	"net/http"
	"strings"

	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError maps service errors onto HTTP statuses and the German
// error messages the frontend expects.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, models.ErrValidation):
		statusCode = http.StatusBadRequest
		message = stripSentinel(err, models.ErrValidation)
	case errors.Is(err, models.ErrStoryNotFound):
		statusCode = http.StatusNotFound
		message = "Geschichte nicht gefunden"
	case errors.Is(err, models.ErrProfileNotFound):
		statusCode = http.StatusNotFound
		message = "Profil nicht gefunden"
	case errors.Is(err, models.ErrStaleStatusUpdate):
		statusCode = http.StatusConflict
		message = "Veralteter Status wurde abgelehnt"
	case errors.Is(err, models.ErrSlugTaken), errors.Is(err, models.ErrSlugExhausted):
		statusCode = http.StatusConflict
		message = "Slug bereits vergeben"
	case errors.Is(err, models.ErrUsernameTaken):
		statusCode = http.StatusConflict
		message = "Benutzername bereits vergeben"
	case errors.Is(err, models.ErrUpstreamDispatch):
		statusCode = http.StatusInternalServerError
		message = "Webhook-Fehler: " + stripSentinel(err, models.ErrUpstreamDispatch)
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrTokenMalformed),
		errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		message = "Unauthorized"
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "Zugriff verweigert"
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		message = "Interner Server-Fehler"
	}

	c.AbortWithStatusJSON(statusCode, models.ErrorResponse{Error: message})
}

// stripSentinel drops the wrapping sentinel text so only the human-readable
// detail reaches the client.
func stripSentinel(err error, sentinel error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != msg {
		return trimmed
	}
	return msg
}
