package middleware

import (
	"crypto/subtle"
	"net/http"

	"storymagic/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookKeyAuth guards the inbound webhook endpoints with a shared secret
// carried in the ?key= query parameter. The automation platform cannot set
// custom headers, so the key travels in the URL.
func WebhookKeyAuth(expectedKey string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.Query("key")
		if expectedKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expectedKey)) != 1 {
			logger.Warn("Unauthorized webhook access attempt",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized - Invalid API key"})
			return
		}
		c.Next()
	}
}
