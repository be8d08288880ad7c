package handler

import (
	"net/http"
	"time"

	"storymagic/internal/middleware"
	"storymagic/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler bundles the HTTP endpoints of the story service.
type Handler struct {
	stories  *service.StoryService
	images   *service.ImageService
	random   *service.RandomDataService
	profiles *service.ProfileService
	verifier *middleware.JWTVerifier

	webhookKey string
	logger     *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(
	stories *service.StoryService,
	images *service.ImageService,
	random *service.RandomDataService,
	profiles *service.ProfileService,
	verifier *middleware.JWTVerifier,
	webhookKey string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		stories:    stories,
		images:     images,
		random:     random,
		profiles:   profiles,
		verifier:   verifier,
		webhookKey: webhookKey,
		logger:     logger.Named("Handler"),
	}
}

// RegisterRoutes attaches all endpoints to the router. The webhook receivers
// answer cross-origin requests from anywhere because the automation platform
// calls them from changing hosts; the rest of the API is restricted to the
// configured frontend origins.
func (h *Handler) RegisterRoutes(router *gin.Engine, allowedOrigins []string) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	webhooks := router.Group("/api")
	webhooks.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	// Generation and polling
	api.POST("/generate-story", middleware.OptionalAuth(h.verifier, h.logger), h.GenerateStory)
	api.POST("/random-story-data", h.RandomStoryData)
	api.GET("/ws/story-status", h.StatusSubscription)

	// Inbound webhook surface used by the automation platform
	webhooks.POST("/webhook", middleware.WebhookKeyAuth(h.webhookKey, h.logger), h.StatusWebhook)
	webhooks.GET("/webhook", h.StoryStatus)
	webhooks.POST("/image-webhook", middleware.WebhookKeyAuth(h.webhookKey, h.logger), h.ImageWebhook)
	// Preflight requests must match a route for the CORS middleware to run.
	webhooks.OPTIONS("/webhook", preflight)
	webhooks.OPTIONS("/image-webhook", preflight)

	// Catalog
	api.GET("/stories", h.ListStories)
	api.GET("/stories/:slug", h.StoryBySlug)
	api.GET("/story/:id", h.StoryByID)

	// Image migration (operator endpoint, guarded like the webhooks)
	api.POST("/migrate-images", middleware.WebhookKeyAuth(h.webhookKey, h.logger), h.MigrateImages)
	api.GET("/migrate-images", middleware.WebhookKeyAuth(h.webhookKey, h.logger), h.MigrationStatus)

	// Profiles
	me := api.Group("/me", middleware.RequireAuth(h.verifier, h.logger))
	me.GET("/profile", h.MyProfile)
	me.PUT("/profile", h.UpdateMyProfile)
	me.DELETE("/profile", h.DeleteMyProfile)
	me.GET("/stories", h.MyStories)
	api.GET("/users/:username", h.ProfileByUsername)
}

// preflight exists so OPTIONS requests reach the CORS middleware, which
// answers them itself.
func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
