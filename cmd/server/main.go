package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storymagic/internal/config"
	"storymagic/internal/handler"
	"storymagic/internal/middleware"
	"storymagic/internal/repository"
	"storymagic/internal/service"
	"storymagic/internal/storage"
	"storymagic/migrations"
	"storymagic/pkg/database"
	"storymagic/pkg/logger"
	"storymagic/pkg/migration"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	encoding := "json"
	if cfg.Env == "development" {
		encoding = "console"
	}
	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: encoding,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	db, err := database.Connect(ctx, database.Config{
		Host:        cfg.DBHost,
		Port:        cfg.DBPort,
		User:        cfg.DBUser,
		Password:    cfg.DBPassword,
		DBName:      cfg.DBName,
		SSLMode:     cfg.DBSSLMode,
		MaxConns:    int32(cfg.DBMaxConns),
		IdleTimeout: cfg.DBIdleTimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, db.Pool)
	if err := migrator.Up(ctx); err != nil {
		zapLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Object storage for cover images
	imageStore, err := storage.NewGCSImageStore(ctx, storage.GCSConfig{
		Bucket:    cfg.StorageBucket,
		ProjectID: cfg.StorageProjectID,
		CDNDomain: cfg.StorageCDNDomain,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize image store", zap.Error(err))
	}

	// Repositories
	storyRepo := repository.NewPgStoryRepository(db.Pool, zapLogger)
	profileRepo := repository.NewPgProfileRepository(db.Pool, zapLogger)
	statusCache := repository.NewRedisStatusCache(redisClient, zapLogger)

	// Services
	dispatcher := service.NewHTTPDispatcher(cfg.AutomationWebhookURL, cfg.DispatchTimeout, zapLogger)
	storyService := service.NewStoryService(storyRepo, statusCache, dispatcher, cfg.StatusCacheTTL, zapLogger)
	imageService := service.NewImageService(storyRepo, imageStore, statusCache, cfg.ImageDownloadTimeout, zapLogger)
	profileService := service.NewProfileService(profileRepo, zapLogger)

	var aiClient service.AIClient
	if cfg.OpenAIAPIKey != "" {
		aiClient = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		zapLogger.Warn("OpenAI API key not configured, random story data will use fallbacks")
	}
	randomService := service.NewRandomDataService(aiClient, cfg.OpenAIModel, zapLogger)

	verifier, err := middleware.NewJWTVerifier(cfg.AuthJWTSecret, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize JWT verifier", zap.Error(err))
	}

	// HTTP server
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.ZapLoggingMiddleware(zapLogger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("storymagic")
	p.Use(router)

	h := handler.NewHandler(storyService, imageService, randomService, profileService,
		verifier, cfg.WebhookAPIKey, zapLogger)
	h.RegisterRoutes(router, cfg.GetAllowedOrigins())

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("HTTP server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	zapLogger.Info("Server stopped")
}
