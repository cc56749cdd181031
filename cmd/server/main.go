package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lumeoapp/lumeo/backend/internal/assets"
	"github.com/lumeoapp/lumeo/backend/internal/cache"
	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/lumeoapp/lumeo/backend/internal/database"
	"github.com/lumeoapp/lumeo/backend/internal/draft"
	"github.com/lumeoapp/lumeo/backend/internal/handlers"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/middleware"
	"github.com/lumeoapp/lumeo/backend/internal/publish"
	"github.com/lumeoapp/lumeo/backend/internal/session"
	"github.com/lumeoapp/lumeo/backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		// .env is optional; system environment still applies
	}

	if err := logger.Initialize(config.GetEnvOrDefault("LOG_LEVEL", "info"), os.Getenv("LOG_FILE")); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()

	logger.Log.Info("Composer backend starting")

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Draft checkpoints go to Redis when configured, otherwise the database
	var draftStore draft.Store
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisClient, err := cache.NewRedisClient(
			redisHost,
			config.GetEnvOrDefault("REDIS_PORT", "6379"),
			os.Getenv("REDIS_PASSWORD"),
		)
		if err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		draftStore = draft.NewRedisStore(redisClient)
		logger.Log.Info("Draft checkpoints backed by Redis")
	} else {
		store, err := draft.NewGormStore(database.DB)
		if err != nil {
			logger.Log.Fatal("Failed to initialize draft store", zap.Error(err))
		}
		draftStore = store
		logger.Log.Info("Draft checkpoints backed by database")
	}

	// Initialize S3 uploader for published images
	s3Uploader, err := storage.NewS3Uploader(
		os.Getenv("AWS_REGION"),
		os.Getenv("AWS_BUCKET"),
		os.Getenv("CDN_BASE_URL"),
	)
	if err != nil {
		logger.Log.Fatal("Failed to initialize S3 uploader", zap.Error(err))
	}
	if err := s3Uploader.CheckBucketAccess(context.Background()); err != nil {
		logger.Log.Warn("S3 bucket access failed; publishing will fail until resolved", zap.Error(err))
	}

	previews := assets.NewPreviewStore("/previews")
	sessions := session.NewService(previews, draftStore)
	defer sessions.Shutdown()

	submitter := publish.NewPostSubmitter(database.DB, s3Uploader)
	h := handlers.NewHandlers(sessions, previews, submitter)

	// Setup Gin router
	gin.SetMode(config.GetEnvOrDefault("GIN_MODE", gin.ReleaseMode))
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-User-ID", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "lumeo-composer",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(r)

	port := config.GetEnvOrDefault("PORT", "8787")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Composer backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
