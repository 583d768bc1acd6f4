package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/clipseek/internal/api"
	"github.com/timmy/clipseek/internal/api/middleware"
	"github.com/timmy/clipseek/internal/config"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/media"
	"github.com/timmy/clipseek/internal/repository"
	"github.com/timmy/clipseek/internal/service"
	"github.com/timmy/clipseek/internal/storage"
)

func main() {
	// Initialize logger from environment
	appLogger := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	videoRepo := repository.NewVideoRepository(db)
	frameRepo := repository.NewFrameRepository(db)
	audioRepo := repository.NewAudioRepository(db)

	// One index per collection: frame visuals, frame captions, transcripts
	ctx := context.Background()
	newIndex := func(collection string, dimension int) *repository.QdrantIndex {
		index, err := repository.NewQdrantIndex(&repository.QdrantIndexConfig{
			Host:            cfg.Qdrant.Host,
			Port:            cfg.Qdrant.Port,
			Collection:      collection,
			APIKey:          cfg.Qdrant.APIKey,
			UseTLS:          cfg.Qdrant.UseTLS,
			VectorDimension: dimension,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize Qdrant index")
		}
		if err := index.EnsureCollection(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
		}
		return index
	}

	visualIndex := newIndex(cfg.Qdrant.FrameVisualCollection, cfg.Embedding.ImageDimensions)
	defer visualIndex.Close()
	captionIndex := newIndex(cfg.Qdrant.FrameCaptionCollection, cfg.Embedding.TextDimensions)
	defer captionIndex.Close()
	audioIndex := newIndex(cfg.Qdrant.AudioTextCollection, cfg.Embedding.TextDimensions)
	defer audioIndex.Close()

	// Initialize storage (supports MinIO, R2, S3)
	objectStorage, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize model API clients
	embeddingService := service.NewEmbeddingService(&cfg.Embedding)
	transcriptionService := service.NewTranscriptionService(&cfg.Transcription)
	captionService := service.NewCaptionService(&cfg.Caption)

	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)

	// Initialize services
	ingestService := service.NewIngestService(
		videoRepo,
		frameRepo,
		audioRepo,
		objectStorage,
		ffmpeg,
		transcriptionService,
		captionService,
		embeddingService,
		embeddingService,
		visualIndex,
		captionIndex,
		audioIndex,
		cfg,
		appLogger,
	)

	searchService := service.NewSearchService(
		videoRepo,
		frameRepo,
		audioRepo,
		embeddingService,
		embeddingService,
		visualIndex,
		captionIndex,
		audioIndex,
		cfg.Search,
		appLogger,
	)

	clipService := service.NewClipService(
		searchService,
		videoRepo,
		ffmpeg,
		cfg.Media,
		cfg.Frames.DeltaSeconds,
		appLogger,
	)

	toolService := service.NewToolService(ingestService, searchService, clipService, appLogger)

	// Setup router
	router := api.SetupRouter(ingestService, searchService, toolService, appLogger, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
