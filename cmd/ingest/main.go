package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/clipseek/internal/config"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/media"
	"github.com/timmy/clipseek/internal/repository"
	"github.com/timmy/clipseek/internal/service"
	"github.com/timmy/clipseek/internal/storage"
)

// One-shot ingestion CLI: process a single video or delete a processed one
// without going through the API server.
func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "clipseek-ingest",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Parse command line flags
	videoPath := flag.String("video", "", "Path to a video inside the shared media directory")
	displayName := flag.String("name", "", "Display name for the video (defaults to file stem)")
	videoID := flag.String("id", "", "Video ID to assign (defaults to a fresh UUID)")
	deleteID := flag.String("delete", "", "Delete all processed data for this video ID instead of ingesting")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *videoPath == "" && *deleteID == "" {
		appLogger.Fatal("Either -video or -delete is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	videoRepo := repository.NewVideoRepository(db)
	frameRepo := repository.NewFrameRepository(db)
	audioRepo := repository.NewAudioRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// Initialize S3-compatible storage (supports R2, S3, MinIO)
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

	embeddingService := service.NewEmbeddingService(&cfg.Embedding)
	transcriptionService := service.NewTranscriptionService(&cfg.Transcription)
	captionService := service.NewCaptionService(&cfg.Caption)
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)

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

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	if *deleteID != "" {
		deleted, err := ingestService.DeleteVideo(ctx, *deleteID)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to delete video")
		}
		appLogger.WithFields(logger.Fields{
			"video_id": *deleteID,
			"deleted":  deleted,
		}).Info("Delete completed")
		return
	}

	result, err := ingestService.ProcessVideo(ctx, *videoPath, *displayName, *videoID)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to process video")
	}

	appLogger.WithFields(logger.Fields{
		"video_id":          result.VideoID,
		"display_name":      result.DisplayName,
		"already_processed": result.AlreadyProcessed,
		"frames":            result.FrameCount,
		"audio_chunks":      result.AudioChunkCount,
	}).Info("Ingestion completed")
}
