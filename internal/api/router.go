package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/clipseek/internal/api/handler"
	"github.com/timmy/clipseek/internal/api/middleware"
	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	ingestService *service.IngestService,
	searchService *service.SearchService,
	toolService *service.ToolService,
	log *logger.Logger,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cors))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	videoHandler := handler.NewVideoHandler(ingestService)
	searchHandler := handler.NewSearchHandler(searchService)
	toolHandler := handler.NewToolHandler(toolService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Video lifecycle
		v1.POST("/videos/process", videoHandler.Process)
		v1.GET("/videos", videoHandler.List)
		v1.GET("/videos/status", videoHandler.GetStatus)
		v1.DELETE("/videos/:id", videoHandler.Delete)
		v1.POST("/videos/delete-file", videoHandler.DeleteFile)

		// Segment search
		v1.POST("/search/speech", searchHandler.SpeechInfo)
		v1.POST("/search/captions", searchHandler.CaptionInfo)

		// Agent tools
		v1.POST("/tools/clip-from-query", toolHandler.ClipFromQuery)
		v1.POST("/tools/clip-from-image", toolHandler.ClipFromImage)
		v1.POST("/tools/ask", toolHandler.Ask)
	}

	return r
}
