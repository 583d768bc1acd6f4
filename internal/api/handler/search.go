package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/clipseek/internal/service"
	"github.com/timmy/clipseek/internal/validate"
)

// SearchHandler handles the raw search endpoints that return matched
// segments instead of extracted clips.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - searchService: search service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

type searchRequest struct {
	Query    string   `json:"query" binding:"required"`
	VideoIDs []string `json:"video_ids"`
	TopK     int      `json:"top_k"`
}

type segmentSearchFunc func(ctx context.Context, query string, videoIDs []string, topK int) ([]service.SegmentInfo, error)

// SpeechInfo handles POST /api/v1/search/speech.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) SpeechInfo(c *gin.Context) {
	h.segmentSearch(c, h.searchService.SpeechInfo, h.searchService.Config().SpeechTopK)
}

// CaptionInfo handles POST /api/v1/search/captions.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) CaptionInfo(c *gin.Context) {
	h.segmentSearch(c, h.searchService.CaptionInfo, h.searchService.Config().QuestionTopK)
}

func (h *SearchHandler) segmentSearch(c *gin.Context, search segmentSearchFunc, defaultTopK int) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	query, err := validate.Query(req.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	videoIDs, err := validate.VideoIDs(req.VideoIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	if err := h.searchService.Ready(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrNotReady) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "No videos have been processed yet",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results, err := search(c.Request.Context(), query, videoIDs, topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}
