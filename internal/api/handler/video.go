package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/timmy/clipseek/internal/logger"
	"github.com/timmy/clipseek/internal/repository"
	"github.com/timmy/clipseek/internal/service"
	"github.com/timmy/clipseek/internal/validate"
)

// VideoHandler handles video lifecycle endpoints: processing, status,
// listing, and the two deletion phases.
type VideoHandler struct {
	ingest *service.IngestService
}

// NewVideoHandler creates a new video handler.
// Parameters:
//   - ingest: ingest service instance.
// Returns:
//   - *VideoHandler: initialized handler.
func NewVideoHandler(ingest *service.IngestService) *VideoHandler {
	return &VideoHandler{
		ingest: ingest,
	}
}

type processRequest struct {
	VideoPath   string `json:"video_path" binding:"required"`
	DisplayName string `json:"display_name"`
	VideoID     string `json:"video_id"`
	Wait        bool   `json:"wait"`
}

// Process handles POST /api/v1/videos/process.
//
// By default processing runs in the background and the handler answers 202;
// clients poll the status endpoints. With "wait": true the request blocks
// until processing finishes and returns the full result.
//
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *VideoHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if req.Wait {
		result, err := h.ingest.ProcessVideo(c.Request.Context(), req.VideoPath, req.DisplayName, req.VideoID)
		if err != nil {
			status := http.StatusInternalServerError
			if validate.IsValidationError(err) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	// Fail fast on bad paths before accepting the background job
	if err := h.ingest.ValidateSource(req.VideoPath); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		base := filepath.Base(req.VideoPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	// The request context dies with the response, so the background run
	// gets a fresh one carrying only log fields
	requestID := logger.GetRequestID(c.Request.Context())
	go func() {
		ctx := logger.WithFields(context.Background(), logger.Fields{
			logger.FieldRequestID: requestID,
			logger.FieldComponent: "ingest",
		})
		if _, err := h.ingest.ProcessVideo(ctx, req.VideoPath, req.DisplayName, req.VideoID); err != nil {
			logger.CtxError(ctx, "Background video processing failed: %v", err)
		}
	}()

	resp := gin.H{
		"display_name": name,
		"status":       "processing",
	}
	if id := strings.TrimSpace(req.VideoID); id != "" {
		resp["video_id"] = id
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetStatus handles GET /api/v1/videos/status. Accepts either a video_id
// or a display_name query parameter.
func (h *VideoHandler) GetStatus(c *gin.Context) {
	var info *service.VideoStatusInfo
	var err error

	switch {
	case c.Query("video_id") != "":
		info, err = h.ingest.GetStatus(c.Request.Context(), c.Query("video_id"))
	case c.Query("display_name") != "":
		info, err = h.ingest.GetStatusByName(c.Request.Context(), c.Query("display_name"))
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Either video_id or display_name is required",
		})
		return
	}

	if err != nil {
		h.statusError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *VideoHandler) statusError(c *gin.Context, err error) {
	switch {
	case validate.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case repository.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// List handles GET /api/v1/videos.
func (h *VideoHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	videos, err := h.ingest.ListVideos(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list videos: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"total":  len(videos),
	})
}

// Delete handles DELETE /api/v1/videos/:id. Removes processed data only;
// the source file stays until DeleteFile is called.
func (h *VideoHandler) Delete(c *gin.Context) {
	deleted, err := h.ingest.DeleteVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.statusError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type deleteFileRequest struct {
	VideoPath string `json:"video_path" binding:"required"`
}

// DeleteFile handles POST /api/v1/videos/delete-file, the second deletion
// phase: removing the source file from the shared media directory.
func (h *VideoHandler) DeleteFile(c *gin.Context) {
	var req deleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := h.ingest.DeleteSourceFile(c.Request.Context(), req.VideoPath); err != nil {
		h.statusError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
