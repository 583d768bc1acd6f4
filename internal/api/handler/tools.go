package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/clipseek/internal/service"
)

// ToolHandler exposes the agent tool operations over HTTP. Tool responses
// are always 200 with a tagged result; failures are reported inside the
// result as text, matching the tool contract.
type ToolHandler struct {
	tools *service.ToolService
}

// NewToolHandler creates a new tool handler.
// Parameters:
//   - tools: tool service instance.
// Returns:
//   - *ToolHandler: initialized handler.
func NewToolHandler(tools *service.ToolService) *ToolHandler {
	return &ToolHandler{
		tools: tools,
	}
}

type clipQueryRequest struct {
	Query    string   `json:"query" binding:"required"`
	VideoIDs []string `json:"video_ids"`
}

type clipImageRequest struct {
	ImageBase64 string   `json:"image_base64" binding:"required"`
	VideoIDs    []string `json:"video_ids"`
}

type askRequest struct {
	Question string   `json:"question" binding:"required"`
	VideoIDs []string `json:"video_ids"`
}

// ClipFromQuery handles POST /api/v1/tools/clip-from-query.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ToolHandler) ClipFromQuery(c *gin.Context) {
	var req clipQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	result := h.tools.GetClipFromQuery(c.Request.Context(), req.Query, req.VideoIDs)
	c.JSON(http.StatusOK, result)
}

// ClipFromImage handles POST /api/v1/tools/clip-from-image.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ToolHandler) ClipFromImage(c *gin.Context) {
	var req clipImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	result := h.tools.GetClipFromImage(c.Request.Context(), req.ImageBase64, req.VideoIDs)
	c.JSON(http.StatusOK, result)
}

// Ask handles POST /api/v1/tools/ask.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ToolHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	result := h.tools.AskVideoQuestion(c.Request.Context(), req.Question, req.VideoIDs)
	c.JSON(http.StatusOK, result)
}
