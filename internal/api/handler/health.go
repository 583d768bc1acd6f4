package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health reports that the API process is up. It deliberately does not
// touch the database or the vector index, so a degraded backend never
// takes the probe down with it.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "clipseek",
		"status":  "ok",
	})
}
