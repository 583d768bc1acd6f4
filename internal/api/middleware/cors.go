package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Content-Length, Accept, Origin, Authorization, X-Requested-With"
)

// CORSConfig controls which browser origins may call the API. With
// AllowAllOrigins set, every origin is accepted and credentials are
// disabled; otherwise only origins on the AllowedOrigins list pass.
type CORSConfig struct {
	AllowedOrigins  []string
	AllowAllOrigins bool
}

func (c CORSConfig) originAllowed(origin string) bool {
	if c.AllowAllOrigins || len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// CORS returns the cross-origin middleware for the search and ingest
// endpoints. Preflight OPTIONS requests are answered with 204.
func CORS(config CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		h := c.Writer.Header()
		if config.AllowAllOrigins {
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Credentials", "false")
		} else {
			if !config.originAllowed(origin) {
				c.Next()
				return
			}
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", "Content-Length")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
