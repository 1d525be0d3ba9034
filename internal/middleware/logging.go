package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/videokit/bgremove/internal/logging"
)

// RequestLogger logs one structured line per request
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.WithField("method", c.Request.Method).
			WithField("path", path).
			WithField("status", c.Writer.Status()).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("ip", c.ClientIP()).
			Info("Request handled")
	}
}
