package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// LogAPI emits one structured log line per request.
func LogAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		slog.Info("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"clientIP", c.ClientIP(),
			"latency", time.Since(start),
			"errors", c.Errors.String(),
		)
	}
}
