package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smart-enid/booking-api/pkg/logger"
)

// RequestLogger logs each request with latency and status on completion.
func RequestLogger(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		l.Info("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", RequestIDFromContext(c),
		)
	}
}
