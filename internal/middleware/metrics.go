package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smart-enid/booking-api/pkg/metrics"
)

// Metrics records request counts and latency per route. The route template
// is used rather than the raw path so ids do not explode cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}
