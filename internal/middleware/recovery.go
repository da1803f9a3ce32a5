package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-enid/booking-api/pkg/logger"
)

// Recovery converts panics into 500 responses and logs them with the
// request id instead of crashing the worker goroutine.
func Recovery(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l.Error("panic recovered", fmt.Errorf("%v", r),
					"path", c.Request.URL.Path,
					"request_id", RequestIDFromContext(c),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
