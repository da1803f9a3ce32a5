package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

// Error writes the HTTP representation of a service error. Classified
// errors map through their status code; anything else is logged and
// returned as an opaque 500.
func Error(c *gin.Context, l *logger.Logger, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), gin.H{
			"error": appErr.Message,
			"code":  int(appErr.Code),
		})
		return
	}

	l.Error("unhandled error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// BindError reports a request that failed binding or validation.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
