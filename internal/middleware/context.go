package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/smart-enid/booking-api/internal/model"
)

const (
	ctxKeyUser      = "current_user"
	ctxKeyRequestID = "request_id"
)

// CurrentUser returns the authenticated user set by Authenticate, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// RequestIDFromContext returns the request id assigned by the RequestID middleware.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}
