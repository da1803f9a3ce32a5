package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smart-enid/booking-api/internal/handler/response"
	"github.com/smart-enid/booking-api/internal/middleware"
	notificationservice "github.com/smart-enid/booking-api/internal/service/notification"
	"github.com/smart-enid/booking-api/pkg/logger"
)

type Handler struct {
	notifications *notificationservice.Service
	logger        *logger.Logger
}

func NewHandler(notifications *notificationservice.Service, l *logger.Logger) *Handler {
	return &Handler{notifications: notifications, logger: l}
}

// List returns the caller's own notifications, newest first.
func (h *Handler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	notifications, err := h.notifications.ListForUser(
		c.Request.Context(), middleware.CurrentUser(c).ID, limit)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}
