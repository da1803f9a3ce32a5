package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/handler/response"
	"github.com/smart-enid/booking-api/internal/middleware"
	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/service/audit"
	centerservice "github.com/smart-enid/booking-api/internal/service/center"
	"github.com/smart-enid/booking-api/internal/service/notification"
	queueservice "github.com/smart-enid/booking-api/internal/service/queue"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

// Handler groups the administrative surface: center management, the
// dashboard, audit inspection, manual notifications and the status override.
type Handler struct {
	centers       *centerservice.Service
	queue         *queueservice.Service
	auditor       *audit.Service
	notifications *notification.Service
	logger        *logger.Logger
}

func NewHandler(
	centers *centerservice.Service,
	queueSvc *queueservice.Service,
	auditor *audit.Service,
	notifications *notification.Service,
	l *logger.Logger,
) *Handler {
	return &Handler{
		centers:       centers,
		queue:         queueSvc,
		auditor:       auditor,
		notifications: notifications,
		logger:        l,
	}
}

func (h *Handler) CreateCenter(c *gin.Context) {
	var req model.CreateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	center, err := h.centers.Create(c.Request.Context(), middleware.CurrentUser(c).ID, &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, center)
}

func (h *Handler) UpdateCenter(c *gin.Context) {
	id, err := parseID(c, "invalid service center id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	var req model.UpdateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	center, err := h.centers.Update(c.Request.Context(), middleware.CurrentUser(c).ID, id, &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, center)
}

func (h *Handler) DeleteCenter(c *gin.Context) {
	id, err := parseID(c, "invalid service center id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	if err := h.centers.Delete(c.Request.Context(), middleware.CurrentUser(c).ID, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.queue.Dashboard(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AuditLogs(c *gin.Context) {
	filters := &model.AuditFilters{
		EntityType: c.Query("entity_type"),
		Action:     c.Query("action"),
	}
	if raw := c.Query("service_center_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, h.logger, apperrors.BadRequest("invalid service center id", err))
			return
		}
		filters.ServiceCenterID = id
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filters.Limit = limit
		}
	}

	logs, err := h.auditor.List(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

type overrideStatusRequest struct {
	Status model.AppointmentStatus `json:"status" binding:"required,oneof=scheduled confirmed in_progress completed cancelled no_show"`
}

func (h *Handler) OverrideStatus(c *gin.Context) {
	id, err := parseID(c, "invalid appointment id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	var req overrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	appt, err := h.queue.OverrideStatus(c.Request.Context(), middleware.CurrentUser(c), id, req.Status)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) SendNotification(c *gin.Context) {
	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	n, err := h.notifications.Send(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusAccepted, n)
}

func (h *Handler) ListNotifications(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	notifications, err := h.notifications.ListAll(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func parseID(c *gin.Context, msg string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest(msg, err)
	}
	return id, nil
}
