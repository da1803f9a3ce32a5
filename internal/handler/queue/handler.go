package queue

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/handler/response"
	"github.com/smart-enid/booking-api/internal/middleware"
	"github.com/smart-enid/booking-api/internal/model"
	queueservice "github.com/smart-enid/booking-api/internal/service/queue"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

// Handler serves the citizen queue view and the staff counter operations.
type Handler struct {
	queue  *queueservice.Service
	logger *logger.Logger
}

func NewHandler(queueSvc *queueservice.Service, l *logger.Logger) *Handler {
	return &Handler{queue: queueSvc, logger: l}
}

func (h *Handler) MyQueue(c *gin.Context) {
	entries, err := h.queue.MyQueue(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) CallNext(c *gin.Context) {
	centerID, err := parseCenterID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	appt, err := h.queue.CallNext(c.Request.Context(), middleware.CurrentUser(c), centerID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

type completeRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := parseAppointmentID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	var req completeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
	}

	appt, err := h.queue.Complete(c.Request.Context(), middleware.CurrentUser(c), id, req.Notes)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	id, err := parseAppointmentID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	appt, err := h.queue.MarkNoShow(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) CenterQueue(c *gin.Context) {
	centerID, err := parseCenterID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	appointments, err := h.queue.CenterQueue(
		c.Request.Context(),
		middleware.CurrentUser(c),
		centerID,
		c.Query("date"),
		model.AppointmentStatus(c.Query("status")),
	)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) DailyStats(c *gin.Context) {
	centerID, err := parseCenterID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	stats, err := h.queue.DailyStats(
		c.Request.Context(), middleware.CurrentUser(c), centerID, c.Query("date"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseCenterID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("centerID"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid service center id", err)
	}
	return id, nil
}

func parseAppointmentID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid appointment id", err)
	}
	return id, nil
}
