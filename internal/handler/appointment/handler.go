package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/handler/response"
	"github.com/smart-enid/booking-api/internal/middleware"
	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/service/booking"
	"github.com/smart-enid/booking-api/internal/service/queue"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

type Handler struct {
	booking *booking.Service
	queue   *queue.Service
	logger  *logger.Logger
}

func NewHandler(bookingSvc *booking.Service, queueSvc *queue.Service, l *logger.Logger) *Handler {
	return &Handler{booking: bookingSvc, queue: queueSvc, logger: l}
}

func (h *Handler) Book(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	appt, err := h.booking.Book(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *Handler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	status := model.AppointmentStatus(c.Query("status"))

	appointments, err := h.booking.MyAppointments(c.Request.Context(), user.ID, status)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	appt, err := h.booking.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	appt, err := h.booking.Reschedule(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	appt, err := h.queue.Cancel(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) CheckIn(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	appt, err := h.queue.CheckIn(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (h *Handler) Position(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	entry, err := h.queue.Position(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid appointment id", err)
	}
	return id, nil
}
