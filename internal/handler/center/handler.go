package center

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/handler/response"
	"github.com/smart-enid/booking-api/internal/model"
	centerservice "github.com/smart-enid/booking-api/internal/service/center"
	"github.com/smart-enid/booking-api/internal/service/queue"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

// Handler serves the public center registry, slot availability and the
// live queue views that need no authentication.
type Handler struct {
	centers *centerservice.Service
	queue   *queue.Service
	logger  *logger.Logger
}

func NewHandler(centers *centerservice.Service, queueSvc *queue.Service, l *logger.Logger) *Handler {
	return &Handler{centers: centers, queue: queueSvc, logger: l}
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.CenterFilters{
		City:            c.Query("city"),
		OperationalOnly: c.Query("operational") == "true",
	}

	centers, err := h.centers.List(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, centers)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	center, err := h.centers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, center)
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	date := c.Query("date")
	if date == "" {
		response.Error(c, h.logger, apperrors.BadRequest("date query parameter is required", nil))
		return
	}

	slots, err := h.centers.AvailableSlots(c.Request.Context(), id, date)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "available_slots": slots})
}

func (h *Handler) QueueStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	status, err := h.queue.Status(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) NextTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	next, err := h.queue.NextTicket(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, next)
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid service center id", err)
	}
	return id, nil
}
