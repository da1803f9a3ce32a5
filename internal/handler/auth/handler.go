package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smart-enid/booking-api/internal/handler/response"
	"github.com/smart-enid/booking-api/internal/middleware"
	"github.com/smart-enid/booking-api/internal/model"
	authservice "github.com/smart-enid/booking-api/internal/service/auth"
	"github.com/smart-enid/booking-api/pkg/logger"
)

type Handler struct {
	auth   *authservice.Service
	logger *logger.Logger
}

func NewHandler(auth *authservice.Service, l *logger.Logger) *Handler {
	return &Handler{auth: auth, logger: l}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
