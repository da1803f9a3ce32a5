package router

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "github.com/smart-enid/booking-api/internal/handler/admin"
	appointmenthandler "github.com/smart-enid/booking-api/internal/handler/appointment"
	authhandler "github.com/smart-enid/booking-api/internal/handler/auth"
	centerhandler "github.com/smart-enid/booking-api/internal/handler/center"
	healthhandler "github.com/smart-enid/booking-api/internal/handler/health"
	notificationhandler "github.com/smart-enid/booking-api/internal/handler/notification"
	queuehandler "github.com/smart-enid/booking-api/internal/handler/queue"
	"github.com/smart-enid/booking-api/internal/middleware"
	"github.com/smart-enid/booking-api/internal/model"
	authservice "github.com/smart-enid/booking-api/internal/service/auth"
	"github.com/smart-enid/booking-api/pkg/auth"
	"github.com/smart-enid/booking-api/pkg/logger"
	"github.com/smart-enid/booking-api/pkg/metrics"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// RegisterValidators installs the custom binding validators. Call once at
// startup before any request binding runs.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("timehhmm", func(fl validator.FieldLevel) bool {
			return hhmmPattern.MatchString(fl.Field().String())
		})
	}
}

// Deps carries everything the route table needs.
type Deps struct {
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	JWT         *auth.JWTService
	AuthService *authservice.Service

	Auth         *authhandler.Handler
	Appointment  *appointmenthandler.Handler
	Center       *centerhandler.Handler
	Queue        *queuehandler.Handler
	Admin        *adminhandler.Handler
	Notification *notificationhandler.Handler
	Health       *healthhandler.Handler

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// New builds the gin engine with the full route table.
func New(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.Recovery(d.Logger),
		middleware.RequestID(),
		middleware.RequestLogger(d.Logger),
		middleware.Metrics(d.Metrics),
		middleware.CORS(d.AllowedOrigins),
		middleware.RateLimit(d.RateLimitRPS, d.RateLimitBurst),
	)

	r.GET("/health", d.Health.Live)
	r.GET("/ready", d.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")

	// Public surface: registration, login, center discovery, display boards.
	v1.POST("/auth/register", d.Auth.Register)
	v1.POST("/auth/login", d.Auth.Login)
	v1.GET("/service-centers", d.Center.List)
	v1.GET("/service-centers/:id", d.Center.Get)
	v1.GET("/service-centers/:id/available-slots", d.Center.AvailableSlots)
	v1.GET("/service-centers/:id/queue-status", d.Center.QueueStatus)
	v1.GET("/service-centers/:id/next-ticket", d.Center.NextTicket)

	authed := v1.Group("")
	authed.Use(middleware.Authenticate(d.JWT, d.AuthService))
	{
		authed.GET("/auth/me", d.Auth.Me)

		authed.POST("/appointments", d.Appointment.Book)
		authed.GET("/appointments", d.Appointment.List)
		authed.GET("/appointments/:id", d.Appointment.Get)
		authed.PATCH("/appointments/:id", d.Appointment.Reschedule)
		authed.DELETE("/appointments/:id", d.Appointment.Cancel)
		authed.POST("/appointments/:id/check-in", d.Appointment.CheckIn)
		authed.GET("/appointments/:id/position", d.Appointment.Position)

		authed.GET("/queue/my-status", d.Queue.MyQueue)
		authed.GET("/notifications", d.Notification.List)
	}

	staff := authed.Group("")
	staff.Use(middleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	{
		staff.POST("/queue/:centerID/call-next", d.Queue.CallNext)
		staff.GET("/queue/:centerID/appointments", d.Queue.CenterQueue)
		staff.GET("/queue/:centerID/daily-stats", d.Queue.DailyStats)
		staff.POST("/appointments/:id/complete", d.Queue.Complete)
		staff.POST("/appointments/:id/no-show", d.Queue.MarkNoShow)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("/service-centers", d.Admin.CreateCenter)
		admin.PUT("/service-centers/:id", d.Admin.UpdateCenter)
		admin.DELETE("/service-centers/:id", d.Admin.DeleteCenter)
		admin.GET("/dashboard", d.Admin.Dashboard)
		admin.GET("/audit-logs", d.Admin.AuditLogs)
		admin.POST("/appointments/:id/status", d.Admin.OverrideStatus)
		admin.POST("/notifications", d.Admin.SendNotification)
		admin.GET("/notifications", d.Admin.ListNotifications)
	}

	return r
}
