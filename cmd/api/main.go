package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/smart-enid/booking-api/internal/config"
	"github.com/smart-enid/booking-api/internal/email"
	adminhandler "github.com/smart-enid/booking-api/internal/handler/admin"
	appointmenthandler "github.com/smart-enid/booking-api/internal/handler/appointment"
	authhandler "github.com/smart-enid/booking-api/internal/handler/auth"
	centerhandler "github.com/smart-enid/booking-api/internal/handler/center"
	healthhandler "github.com/smart-enid/booking-api/internal/handler/health"
	notificationhandler "github.com/smart-enid/booking-api/internal/handler/notification"
	queuehandler "github.com/smart-enid/booking-api/internal/handler/queue"
	"github.com/smart-enid/booking-api/internal/repository/postgres"
	"github.com/smart-enid/booking-api/internal/router"
	"github.com/smart-enid/booking-api/internal/service/audit"
	authservice "github.com/smart-enid/booking-api/internal/service/auth"
	"github.com/smart-enid/booking-api/internal/service/booking"
	centerservice "github.com/smart-enid/booking-api/internal/service/center"
	notificationservice "github.com/smart-enid/booking-api/internal/service/notification"
	queueservice "github.com/smart-enid/booking-api/internal/service/queue"
	"github.com/smart-enid/booking-api/internal/sms"
	"github.com/smart-enid/booking-api/pkg/auth"
	"github.com/smart-enid/booking-api/pkg/logger"
	"github.com/smart-enid/booking-api/pkg/messaging"
	redisbroker "github.com/smart-enid/booking-api/pkg/messaging/redis"
	"github.com/smart-enid/booking-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{Level: level, Pretty: cfg.Logging.Pretty})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	centerRepo := postgres.NewCenterRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	var broker messaging.Broker
	broker, err = redisbroker.NewBroker(cfg.Redis, log)
	if err != nil {
		// Queue events are advisory; the API stays up without the broker.
		log.Warn("message broker unavailable, queue events disabled", "error", err.Error())
		broker = nil
	} else {
		defer broker.Close()
	}

	emailSvc := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})
	smsSvc := sms.NewService(log)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	auditSvc := audit.NewService(auditRepo)
	notificationSvc := notificationservice.NewService(notificationRepo, userRepo, emailSvc, smsSvc, log, m)
	centerSvc := centerservice.NewService(centerRepo, appointmentRepo, auditSvc, log)
	bookingSvc := booking.NewService(appointmentRepo, centerSvc, notificationSvc, log, m)
	queueSvc := queueservice.NewService(appointmentRepo, centerSvc, userRepo, notificationSvc, broker, log, m)
	authSvc := authservice.NewService(userRepo, jwtSvc, auditSvc, log)

	router.RegisterValidators()
	engine := router.New(router.Deps{
		Logger:      log,
		Metrics:     m,
		Registry:    registry,
		JWT:         jwtSvc,
		AuthService: authSvc,

		Auth:         authhandler.NewHandler(authSvc, log),
		Appointment:  appointmenthandler.NewHandler(bookingSvc, queueSvc, log),
		Center:       centerhandler.NewHandler(centerSvc, queueSvc, log),
		Queue:        queuehandler.NewHandler(queueSvc, log),
		Admin:        adminhandler.NewHandler(centerSvc, queueSvc, auditSvc, notificationSvc, log),
		Notification: notificationhandler.NewHandler(notificationSvc, log),
		Health:       healthhandler.NewHandler(db),

		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimiting.RequestsPerSecond,
		RateLimitBurst: cfg.RateLimiting.Burst,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("api server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", err)
	}
}
