package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/smart-enid/booking-api/internal/config"
	"github.com/smart-enid/booking-api/internal/email"
	"github.com/smart-enid/booking-api/internal/repository/postgres"
	notificationservice "github.com/smart-enid/booking-api/internal/service/notification"
	"github.com/smart-enid/booking-api/internal/sms"
	"github.com/smart-enid/booking-api/internal/worker"
	"github.com/smart-enid/booking-api/pkg/logger"
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
	notificationRepo := postgres.NewNotificationRepository(db)

	m := metrics.New(prometheus.NewRegistry())

	emailSvc := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	})
	smsSvc := sms.NewService(log)

	notificationSvc := notificationservice.NewService(notificationRepo, userRepo, emailSvc, smsSvc, log, m)
	dispatcher := worker.NewDispatcher(notificationSvc, cfg.Worker.PollInterval, cfg.Worker.BatchSize, log)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	dispatcher.Run(ctx)
}
