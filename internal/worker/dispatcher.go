package worker

import (
	"context"
	"time"

	"github.com/smart-enid/booking-api/internal/service/notification"
	"github.com/smart-enid/booking-api/pkg/logger"
)

// Dispatcher drains the notification outbox on a fixed interval, retrying
// failed deliveries until each row exhausts its retry budget.
type Dispatcher struct {
	notifications *notification.Service
	interval      time.Duration
	batchSize     int
	logger        *logger.Logger
}

func NewDispatcher(notifications *notification.Service, interval time.Duration, batchSize int, l *logger.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Dispatcher{
		notifications: notifications,
		interval:      interval,
		batchSize:     batchSize,
		logger:        l,
	}
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("notification dispatcher started",
		"interval", d.interval.String(), "batch_size", d.batchSize)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopping")
			return
		case <-ticker.C:
			d.runOnce(ctx)
		}
	}
}

func (d *Dispatcher) runOnce(ctx context.Context) {
	batchCtx, cancel := context.WithTimeout(ctx, d.interval)
	defer cancel()

	attempted, err := d.notifications.DeliverPending(batchCtx, d.batchSize)
	if err != nil {
		d.logger.Error("notification dispatch pass failed", err)
		return
	}
	if attempted > 0 {
		d.logger.Info("notification dispatch pass complete", "attempted", attempted)
	}
}
