package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	BookingsTotal      *prometheus.CounterVec
	CheckInsTotal      prometheus.Counter
	CallNextTotal      prometheus.Counter
	CompletionsTotal   prometheus.Counter
	CancellationsTotal prometheus.Counter
	NoShowsTotal       prometheus.Counter

	NotificationsSentTotal   *prometheus.CounterVec
	NotificationsFailedTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Appointments booked by outcome",
		}, []string{"outcome"}),
		CheckInsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "queue_check_ins_total",
			Help: "Successful appointment check-ins",
		}),
		CallNextTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "queue_call_next_total",
			Help: "Tickets called to a counter",
		}),
		CompletionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "queue_completions_total",
			Help: "Services completed",
		}),
		CancellationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "appointment_cancellations_total",
			Help: "Appointments cancelled",
		}),
		NoShowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "appointment_no_shows_total",
			Help: "Appointments marked as no-show",
		}),

		NotificationsSentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered by channel",
		}, []string{"type"}),
		NotificationsFailedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Notification delivery failures by channel",
		}, []string{"type"}),
	}
}
