package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/email"
	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
	"github.com/smart-enid/booking-api/internal/sms"
	"github.com/smart-enid/booking-api/pkg/logger"
	"github.com/smart-enid/booking-api/pkg/metrics"
)

const (
	defaultMaxRetries = 3
	deliverTimeout    = 10 * time.Second
)

// Service persists notifications and delivers them through the channel
// gateways. Delivery is always best effort: a failed send marks the row
// failed for the dispatcher to retry, and never propagates to the
// operation that triggered it.
type Service struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	email         email.Service
	sms           sms.Service
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	emailSvc email.Service,
	smsSvc sms.Service,
	l *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		notifications: notifications,
		users:         users,
		email:         emailSvc,
		sms:           smsSvc,
		logger:        l,
		metrics:       m,
	}
}

// Enqueue resolves the recipient from the user record and persists the
// notification in pending state.
func (s *Service) Enqueue(ctx context.Context, userID uuid.UUID, typ model.NotificationType, subject, message string, appointmentID *uuid.UUID) (*model.Notification, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	recipient := user.Email
	if typ == model.NotificationTypeSMS {
		recipient = user.Phone
	}

	n := &model.Notification{
		UserID:        userID,
		AppointmentID: appointmentID,
		Type:          typ,
		Subject:       subject,
		Message:       message,
		Recipient:     recipient,
		Status:        model.NotificationStatusPending,
		MaxRetries:    defaultMaxRetries,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Deliver attempts one send and records the outcome. The returned error is
// for the caller's logging only; the row already reflects the failure.
func (s *Service) Deliver(ctx context.Context, n *model.Notification) error {
	var sendErr error
	switch n.Type {
	case model.NotificationTypeSMS:
		sendErr = s.sms.Send(ctx, n.Recipient, n.Message)
	default:
		// Push falls back to email until a push provider is wired.
		sendErr = s.email.SendCustom(ctx, n.Recipient, n.Subject, n.Message)
	}

	if sendErr != nil {
		n.Status = model.NotificationStatusFailed
		n.ErrorMessage = sendErr.Error()
		n.RetryCount++
		s.metrics.NotificationsFailedTotal.WithLabelValues(string(n.Type)).Inc()
	} else {
		now := time.Now()
		n.Status = model.NotificationStatusSent
		n.SentAt = &now
		n.ErrorMessage = ""
		s.metrics.NotificationsSentTotal.WithLabelValues(string(n.Type)).Inc()
	}

	if err := s.notifications.Update(ctx, n); err != nil {
		s.logger.Error("failed to update notification after delivery attempt", err, "notification_id", n.ID)
	}
	return sendErr
}

// notify enqueues and attempts immediate delivery off the request path.
func (s *Service) notify(userID uuid.UUID, typ model.NotificationType, subject, message string, appointmentID *uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()

		n, err := s.Enqueue(ctx, userID, typ, subject, message, appointmentID)
		if err != nil {
			s.logger.Error("failed to enqueue notification", err, "user_id", userID, "type", typ)
			return
		}
		if err := s.Deliver(ctx, n); err != nil {
			s.logger.Warn("notification delivery failed, left for dispatcher",
				"notification_id", n.ID, "type", typ, "error", err.Error())
		}
	}()
}

// DeliverPending processes one batch of deliverable notifications and
// returns how many it attempted.
func (s *Service) DeliverPending(ctx context.Context, batchSize int) (int, error) {
	batch, err := s.notifications.ListDeliverable(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	for _, n := range batch {
		if err := s.Deliver(ctx, n); err != nil {
			s.logger.Warn("notification retry failed",
				"notification_id", n.ID, "retry_count", n.RetryCount, "error", err.Error())
		}
	}
	return len(batch), nil
}

// Send handles a staff-initiated notification. The row is created
// synchronously so the caller gets its id; delivery happens off-path.
func (s *Service) Send(ctx context.Context, req *model.SendNotificationRequest) (*model.Notification, error) {
	n, err := s.Enqueue(ctx, req.UserID, req.Type, req.Subject, req.Message, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	go func() {
		dctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()
		if err := s.Deliver(dctx, n); err != nil {
			s.logger.Warn("notification delivery failed, left for dispatcher",
				"notification_id", n.ID, "error", err.Error())
		}
	}()
	return n, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	return s.notifications.ListForUser(ctx, userID, limit)
}

func (s *Service) ListAll(ctx context.Context, limit int) ([]*model.Notification, error) {
	return s.notifications.ListAll(ctx, limit)
}

func (s *Service) SendBookingConfirmation(appt *model.Appointment, center *model.ServiceCenter) {
	date := appt.AppointmentDate.Format("2006-01-02")
	message := fmt.Sprintf(
		"Your appointment is confirmed. Ticket %s at %s on %s, %s. Please arrive 10 minutes early.",
		appt.TicketNumber, center.Name, date, appt.ScheduledTime,
	)
	s.notify(appt.UserID, model.NotificationTypeSMS, "Appointment Confirmed", message, &appt.ID)
	s.notify(appt.UserID, model.NotificationTypeEmail, "Appointment Confirmed", message, &appt.ID)
}

func (s *Service) SendCheckInConfirmation(appt *model.Appointment, position, estimatedWait int) {
	message := fmt.Sprintf(
		"Ticket %s checked in. You are number %d in the queue, estimated wait %d minutes.",
		appt.TicketNumber, position, estimatedWait,
	)
	s.notify(appt.UserID, model.NotificationTypeSMS, "Checked In", message, &appt.ID)
}

func (s *Service) SendCalledToCounter(appt *model.Appointment) {
	message := fmt.Sprintf("Ticket %s: it is your turn, please proceed to the counter.", appt.TicketNumber)
	s.notify(appt.UserID, model.NotificationTypeSMS, "You Are Being Served", message, &appt.ID)
}

func (s *Service) SendCancellation(appt *model.Appointment) {
	date := appt.AppointmentDate.Format("2006-01-02")
	message := fmt.Sprintf("Your appointment %s on %s has been cancelled.", appt.TicketNumber, date)
	s.notify(appt.UserID, model.NotificationTypeSMS, "Appointment Cancelled", message, &appt.ID)
}
