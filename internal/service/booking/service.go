package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
	"github.com/smart-enid/booking-api/internal/service/audit"
	"github.com/smart-enid/booking-api/internal/service/center"
	"github.com/smart-enid/booking-api/internal/service/notification"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
	"github.com/smart-enid/booking-api/pkg/metrics"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Service books and manages appointments up to the point of check-in.
// Capacity and the one-active-appointment rule are validated here for a
// fast answer, then re-validated by the repository under the center lock,
// so concurrent bookings can never oversell a day.
type Service struct {
	appointments repository.AppointmentRepository
	centers      *center.Service
	notifier     *notification.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewService(
	appointments repository.AppointmentRepository,
	centers *center.Service,
	notifier *notification.Service,
	l *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointments: appointments,
		centers:      centers,
		notifier:     notifier,
		logger:       l,
		metrics:      m,
	}
}

func (s *Service) Book(ctx context.Context, user *model.User, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	svcCenter, err := s.centers.Get(ctx, req.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	if !svcCenter.IsActive || !svcCenter.IsOperational {
		return nil, apperrors.NotFound("operational service center", nil)
	}

	day, err := time.ParseInLocation(dateLayout, req.AppointmentDate, time.Local)
	if err != nil {
		return nil, apperrors.BadRequest("appointment date must be YYYY-MM-DD", err)
	}

	hasActive, err := s.appointments.HasActiveOnDate(ctx, user.ID, day)
	if err != nil {
		return nil, err
	}
	if hasActive {
		s.metrics.BookingsTotal.WithLabelValues("conflict").Inc()
		return nil, apperrors.Conflict("you already have an appointment on this date", nil)
	}

	count, err := s.appointments.CountNonCancelled(ctx, svcCenter.ID, day)
	if err != nil {
		return nil, err
	}
	if count >= svcCenter.MaxDailyCapacity {
		s.metrics.BookingsTotal.WithLabelValues("capacity_exceeded").Inc()
		return nil, apperrors.CapacityExceeded(
			fmt.Sprintf("service center is fully booked for %s", req.AppointmentDate))
	}

	if err := s.validateSlot(svcCenter, day, req.ScheduledTime); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	appt := &model.Appointment{
		UserID:              user.ID,
		ServiceCenterID:     svcCenter.ID,
		AppointmentType:     req.AppointmentType,
		AppointmentDate:     day,
		ScheduledTime:       req.ScheduledTime,
		Priority:            priority,
		Status:              model.AppointmentStatusScheduled,
		SpecialRequirements: req.SpecialRequirements,
	}

	// Ticket numbers carry three random digits; on the rare collision we
	// regenerate rather than widen the format.
	for attempt := 0; ; attempt++ {
		appt.TicketNumber = generateTicketNumber(svcCenter.Code, day)

		entry := audit.Entry(model.AuditActionCreate, model.AuditEntityAppointment,
			fmt.Sprintf("booked appointment %s for %s at %s", appt.TicketNumber, req.AppointmentDate, req.ScheduledTime),
			uuid.Nil, &user.ID)
		entry.ServiceCenterID = &svcCenter.ID

		err = s.appointments.CreateBooking(ctx, appt, entry)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateTicket) && attempt < ticketMaxAttempts-1 {
			continue
		}
		if errors.Is(err, repository.ErrDuplicateTicket) {
			return nil, apperrors.Internal(fmt.Errorf("could not allocate a unique ticket number: %w", err))
		}
		if apperrors.IsCode(err, apperrors.ErrCapacityExceeded) {
			s.metrics.BookingsTotal.WithLabelValues("capacity_exceeded").Inc()
		}
		return nil, err
	}

	s.metrics.BookingsTotal.WithLabelValues("booked").Inc()
	s.logger.Info("appointment booked",
		"ticket", appt.TicketNumber,
		"user_id", user.ID,
		"center", svcCenter.Code,
		"date", req.AppointmentDate,
		"time", req.ScheduledTime)

	s.notifier.SendBookingConfirmation(appt, svcCenter)
	return appt, nil
}

// Get returns an appointment visible to the caller: owners see their own,
// staff and admins see all. Others get not-found rather than forbidden.
func (s *Service) Get(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.UserID != caller.ID && !caller.Role.CanOperateQueue() {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return appt, nil
}

func (s *Service) MyAppointments(ctx context.Context, userID uuid.UUID, status model.AppointmentStatus) ([]*model.Appointment, error) {
	return s.appointments.List(ctx, &model.AppointmentFilters{
		UserID: userID,
		Status: status,
	})
}

// Reschedule moves a scheduled appointment to a new slot. Once checked in
// the appointment holds a queue position, so rescheduling is refused.
func (s *Service) Reschedule(ctx context.Context, caller *model.User, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.UserID != caller.ID {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if appt.Status != model.AppointmentStatusScheduled {
		if appt.Status == model.AppointmentStatusConfirmed {
			return nil, apperrors.InvalidState("cannot reschedule after check-in")
		}
		return nil, apperrors.InvalidState(
			fmt.Sprintf("cannot reschedule a %s appointment", appt.Status))
	}

	if req.AppointmentDate != nil {
		day, err := time.ParseInLocation(dateLayout, *req.AppointmentDate, time.Local)
		if err != nil {
			return nil, apperrors.BadRequest("appointment date must be YYYY-MM-DD", err)
		}
		appt.AppointmentDate = day
	}
	if req.ScheduledTime != nil {
		appt.ScheduledTime = *req.ScheduledTime
	}
	if req.SpecialRequirements != nil {
		appt.SpecialRequirements = *req.SpecialRequirements
	}

	svcCenter, err := s.centers.Get(ctx, appt.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	if err := s.validateSlot(svcCenter, appt.AppointmentDate, appt.ScheduledTime); err != nil {
		return nil, err
	}

	entry := audit.Entry(model.AuditActionUpdate, model.AuditEntityAppointment,
		fmt.Sprintf("rescheduled appointment %s to %s %s",
			appt.TicketNumber, appt.AppointmentDate.Format(dateLayout), appt.ScheduledTime),
		appt.ID, &caller.ID)
	entry.AppointmentID = &appt.ID
	entry.ServiceCenterID = &appt.ServiceCenterID

	if err := s.appointments.Update(ctx, appt, entry); err != nil {
		return nil, err
	}
	return appt, nil
}

// validateSlot enforces the operating window and refuses slots in the past.
// HH:MM strings compare lexically in clock order.
func (s *Service) validateSlot(svcCenter *model.ServiceCenter, day time.Time, scheduledTime string) error {
	if scheduledTime < svcCenter.OpeningTime || scheduledTime > svcCenter.ClosingTime {
		return apperrors.InvalidWindow(
			fmt.Sprintf("appointment time must be between %s and %s", svcCenter.OpeningTime, svcCenter.ClosingTime))
	}

	slot, err := time.Parse(clockLayout, scheduledTime)
	if err != nil {
		return apperrors.InvalidWindow("scheduled time must be HH:MM")
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), slot.Hour(), slot.Minute(), 0, 0, day.Location())
	if at.Before(time.Now()) {
		return apperrors.PastDate("cannot book appointments in the past")
	}
	return nil
}
