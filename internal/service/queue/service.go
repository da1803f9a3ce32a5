package queue

import (
	"context"
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
	"github.com/smart-enid/booking-api/pkg/messaging"
	"github.com/smart-enid/booking-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Service runs the same-day queue: check-in, calling, completion and the
// read views derived from it. All queue state lives in the store; this
// layer adds permission checks, transition guards and side effects.
type Service struct {
	appointments repository.AppointmentRepository
	centers      *center.Service
	users        repository.UserRepository
	notifier     *notification.Service
	broker       messaging.Broker
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewService(
	appointments repository.AppointmentRepository,
	centers *center.Service,
	users repository.UserRepository,
	notifier *notification.Service,
	broker messaging.Broker,
	l *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointments: appointments,
		centers:      centers,
		users:        users,
		notifier:     notifier,
		broker:       broker,
		logger:       l,
		metrics:      m,
	}
}

// CheckIn confirms arrival and assigns the next queue position. Citizens
// can only check in their own appointment, and only on its date.
func (s *Service) CheckIn(ctx context.Context, caller *model.User, appointmentID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != caller.ID && !caller.Role.CanOperateQueue() {
		return nil, apperrors.NotFound("appointment", nil)
	}

	now := time.Now()
	if !sameDay(appt.AppointmentDate, now) {
		return nil, apperrors.InvalidState("check-in is only possible on the appointment date")
	}
	if !Allowed(ActionCheckIn, appt.Status) {
		return nil, apperrors.InvalidState("appointment is not available for check-in")
	}

	entry := audit.Entry(model.AuditActionCheckIn, model.AuditEntityAppointment,
		fmt.Sprintf("checked in ticket %s", appt.TicketNumber),
		appt.ID, &caller.ID)
	entry.AppointmentID = &appt.ID
	entry.ServiceCenterID = &appt.ServiceCenterID
	entry.TargetUserID = &appt.UserID

	position, err := s.appointments.CheckIn(ctx, appointmentID, now, entry)
	if err != nil {
		return nil, err
	}

	appt.Status = model.AppointmentStatusConfirmed
	appt.QueuePosition = &position
	appt.CheckedInAt = &now

	s.metrics.CheckInsTotal.Inc()
	s.logger.Info("ticket checked in",
		"ticket", appt.TicketNumber, "position", position, "center_id", appt.ServiceCenterID)

	if ahead, err := s.appointments.CountAhead(ctx, appt.ServiceCenterID, appt.AppointmentDate, position); err == nil {
		s.notifier.SendCheckInConfirmation(appt, position, ahead*s.avgServiceTime(ctx, appt.ServiceCenterID))
	}
	s.publish("checked_in", appt)

	return appt, nil
}

// CallNext hands the lowest-position waiting ticket to the calling staff
// member. Concurrent calls for the same center receive distinct tickets.
func (s *Service) CallNext(ctx context.Context, staff *model.User, centerID uuid.UUID) (*model.Appointment, error) {
	if !staff.Role.CanOperateQueue() {
		return nil, apperrors.Permission("staff role required")
	}
	if _, err := s.centers.Get(ctx, centerID); err != nil {
		return nil, err
	}

	now := time.Now()
	entry := audit.Entry(model.AuditActionCallNext, model.AuditEntityAppointment,
		"", uuid.Nil, &staff.ID)
	entry.ServiceCenterID = &centerID

	appt, err := s.appointments.CallNext(ctx, centerID, today(), staff.ID, now, entry)
	if err != nil {
		return nil, err
	}

	s.metrics.CallNextTotal.Inc()
	s.logger.Info("ticket called",
		"ticket", appt.TicketNumber, "staff_id", staff.ID, "center_id", centerID)

	s.notifier.SendCalledToCounter(appt)
	s.publish("called", appt)

	return appt, nil
}

// Complete closes the in-progress service at the calling staff's counter.
func (s *Service) Complete(ctx context.Context, staff *model.User, appointmentID uuid.UUID, notes string) (*model.Appointment, error) {
	if !staff.Role.CanOperateQueue() {
		return nil, apperrors.Permission("staff role required")
	}

	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !Allowed(ActionComplete, appt.Status) {
		return nil, apperrors.InvalidState("appointment is not in progress")
	}

	now := time.Now()
	entry := audit.Entry(model.AuditActionComplete, model.AuditEntityAppointment,
		fmt.Sprintf("completed service for ticket %s", appt.TicketNumber),
		appt.ID, &staff.ID)
	entry.AppointmentID = &appt.ID
	entry.ServiceCenterID = &appt.ServiceCenterID
	entry.TargetUserID = &appt.UserID

	if err := s.appointments.Complete(ctx, appointmentID, notes, now, entry); err != nil {
		return nil, err
	}

	appt.Status = model.AppointmentStatusCompleted
	appt.ServiceCompletedAt = &now
	if notes != "" {
		appt.Notes = notes
	}

	s.metrics.CompletionsTotal.Inc()
	s.logger.Info("service completed", "ticket", appt.TicketNumber, "staff_id", staff.ID)
	s.publish("completed", appt)

	return appt, nil
}

// Cancel releases a scheduled or confirmed appointment. Owners cancel
// their own; staff can cancel any.
func (s *Service) Cancel(ctx context.Context, caller *model.User, appointmentID uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != caller.ID && !caller.Role.CanOperateQueue() {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if !Allowed(ActionCancel, appt.Status) {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("cannot cancel a %s appointment", appt.Status))
	}

	entry := audit.Entry(model.AuditActionCancel, model.AuditEntityAppointment,
		fmt.Sprintf("cancelled appointment %s", appt.TicketNumber),
		appt.ID, &caller.ID)
	entry.AppointmentID = &appt.ID
	entry.ServiceCenterID = &appt.ServiceCenterID
	entry.TargetUserID = &appt.UserID

	if err := s.appointments.Cancel(ctx, appointmentID, entry); err != nil {
		return nil, err
	}

	appt.Status = model.AppointmentStatusCancelled
	s.metrics.CancellationsTotal.Inc()
	s.notifier.SendCancellation(appt)
	s.publish("cancelled", appt)

	return appt, nil
}

// MarkNoShow closes out a scheduled appointment whose holder never arrived.
func (s *Service) MarkNoShow(ctx context.Context, staff *model.User, appointmentID uuid.UUID) (*model.Appointment, error) {
	if !staff.Role.CanOperateQueue() {
		return nil, apperrors.Permission("staff role required")
	}

	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !Allowed(ActionNoShow, appt.Status) {
		return nil, apperrors.InvalidState("only scheduled appointments can be marked as no-show")
	}

	entry := audit.Entry(model.AuditActionNoShow, model.AuditEntityAppointment,
		fmt.Sprintf("marked ticket %s as no-show", appt.TicketNumber),
		appt.ID, &staff.ID)
	entry.AppointmentID = &appt.ID
	entry.ServiceCenterID = &appt.ServiceCenterID
	entry.TargetUserID = &appt.UserID

	if err := s.appointments.MarkNoShow(ctx, appointmentID, entry); err != nil {
		return nil, err
	}

	appt.Status = model.AppointmentStatusNoShow
	s.metrics.NoShowsTotal.Inc()
	s.publish("no_show", appt)

	return appt, nil
}

// OverrideStatus lets an admin force any status, bypassing transition
// guards. Every use is audited with the before and after status.
func (s *Service) OverrideStatus(ctx context.Context, admin *model.User, appointmentID uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	if admin.Role != model.RoleAdmin {
		return nil, apperrors.Permission("admin role required")
	}

	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	entry := audit.Entry(model.AuditActionStatusOverride, model.AuditEntityAppointment,
		fmt.Sprintf("overrode status of %s from %s to %s", appt.TicketNumber, appt.Status, status),
		appt.ID, &admin.ID)
	entry.AppointmentID = &appt.ID
	entry.ServiceCenterID = &appt.ServiceCenterID
	entry.TargetUserID = &appt.UserID

	if err := s.appointments.SetStatus(ctx, appointmentID, status, entry); err != nil {
		return nil, err
	}

	appt.Status = status
	s.logger.Warn("appointment status overridden",
		"ticket", appt.TicketNumber, "status", status, "admin_id", admin.ID)
	return appt, nil
}

// Status is the public aggregate view of a center's queue today.
func (s *Service) Status(ctx context.Context, centerID uuid.UUID) (*model.QueueStatus, error) {
	svcCenter, err := s.centers.Get(ctx, centerID)
	if err != nil {
		return nil, err
	}

	day := today()
	total, err := s.appointments.CountQueued(ctx, centerID, day)
	if err != nil {
		return nil, err
	}

	status := &model.QueueStatus{
		ServiceCenterID:   centerID,
		ServiceCenterName: svcCenter.Name,
		TotalInQueue:      total,
		AverageWaitTime:   svcCenter.AverageServiceTime,
		EstimatedWaitTime: total * svcCenter.AverageServiceTime,
		LastUpdated:       time.Now(),
	}

	serving, err := s.appointments.CurrentServing(ctx, centerID, day)
	if err != nil {
		return nil, err
	}
	if serving != nil {
		status.CurrentServing = &serving.TicketNumber
	}
	return status, nil
}

// NextTicket is the display-board view of the head of the queue.
func (s *Service) NextTicket(ctx context.Context, centerID uuid.UUID) (*model.NextTicket, error) {
	if _, err := s.centers.Get(ctx, centerID); err != nil {
		return nil, err
	}

	next, err := s.appointments.NextInQueue(ctx, centerID, today())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, apperrors.EmptyQueue("no customers in queue")
	}

	position := 0
	if next.QueuePosition != nil {
		position = *next.QueuePosition
	}
	return &model.NextTicket{
		TicketNumber:         next.TicketNumber,
		QueuePosition:        position,
		AppointmentType:      next.AppointmentType,
		EstimatedServiceTime: s.avgServiceTime(ctx, centerID),
	}, nil
}

// MyQueue shows the caller's active appointments for today with their live
// place in the queue.
func (s *Service) MyQueue(ctx context.Context, caller *model.User) ([]*model.MyQueueEntry, error) {
	day := today()
	appointments, err := s.appointments.List(ctx, &model.AppointmentFilters{
		UserID: caller.ID,
		Date:   &day,
	})
	if err != nil {
		return nil, err
	}

	entries := []*model.MyQueueEntry{}
	for _, appt := range appointments {
		if appt.Status.Terminal() {
			continue
		}
		entry, err := s.queueEntry(ctx, appt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Position reports the caller's place for one appointment.
func (s *Service) Position(ctx context.Context, caller *model.User, appointmentID uuid.UUID) (*model.MyQueueEntry, error) {
	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != caller.ID && !caller.Role.CanOperateQueue() {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return s.queueEntry(ctx, appt)
}

// queueEntry derives the live view for one appointment. PeopleAhead is
// recounted on every call so cancellations ahead shrink the number even
// though positions are never renumbered.
func (s *Service) queueEntry(ctx context.Context, appt *model.Appointment) (*model.MyQueueEntry, error) {
	avg := s.avgServiceTime(ctx, appt.ServiceCenterID)
	entry := &model.MyQueueEntry{
		Appointment:   appt,
		QueuePosition: appt.QueuePosition,
	}

	serving, err := s.appointments.CurrentServing(ctx, appt.ServiceCenterID, appt.AppointmentDate)
	if err != nil {
		return nil, err
	}
	if serving != nil {
		entry.CurrentServing = &serving.TicketNumber
	}

	switch appt.Status {
	case model.AppointmentStatusScheduled:
		queued, err := s.appointments.CountQueued(ctx, appt.ServiceCenterID, appt.AppointmentDate)
		if err != nil {
			return nil, err
		}
		entry.PeopleAhead = queued
		entry.EstimatedWaitTime = queued * avg
		entry.CanCheckIn = sameDay(appt.AppointmentDate, time.Now())
		entry.StatusMessage = "Not checked in yet. Check in when you arrive at the center."
	case model.AppointmentStatusConfirmed:
		position := 0
		if appt.QueuePosition != nil {
			position = *appt.QueuePosition
		}
		ahead, err := s.appointments.CountAhead(ctx, appt.ServiceCenterID, appt.AppointmentDate, position)
		if err != nil {
			return nil, err
		}
		entry.PeopleAhead = ahead
		entry.EstimatedWaitTime = ahead * avg
		entry.StatusMessage = fmt.Sprintf("You are in the queue. %d people ahead of you.", ahead)
	case model.AppointmentStatusInProgress:
		entry.StatusMessage = "It's your turn! Please proceed to the counter."
	}
	return entry, nil
}

// CenterQueue is the staff listing of a center's appointments for a date.
func (s *Service) CenterQueue(ctx context.Context, staff *model.User, centerID uuid.UUID, date string, status model.AppointmentStatus) ([]*model.Appointment, error) {
	if !staff.Role.CanOperateQueue() {
		return nil, apperrors.Permission("staff role required")
	}
	if _, err := s.centers.Get(ctx, centerID); err != nil {
		return nil, err
	}

	day := today()
	if date != "" {
		parsed, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return nil, apperrors.BadRequest("date must be YYYY-MM-DD", err)
		}
		day = parsed
	}

	return s.appointments.List(ctx, &model.AppointmentFilters{
		ServiceCenterID: centerID,
		Status:          status,
		Date:            &day,
	})
}

// DailyStats aggregates one center's day for reporting.
func (s *Service) DailyStats(ctx context.Context, staff *model.User, centerID uuid.UUID, date string) (*model.DailyStats, error) {
	if !staff.Role.CanOperateQueue() {
		return nil, apperrors.Permission("staff role required")
	}
	if _, err := s.centers.Get(ctx, centerID); err != nil {
		return nil, err
	}

	day := today()
	if date != "" {
		parsed, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			return nil, apperrors.BadRequest("date must be YYYY-MM-DD", err)
		}
		day = parsed
	}
	return s.appointments.DailyStats(ctx, centerID, day)
}

// Dashboard aggregates system-wide counters for the admin landing page.
func (s *Service) Dashboard(ctx context.Context, admin *model.User) (*model.DashboardStats, error) {
	if admin.Role != model.RoleAdmin {
		return nil, apperrors.Permission("admin role required")
	}

	day := today()
	stats := &model.DashboardStats{}

	var err error
	if stats.TodayAppointments, err = s.appointments.CountOnDate(ctx, day); err != nil {
		return nil, err
	}
	if stats.ActiveQueue, err = s.appointments.CountQueuedAllCenters(ctx, day); err != nil {
		return nil, err
	}
	if stats.CompletedToday, err = s.appointments.CountCompletedOnDate(ctx, day); err != nil {
		return nil, err
	}
	if stats.TotalAppointments, err = s.appointments.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.UsersRegistered, err = s.users.Count(ctx); err != nil {
		return nil, err
	}

	centers, err := s.centers.List(ctx, &model.CenterFilters{})
	if err != nil {
		return nil, err
	}
	totalAvg := 0
	for _, c := range centers {
		totalAvg += c.AverageServiceTime
	}
	stats.ServiceCentersActive = len(centers)
	if len(centers) > 0 {
		stats.AvgWaitTime = totalAvg / len(centers)
	}
	return stats, nil
}

func (s *Service) avgServiceTime(ctx context.Context, centerID uuid.UUID) int {
	svcCenter, err := s.centers.Get(ctx, centerID)
	if err != nil || svcCenter.AverageServiceTime <= 0 {
		return 15
	}
	return svcCenter.AverageServiceTime
}

// publish emits a queue event for display boards. Failures are logged and
// swallowed; the transition has already committed.
func (s *Service) publish(eventType string, appt *model.Appointment) {
	if s.broker == nil {
		return
	}
	event := model.QueueEvent{
		Type:            eventType,
		ServiceCenterID: appt.ServiceCenterID,
		TicketNumber:    appt.TicketNumber,
		QueuePosition:   appt.QueuePosition,
		OccurredAt:      time.Now(),
		AppointmentID:   &appt.ID,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.broker.Publish(ctx, messaging.TopicQueueEvents, event); err != nil {
		s.logger.Warn("failed to publish queue event",
			"type", eventType, "ticket", appt.TicketNumber, "error", err.Error())
	}
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
