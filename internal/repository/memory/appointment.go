package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

type AppointmentRepo struct {
	s *Store
}

var _ repository.AppointmentRepository = (*AppointmentRepo)(nil)

func (r *AppointmentRepo) CreateBooking(_ context.Context, appt *model.Appointment, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	center, ok := r.s.centers[appt.ServiceCenterID]
	if !ok {
		return apperrors.NotFound("service center", nil)
	}

	booked := 0
	for _, existing := range r.s.appointments {
		if existing.TicketNumber == appt.TicketNumber {
			return repository.ErrDuplicateTicket
		}
		if existing.UserID == appt.UserID &&
			existing.AppointmentDate.Equal(appt.AppointmentDate) &&
			(existing.Status == model.AppointmentStatusScheduled || existing.Status == model.AppointmentStatusConfirmed) {
			return apperrors.Conflict("you already have an appointment scheduled for this date", nil)
		}
		if existing.ServiceCenterID == appt.ServiceCenterID &&
			existing.AppointmentDate.Equal(appt.AppointmentDate) &&
			existing.Status != model.AppointmentStatusCancelled {
			booked++
		}
	}
	if booked >= center.MaxDailyCapacity {
		return apperrors.CapacityExceeded("no more slots available for this date, please choose another date")
	}

	appt.ID = uuid.New()
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	r.s.appointments[appt.ID] = copyAppointment(appt)

	if entry != nil {
		entry.EntityID = appt.ID
		apptID := appt.ID
		entry.AppointmentID = &apptID
	}
	r.s.recordAudit(entry)
	return nil
}

func (r *AppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appt, ok := r.s.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return copyAppointment(appt), nil
}

func (r *AppointmentRepo) Update(_ context.Context, appt *model.Appointment, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.appointments[appt.ID]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}

	if !stored.AppointmentDate.Equal(appt.AppointmentDate) {
		center, ok := r.s.centers[stored.ServiceCenterID]
		if !ok {
			return apperrors.NotFound("service center", nil)
		}
		booked := 0
		for _, existing := range r.s.appointments {
			if existing.ID == appt.ID {
				continue
			}
			if existing.UserID == stored.UserID &&
				existing.AppointmentDate.Equal(appt.AppointmentDate) &&
				(existing.Status == model.AppointmentStatusScheduled || existing.Status == model.AppointmentStatusConfirmed) {
				return apperrors.Conflict("you already have an appointment scheduled for this date", nil)
			}
			if existing.ServiceCenterID == stored.ServiceCenterID &&
				existing.AppointmentDate.Equal(appt.AppointmentDate) &&
				existing.Status != model.AppointmentStatusCancelled {
				booked++
			}
		}
		if booked >= center.MaxDailyCapacity {
			return apperrors.CapacityExceeded("no more slots available for this date, please choose another date")
		}
	}

	stored.AppointmentDate = appt.AppointmentDate
	stored.ScheduledTime = appt.ScheduledTime
	stored.SpecialRequirements = appt.SpecialRequirements
	stored.Notes = appt.Notes
	stored.UpdatedAt = time.Now()

	r.s.recordAudit(entry)
	return nil
}

func (r *AppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*model.Appointment{}
	for _, appt := range r.s.appointments {
		if filters.UserID != uuid.Nil && appt.UserID != filters.UserID {
			continue
		}
		if filters.ServiceCenterID != uuid.Nil && appt.ServiceCenterID != filters.ServiceCenterID {
			continue
		}
		if filters.Status != "" && appt.Status != filters.Status {
			continue
		}
		if filters.Date != nil && !appt.AppointmentDate.Equal(*filters.Date) {
			continue
		}
		out = append(out, copyAppointment(appt))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *AppointmentRepo) ScheduledTimes(_ context.Context, centerID uuid.UUID, day time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	times := []string{}
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID == centerID && appt.AppointmentDate.Equal(day) {
			times = append(times, appt.ScheduledTime)
		}
	}
	return times, nil
}

func (r *AppointmentRepo) HasActiveOnDate(_ context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, appt := range r.s.appointments {
		if appt.UserID == userID && appt.AppointmentDate.Equal(day) &&
			(appt.Status == model.AppointmentStatusScheduled || appt.Status == model.AppointmentStatusConfirmed) {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepo) CountNonCancelled(_ context.Context, centerID uuid.UUID, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.countNonCancelledLocked(centerID, day), nil
}

func (r *AppointmentRepo) countNonCancelledLocked(centerID uuid.UUID, day time.Time) int {
	count := 0
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID == centerID && appt.AppointmentDate.Equal(day) &&
			appt.Status != model.AppointmentStatusCancelled {
			count++
		}
	}
	return count
}

func (r *AppointmentRepo) CheckIn(_ context.Context, id uuid.UUID, now time.Time, entry *model.AuditLog) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appt, ok := r.s.appointments[id]
	if !ok {
		return 0, apperrors.NotFound("appointment", nil)
	}
	if appt.Status != model.AppointmentStatusScheduled {
		return 0, apperrors.InvalidState("appointment is not available for check-in")
	}

	// Next position is the highest one handed out in the partition so far
	// plus one. Simultaneous check-ins cannot share a position and finished
	// tickets never give theirs back.
	position := 1
	for _, other := range r.s.appointments {
		if other.ID == appt.ID {
			continue
		}
		if other.ServiceCenterID == appt.ServiceCenterID &&
			other.AppointmentDate.Equal(appt.AppointmentDate) &&
			other.QueuePosition != nil && *other.QueuePosition >= position {
			position = *other.QueuePosition + 1
		}
	}

	appt.Status = model.AppointmentStatusConfirmed
	checkedIn := now
	appt.CheckedInAt = &checkedIn
	appt.QueuePosition = &position
	appt.UpdatedAt = now

	r.s.recordAudit(entry)
	return position, nil
}

func (r *AppointmentRepo) CallNext(_ context.Context, centerID uuid.UUID, day time.Time, staffID uuid.UUID, now time.Time, entry *model.AuditLog) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var next *model.Appointment
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID != centerID || !appt.AppointmentDate.Equal(day) ||
			appt.Status != model.AppointmentStatusConfirmed || appt.QueuePosition == nil {
			continue
		}
		if next == nil || *appt.QueuePosition < *next.QueuePosition {
			next = appt
		}
	}
	if next == nil {
		return nil, apperrors.EmptyQueue("no customers in queue")
	}

	next.Status = model.AppointmentStatusInProgress
	started := now
	next.ServiceStartedAt = &started
	staff := staffID
	next.ServedByUserID = &staff
	next.UpdatedAt = now

	if entry != nil {
		entry.EntityID = next.ID
		apptID := next.ID
		entry.AppointmentID = &apptID
		userID := next.UserID
		entry.TargetUserID = &userID
	}
	r.s.recordAudit(entry)
	return copyAppointment(next), nil
}

func (r *AppointmentRepo) Complete(_ context.Context, id uuid.UUID, notes string, now time.Time, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appt, ok := r.s.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if appt.Status != model.AppointmentStatusInProgress {
		return apperrors.InvalidState("appointment is not in progress")
	}

	appt.Status = model.AppointmentStatusCompleted
	completed := now
	appt.ServiceCompletedAt = &completed
	if notes != "" {
		appt.Notes = notes
	}
	appt.UpdatedAt = now

	r.s.recordAudit(entry)
	return nil
}

func (r *AppointmentRepo) Cancel(_ context.Context, id uuid.UUID, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appt, ok := r.s.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if appt.Status != model.AppointmentStatusScheduled && appt.Status != model.AppointmentStatusConfirmed {
		return apperrors.InvalidState("cannot cancel appointment in current status")
	}

	appt.Status = model.AppointmentStatusCancelled
	appt.UpdatedAt = time.Now()

	r.s.recordAudit(entry)
	return nil
}

func (r *AppointmentRepo) MarkNoShow(_ context.Context, id uuid.UUID, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appt, ok := r.s.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	if appt.Status != model.AppointmentStatusScheduled {
		return apperrors.InvalidState("only scheduled appointments can be marked as no-show")
	}

	appt.Status = model.AppointmentStatusNoShow
	appt.UpdatedAt = time.Now()

	r.s.recordAudit(entry)
	return nil
}

func (r *AppointmentRepo) SetStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	appt, ok := r.s.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	appt.Status = status
	appt.UpdatedAt = time.Now()

	r.s.recordAudit(entry)
	return nil
}

func (r *AppointmentRepo) CountAhead(_ context.Context, centerID uuid.UUID, day time.Time, position int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID == centerID && appt.AppointmentDate.Equal(day) &&
			(appt.Status == model.AppointmentStatusConfirmed || appt.Status == model.AppointmentStatusInProgress) &&
			appt.QueuePosition != nil && *appt.QueuePosition < position {
			count++
		}
	}
	return count, nil
}

func (r *AppointmentRepo) CountQueued(_ context.Context, centerID uuid.UUID, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID == centerID && appt.AppointmentDate.Equal(day) &&
			(appt.Status == model.AppointmentStatusConfirmed || appt.Status == model.AppointmentStatusInProgress) {
			count++
		}
	}
	return count, nil
}

func (r *AppointmentRepo) CurrentServing(_ context.Context, centerID uuid.UUID, day time.Time) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var serving *model.Appointment
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID != centerID || !appt.AppointmentDate.Equal(day) ||
			appt.Status != model.AppointmentStatusInProgress {
			continue
		}
		if serving == nil ||
			(appt.ServiceStartedAt != nil && serving.ServiceStartedAt != nil &&
				appt.ServiceStartedAt.Before(*serving.ServiceStartedAt)) {
			serving = appt
		}
	}
	if serving == nil {
		return nil, nil
	}
	return copyAppointment(serving), nil
}

func (r *AppointmentRepo) NextInQueue(_ context.Context, centerID uuid.UUID, day time.Time) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var next *model.Appointment
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID != centerID || !appt.AppointmentDate.Equal(day) ||
			appt.Status != model.AppointmentStatusConfirmed || appt.QueuePosition == nil {
			continue
		}
		if next == nil || *appt.QueuePosition < *next.QueuePosition {
			next = appt
		}
	}
	if next == nil {
		return nil, nil
	}
	return copyAppointment(next), nil
}

func (r *AppointmentRepo) DailyStats(_ context.Context, centerID uuid.UUID, day time.Time) (*model.DailyStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := &model.DailyStats{Date: day, ServiceCenterID: centerID}
	totalMinutes := 0.0
	timed := 0
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID != centerID || !appt.AppointmentDate.Equal(day) {
			continue
		}
		stats.TotalAppointments++
		switch appt.Status {
		case model.AppointmentStatusCompleted:
			stats.Completed++
			if appt.ServiceStartedAt != nil && appt.ServiceCompletedAt != nil {
				totalMinutes += appt.ServiceCompletedAt.Sub(*appt.ServiceStartedAt).Minutes()
				timed++
			}
		case model.AppointmentStatusNoShow:
			stats.NoShows++
		case model.AppointmentStatusCancelled:
			stats.Cancelled++
		}
	}
	if stats.TotalAppointments > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalAppointments) * 100
	}
	if timed > 0 {
		stats.AverageServiceMinutes = totalMinutes / float64(timed)
	}
	return stats, nil
}

func (r *AppointmentRepo) CountAll(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.appointments), nil
}

func (r *AppointmentRepo) CountOnDate(_ context.Context, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, appt := range r.s.appointments {
		if appt.AppointmentDate.Equal(day) {
			count++
		}
	}
	return count, nil
}

func (r *AppointmentRepo) CountQueuedAllCenters(_ context.Context, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, appt := range r.s.appointments {
		if appt.AppointmentDate.Equal(day) &&
			(appt.Status == model.AppointmentStatusConfirmed || appt.Status == model.AppointmentStatusInProgress) {
			count++
		}
	}
	return count, nil
}

func (r *AppointmentRepo) CountCompletedOnDate(_ context.Context, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, appt := range r.s.appointments {
		if appt.AppointmentDate.Equal(day) && appt.Status == model.AppointmentStatusCompleted {
			count++
		}
	}
	return count, nil
}
