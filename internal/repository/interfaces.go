package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
)

// ErrDuplicateTicket is returned by CreateBooking when the generated ticket
// number collides with an existing one. Callers regenerate and retry.
var ErrDuplicateTicket = errors.New("duplicate ticket number")

// All repository interfaces in one file.
//
// Mutating appointment operations take the audit entry describing them and
// must persist it atomically with the state change: a transition that cannot
// be recorded is rolled back. Aggregate counts are derived on every call;
// the store is the single source of truth for queue state.
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByNationalID(ctx context.Context, nationalID string) (*model.User, error)
		Count(ctx context.Context) (int, error)
	}

	CenterRepository interface {
		Create(ctx context.Context, center *model.ServiceCenter) error
		Get(ctx context.Context, id uuid.UUID) (*model.ServiceCenter, error)
		GetByCode(ctx context.Context, code string) (*model.ServiceCenter, error)
		Update(ctx context.Context, center *model.ServiceCenter) error
		// Delete fails with a conflict when any appointment references the
		// center; callers deactivate instead.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.CenterFilters) ([]*model.ServiceCenter, error)
		CountActive(ctx context.Context) (int, error)
	}

	AppointmentRepository interface {
		// CreateBooking inserts the appointment after re-validating, under a
		// lock on the center row, that daily capacity is not exhausted and
		// the user holds no active appointment for the date. A colliding
		// ticket number surfaces as ErrDuplicateTicket.
		CreateBooking(ctx context.Context, appt *model.Appointment, entry *model.AuditLog) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// Update rewrites the slot fields. A date change re-runs the
		// conflict and capacity checks for the target date in the same
		// transaction, so a reschedule cannot oversell a day either.
		Update(ctx context.Context, appt *model.Appointment, entry *model.AuditLog) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ScheduledTimes(ctx context.Context, centerID uuid.UUID, day time.Time) ([]string, error)
		HasActiveOnDate(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error)
		CountNonCancelled(ctx context.Context, centerID uuid.UUID, day time.Time) (int, error)

		// CheckIn flips a scheduled appointment to confirmed and assigns the
		// next queue position: one past the highest position already handed
		// out in the (center, date) partition. Single atomic read-modify-write.
		CheckIn(ctx context.Context, id uuid.UUID, now time.Time, entry *model.AuditLog) (int, error)
		// CallNext pops the confirmed appointment with the smallest queue
		// position for (center, today). Concurrent callers for the same
		// center must receive distinct appointments.
		CallNext(ctx context.Context, centerID uuid.UUID, day time.Time, staffID uuid.UUID, now time.Time, entry *model.AuditLog) (*model.Appointment, error)
		Complete(ctx context.Context, id uuid.UUID, notes string, now time.Time, entry *model.AuditLog) error
		Cancel(ctx context.Context, id uuid.UUID, entry *model.AuditLog) error
		MarkNoShow(ctx context.Context, id uuid.UUID, entry *model.AuditLog) error
		// SetStatus is the administrative override; it bypasses transition guards.
		SetStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, entry *model.AuditLog) error

		CountAhead(ctx context.Context, centerID uuid.UUID, day time.Time, position int) (int, error)
		CountQueued(ctx context.Context, centerID uuid.UUID, day time.Time) (int, error)
		CurrentServing(ctx context.Context, centerID uuid.UUID, day time.Time) (*model.Appointment, error)
		NextInQueue(ctx context.Context, centerID uuid.UUID, day time.Time) (*model.Appointment, error)

		DailyStats(ctx context.Context, centerID uuid.UUID, day time.Time) (*model.DailyStats, error)
		CountAll(ctx context.Context) (int, error)
		CountOnDate(ctx context.Context, day time.Time) (int, error)
		CountQueuedAllCenters(ctx context.Context, day time.Time) (int, error)
		CountCompletedOnDate(ctx context.Context, day time.Time) (int, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, entry *model.AuditLog) error
		List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		Update(ctx context.Context, n *model.Notification) error
		ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
		ListAll(ctx context.Context, limit int) ([]*model.Notification, error)
		// ListDeliverable returns pending and retryable failed notifications
		// in creation order.
		ListDeliverable(ctx context.Context, limit int) ([]*model.Notification, error)
	}
)
