package queue

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository/memory"
	"github.com/smart-enid/booking-api/internal/service/audit"
	centerservice "github.com/smart-enid/booking-api/internal/service/center"
	"github.com/smart-enid/booking-api/internal/service/notification"
	"github.com/smart-enid/booking-api/internal/sms"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
	"github.com/smart-enid/booking-api/pkg/metrics"
)

type fakeEmail struct{}

func (fakeEmail) SendCustom(context.Context, string, string, string) error { return nil }

type fixture struct {
	svc    *Service
	store  *memory.Store
	center *model.ServiceCenter
	staff  *model.User
	admin  *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	m := metrics.New(prometheus.NewRegistry())

	notifier := notification.NewService(
		store.Notifications(), store.Users(), fakeEmail{}, sms.NewService(log), log, m)
	auditor := audit.NewService(store.Audits())
	centers := centerservice.NewService(store.Centers(), store.Appointments(), auditor, log)

	svc := NewService(store.Appointments(), centers, store.Users(), notifier, nil, log, m)

	center := store.SeedCenter(&model.ServiceCenter{
		Name:               "Kigali Main",
		Code:               "KGL01",
		City:               "Kigali",
		OpeningTime:        "08:00",
		ClosingTime:        "17:00",
		MaxDailyCapacity:   100,
		AverageServiceTime: 10,
		IsActive:           true,
		IsOperational:      true,
	})
	staff := store.SeedUser(&model.User{
		Email: "staff@example.com", Role: model.RoleStaff, IsActive: true,
	})
	admin := store.SeedUser(&model.User{
		Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true,
	})

	return &fixture{svc: svc, store: store, center: center, staff: staff, admin: admin}
}

func (f *fixture) seedScheduled(t *testing.T, day time.Time) (*model.User, *model.Appointment) {
	t.Helper()
	user := f.store.SeedUser(&model.User{
		Email:    uuid.NewString() + "@example.com",
		Phone:    "+250780000000",
		Role:     model.RoleCitizen,
		IsActive: true,
	})
	appt := f.store.SeedAppointment(&model.Appointment{
		TicketNumber:    "KGL01-" + day.Format("060102") + "-" + uuid.NewString()[:3],
		UserID:          user.ID,
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeNewApplication,
		AppointmentDate: day,
		ScheduledTime:   "09:00",
		Priority:        model.PriorityNormal,
		Status:          model.AppointmentStatusScheduled,
	})
	return user, appt
}

func TestCheckInAssignsSequentialPositions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	for want := 1; want <= 3; want++ {
		user, appt := f.seedScheduled(t, day)
		got, err := f.svc.CheckIn(ctx, user, appt.ID)
		require.NoError(t, err)
		require.NotNil(t, got.QueuePosition)
		assert.Equal(t, want, *got.QueuePosition)
		assert.Equal(t, model.AppointmentStatusConfirmed, got.Status)
		assert.NotNil(t, got.CheckedInAt)
	}
}

func TestCheckInRejectsWrongDate(t *testing.T) {
	f := newFixture(t)
	user, appt := f.seedScheduled(t, today().AddDate(0, 0, 1))

	_, err := f.svc.CheckIn(context.Background(), user, appt.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidState))
}

func TestCheckInRejectsDoubleCheckIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, appt := f.seedScheduled(t, today())

	_, err := f.svc.CheckIn(ctx, user, appt.ID)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, user, appt.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidState))
}

func TestCheckInHidesForeignAppointment(t *testing.T) {
	f := newFixture(t)
	_, appt := f.seedScheduled(t, today())
	stranger := f.store.SeedUser(&model.User{
		Email: "stranger@example.com", Role: model.RoleCitizen, IsActive: true,
	})

	_, err := f.svc.CheckIn(context.Background(), stranger, appt.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestCallNextServesInPositionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	var tickets []string
	for i := 0; i < 3; i++ {
		user, appt := f.seedScheduled(t, day)
		got, err := f.svc.CheckIn(ctx, user, appt.ID)
		require.NoError(t, err)
		tickets = append(tickets, got.TicketNumber)
	}

	for _, want := range tickets {
		got, err := f.svc.CallNext(ctx, f.staff, f.center.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.TicketNumber)
		assert.Equal(t, model.AppointmentStatusInProgress, got.Status)
		require.NotNil(t, got.ServedByUserID)
		assert.Equal(t, f.staff.ID, *got.ServedByUserID)

		_, err = f.svc.Complete(ctx, f.staff, got.ID, "")
		require.NoError(t, err)
	}

	_, err := f.svc.CallNext(ctx, f.staff, f.center.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrEmptyQueue))
}

func TestCallNextConcurrentCallersGetDistinctTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	const n = 10
	for i := 0; i < n; i++ {
		user, appt := f.seedScheduled(t, day)
		_, err := f.svc.CheckIn(ctx, user, appt.ID)
		require.NoError(t, err)
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		seen = make(map[uuid.UUID]bool)
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appt, err := f.svc.CallNext(ctx, f.staff, f.center.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if seen[appt.ID] {
				t.Errorf("ticket %s handed out twice", appt.TicketNumber)
			}
			seen[appt.ID] = true
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Len(t, seen, n)
}

func TestCallNextRequiresStaffRole(t *testing.T) {
	f := newFixture(t)
	citizen := f.store.SeedUser(&model.User{
		Email: "citizen@example.com", Role: model.RoleCitizen, IsActive: true,
	})

	_, err := f.svc.CallNext(context.Background(), citizen, f.center.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPermission))
}

func TestCompleteRequiresInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, appt := f.seedScheduled(t, today())

	_, err := f.svc.Complete(ctx, f.staff, appt.ID, "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidState))
}

func TestCancelReleasesScheduledAndConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	user, scheduled := f.seedScheduled(t, day)
	got, err := f.svc.Cancel(ctx, user, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)

	user2, confirmed := f.seedScheduled(t, day)
	_, err = f.svc.CheckIn(ctx, user2, confirmed.ID)
	require.NoError(t, err)
	got, err = f.svc.Cancel(ctx, user2, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)

	// Terminal now; a second cancel must fail.
	_, err = f.svc.Cancel(ctx, user2, confirmed.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidState))
}

func TestMarkNoShowOnlyFromScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	user, appt := f.seedScheduled(t, day)
	_, err := f.svc.CheckIn(ctx, user, appt.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkNoShow(ctx, f.staff, appt.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidState))

	_, fresh := f.seedScheduled(t, day)
	got, err := f.svc.MarkNoShow(ctx, f.staff, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusNoShow, got.Status)
}

func TestOverrideStatusBypassesGuardsAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, appt := f.seedScheduled(t, today())
	_, err := f.svc.Cancel(ctx, user, appt.ID)
	require.NoError(t, err)

	// Staff may not override.
	_, err = f.svc.OverrideStatus(ctx, f.staff, appt.ID, model.AppointmentStatusScheduled)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPermission))

	got, err := f.svc.OverrideStatus(ctx, f.admin, appt.ID, model.AppointmentStatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)

	var found bool
	for _, entry := range f.store.AuditEntries() {
		if entry.Action == model.AuditActionStatusOverride {
			found = true
		}
	}
	assert.True(t, found, "override must leave an audit entry")
}

func TestPositionDerivesPeopleAheadFromLiveCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	type entry struct {
		user *model.User
		appt *model.Appointment
	}
	var entries []entry
	for i := 0; i < 3; i++ {
		user, appt := f.seedScheduled(t, day)
		_, err := f.svc.CheckIn(ctx, user, appt.ID)
		require.NoError(t, err)
		entries = append(entries, entry{user, appt})
	}

	last := entries[2]
	view, err := f.svc.Position(ctx, last.user, last.appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.PeopleAhead)

	// Serve the head of the queue; the count ahead shrinks even though the
	// stored position never changes.
	first, err := f.svc.CallNext(ctx, f.staff, f.center.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, f.staff, first.ID, "done")
	require.NoError(t, err)

	view, err = f.svc.Position(ctx, last.user, last.appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.PeopleAhead)
	require.NotNil(t, view.QueuePosition)
	assert.Equal(t, 3, *view.QueuePosition)
}

func TestStatusAggregatesQueue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	for i := 0; i < 2; i++ {
		user, appt := f.seedScheduled(t, day)
		_, err := f.svc.CheckIn(ctx, user, appt.ID)
		require.NoError(t, err)
	}
	serving, err := f.svc.CallNext(ctx, f.staff, f.center.ID)
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, f.center.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalInQueue)
	require.NotNil(t, status.CurrentServing)
	assert.Equal(t, serving.TicketNumber, *status.CurrentServing)
	assert.Equal(t, 2*f.center.AverageServiceTime, status.EstimatedWaitTime)
}

func TestNextTicketEmptyQueue(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.NextTicket(context.Background(), f.center.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrEmptyQueue))
}

func TestMyQueueSkipsTerminalAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := today()

	user, active := f.seedScheduled(t, day)
	cancelled := f.store.SeedAppointment(&model.Appointment{
		TicketNumber:    "KGL01-cancelled",
		UserID:          user.ID,
		ServiceCenterID: f.center.ID,
		AppointmentDate: day,
		ScheduledTime:   "10:00",
		Status:          model.AppointmentStatusCancelled,
	})
	_ = cancelled

	entries, err := f.svc.MyQueue(ctx, user)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, active.ID, entries[0].Appointment.ID)
	assert.True(t, entries[0].CanCheckIn)
}

func TestDashboardRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Dashboard(context.Background(), f.staff)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPermission))

	stats, err := f.svc.Dashboard(context.Background(), f.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ServiceCentersActive)
	assert.Equal(t, 2, stats.UsersRegistered)
}
