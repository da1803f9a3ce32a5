package booking

import (
	"context"
	"fmt"
	"io"
	"regexp"
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
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	m := metrics.New(prometheus.NewRegistry())

	notifier := notification.NewService(
		store.Notifications(), store.Users(), fakeEmail{}, sms.NewService(log), log, m)
	auditor := audit.NewService(store.Audits())
	centers := centerservice.NewService(store.Centers(), store.Appointments(), auditor, log)

	svc := NewService(store.Appointments(), centers, notifier, log, m)

	center := store.SeedCenter(&model.ServiceCenter{
		Name:               "Kigali Main",
		Code:               "KGL01",
		City:               "Kigali",
		OpeningTime:        "08:00",
		ClosingTime:        "17:00",
		MaxDailyCapacity:   capacity,
		AverageServiceTime: 10,
		IsActive:           true,
		IsOperational:      true,
	})
	return &fixture{svc: svc, store: store, center: center}
}

func (f *fixture) seedCitizen(t *testing.T) *model.User {
	t.Helper()
	return f.store.SeedUser(&model.User{
		Email:    time.Now().Format("150405.000000000") + "@example.com",
		Phone:    "+250780000000",
		Role:     model.RoleCitizen,
		IsActive: true,
	})
}

func tomorrow() string {
	return inDays(1)
}

func inDays(n int) string {
	return time.Now().AddDate(0, 0, n).Format("2006-01-02")
}

func TestBookAssignsTicketAndAudits(t *testing.T) {
	f := newFixture(t, 10)
	user := f.seedCitizen(t)

	appt, err := f.svc.Book(context.Background(), user, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeNewApplication,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	wantDate := time.Now().AddDate(0, 0, 1).Format("060102")
	assert.Regexp(t, regexp.MustCompile(`^KGL01-`+wantDate+`-\d{3}$`), appt.TicketNumber)
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)
	assert.Equal(t, model.PriorityNormal, appt.Priority)
	assert.Nil(t, appt.QueuePosition)
	assert.Equal(t, 1, f.store.AuditCount())
}

func TestBookRejectsSecondActiveOnSameDate(t *testing.T) {
	f := newFixture(t, 10)
	user := f.seedCitizen(t)
	ctx := context.Background()

	req := &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	}
	_, err := f.svc.Book(ctx, user, req)
	require.NoError(t, err)

	req.ScheduledTime = "10:00"
	_, err = f.svc.Book(ctx, user, req)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestBookCapacityBoundary(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Book(ctx, f.seedCitizen(t), &model.BookAppointmentRequest{
			ServiceCenterID: f.center.ID,
			AppointmentType: model.AppointmentTypeCollection,
			AppointmentDate: tomorrow(),
			ScheduledTime:   "09:00",
		})
		require.NoError(t, err)
	}

	_, err := f.svc.Book(ctx, f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeCollection,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "10:00",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCapacityExceeded))
}

func TestBookConcurrentLastSlot(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		user := f.seedCitizen(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Book(ctx, user, &model.BookAppointmentRequest{
				ServiceCenterID: f.center.ID,
				AppointmentType: model.AppointmentTypeNewApplication,
				AppointmentDate: tomorrow(),
				ScheduledTime:   "09:00",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !apperrors.IsCode(err, apperrors.ErrCapacityExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "exactly one booking may take the last slot")
}

func TestBookOutsideOperatingWindow(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.svc.Book(context.Background(), f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "07:30",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidWindow))

	_, err = f.svc.Book(context.Background(), f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "17:30",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidWindow))
}

func TestBookConflictReportedBeforeWindow(t *testing.T) {
	f := newFixture(t, 10)
	user := f.seedCitizen(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, user, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	// The request is both a duplicate booking and outside the operating
	// window; the duplicate is reported.
	_, err = f.svc.Book(ctx, user, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "07:30",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestBookCapacityReportedBeforeWindow(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeCollection,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeCollection,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "18:30",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCapacityExceeded))
}

func TestBookMalformedTimeIsWindowError(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.svc.Book(context.Background(), f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:xx",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidWindow))
}

func TestBookGivesUpWhenTicketSpaceExhausted(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	// Take every three-digit suffix for tomorrow so each regenerated
	// ticket collides and the bounded retry has to give up. The holders
	// sit on a far date so capacity for tomorrow stays open.
	wantDate := time.Now().AddDate(0, 0, 1).Format("060102")
	farDay := time.Now().AddDate(0, 1, 0)
	for i := 0; i < 1000; i++ {
		f.store.SeedAppointment(&model.Appointment{
			TicketNumber:    fmt.Sprintf("KGL01-%s-%03d", wantDate, i),
			UserID:          uuid.New(),
			ServiceCenterID: f.center.ID,
			AppointmentDate: farDay,
			ScheduledTime:   "09:00",
			Status:          model.AppointmentStatusCancelled,
		})
	}

	_, err := f.svc.Book(ctx, f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeNewApplication,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInternal))
}

func TestBookRejectsPastSlot(t *testing.T) {
	f := newFixture(t, 10)
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")

	_, err := f.svc.Book(context.Background(), f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: yesterday,
		ScheduledTime:   "09:00",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrPastDate))
}

func TestBookRejectsNonOperationalCenter(t *testing.T) {
	f := newFixture(t, 10)
	closed := f.store.SeedCenter(&model.ServiceCenter{
		Name: "Closed", Code: "CLS01", OpeningTime: "08:00", ClosingTime: "17:00",
		MaxDailyCapacity: 10, AverageServiceTime: 10,
		IsActive: true, IsOperational: false,
	})

	_, err := f.svc.Book(context.Background(), f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: closed.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestRescheduleOnlyBeforeCheckIn(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	user := f.seedCitizen(t)

	appt, err := f.svc.Book(ctx, user, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeCorrection,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	newTime := "11:00"
	updated, err := f.svc.Reschedule(ctx, user, appt.ID, &model.UpdateAppointmentRequest{
		ScheduledTime: &newTime,
	})
	require.NoError(t, err)
	assert.Equal(t, "11:00", updated.ScheduledTime)

	// Simulate check-in, then rescheduling must be refused.
	pos := 1
	now := time.Now()
	checked := f.store.SeedAppointment(&model.Appointment{
		TicketNumber:    "KGL01-checked",
		UserID:          user.ID,
		ServiceCenterID: f.center.ID,
		AppointmentDate: time.Now().AddDate(0, 0, 2),
		ScheduledTime:   "09:00",
		Status:          model.AppointmentStatusConfirmed,
		QueuePosition:   &pos,
		CheckedInAt:     &now,
	})
	_, err = f.svc.Reschedule(ctx, user, checked.ID, &model.UpdateAppointmentRequest{
		ScheduledTime: &newTime,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidState))
}

func TestRescheduleRejectsDuplicateDay(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	user := f.seedCitizen(t)

	_, err := f.svc.Book(ctx, user, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: inDays(1),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	second, err := f.svc.Book(ctx, user, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: inDays(2),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	// Moving the second appointment onto the first one's date would give
	// the user two active bookings for the same day.
	target := inDays(1)
	_, err = f.svc.Reschedule(ctx, user, second.ID, &model.UpdateAppointmentRequest{
		AppointmentDate: &target,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
}

func TestRescheduleRejectsFullDay(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.seedCitizen(t), &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeCollection,
		AppointmentDate: inDays(1),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	mover := f.seedCitizen(t)
	appt, err := f.svc.Book(ctx, mover, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeCollection,
		AppointmentDate: inDays(2),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	target := inDays(1)
	_, err = f.svc.Reschedule(ctx, mover, appt.ID, &model.UpdateAppointmentRequest{
		AppointmentDate: &target,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCapacityExceeded))
}

func TestRescheduleHidesForeignAppointment(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	owner := f.seedCitizen(t)
	stranger := f.seedCitizen(t)

	appt, err := f.svc.Book(ctx, owner, &model.BookAppointmentRequest{
		ServiceCenterID: f.center.ID,
		AppointmentType: model.AppointmentTypeRenewal,
		AppointmentDate: tomorrow(),
		ScheduledTime:   "09:00",
	})
	require.NoError(t, err)

	newTime := "10:00"
	_, err = f.svc.Reschedule(ctx, stranger, appt.ID, &model.UpdateAppointmentRequest{
		ScheduledTime: &newTime,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
