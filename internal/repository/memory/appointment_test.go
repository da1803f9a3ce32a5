package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
)

func seedQueueCenter(s *Store) *model.ServiceCenter {
	return s.SeedCenter(&model.ServiceCenter{
		Name:               "Kigali Main",
		Code:               "KGL01",
		OpeningTime:        "08:00",
		ClosingTime:        "17:00",
		MaxDailyCapacity:   50,
		AverageServiceTime: 10,
		IsActive:           true,
		IsOperational:      true,
	})
}

func seedScheduled(s *Store, centerID uuid.UUID, day time.Time, ticket string) *model.Appointment {
	return s.SeedAppointment(&model.Appointment{
		TicketNumber:    ticket,
		UserID:          uuid.New(),
		ServiceCenterID: centerID,
		AppointmentDate: day,
		ScheduledTime:   "09:00",
		Status:          model.AppointmentStatusScheduled,
	})
}

func TestCheckInDistinctPositionsForEqualTimestamps(t *testing.T) {
	store := NewStore()
	center := seedQueueCenter(store)
	day := time.Now().Truncate(24 * time.Hour)
	ctx := context.Background()

	a := seedScheduled(store, center.ID, day, "KGL01-260825-001")
	b := seedScheduled(store, center.ID, day, "KGL01-260825-002")

	// Two check-ins can land on the exact same clock reading; positions
	// must still come out distinct and in order.
	now := time.Now()
	posA, err := store.Appointments().CheckIn(ctx, a.ID, now, nil)
	require.NoError(t, err)
	posB, err := store.Appointments().CheckIn(ctx, b.ID, now, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, posA)
	assert.Equal(t, 2, posB)
}

func TestCheckInNeverReusesFinishedPositions(t *testing.T) {
	store := NewStore()
	center := seedQueueCenter(store)
	day := time.Now().Truncate(24 * time.Hour)
	ctx := context.Background()
	staff := uuid.New()

	a := seedScheduled(store, center.ID, day, "KGL01-260825-010")
	b := seedScheduled(store, center.ID, day, "KGL01-260825-011")

	pos, err := store.Appointments().CheckIn(ctx, a.ID, time.Now(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, pos)

	called, err := store.Appointments().CallNext(ctx, center.ID, day, staff, time.Now(), nil)
	require.NoError(t, err)
	require.Equal(t, a.ID, called.ID)
	require.NoError(t, store.Appointments().Complete(ctx, a.ID, "", time.Now(), nil))

	// The first ticket is done, but its position stays taken.
	pos, err = store.Appointments().CheckIn(ctx, b.ID, time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
}

func TestCreateBookingRejectsDuplicateTicket(t *testing.T) {
	store := NewStore()
	center := seedQueueCenter(store)
	day := time.Now().Truncate(24 * time.Hour)
	ctx := context.Background()

	seedScheduled(store, center.ID, day, "KGL01-260825-123")

	err := store.Appointments().CreateBooking(ctx, &model.Appointment{
		TicketNumber:    "KGL01-260825-123",
		UserID:          uuid.New(),
		ServiceCenterID: center.ID,
		AppointmentDate: day.AddDate(0, 0, 1),
		ScheduledTime:   "10:00",
		Status:          model.AppointmentStatusScheduled,
	}, nil)
	assert.ErrorIs(t, err, repository.ErrDuplicateTicket)
}
