package center

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository/memory"
	"github.com/smart-enid/booking-api/internal/service/audit"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

func newSlotsFixture(t *testing.T, opening, closing string) (*Service, *memory.Store, *model.ServiceCenter) {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(store.Centers(), store.Appointments(), audit.NewService(store.Audits()), log)

	center := store.SeedCenter(&model.ServiceCenter{
		Name:               "Huye Branch",
		Code:               "HYE01",
		OpeningTime:        opening,
		ClosingTime:        closing,
		MaxDailyCapacity:   50,
		AverageServiceTime: 10,
		IsActive:           true,
		IsOperational:      true,
	})
	return svc, store, center
}

func TestAvailableSlotsCoversWindowInclusive(t *testing.T) {
	svc, _, center := newSlotsFixture(t, "09:00", "10:30")
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	slots, err := svc.AvailableSlots(context.Background(), center.ID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slots)
}

func TestAvailableSlotsRemovesBookedTimes(t *testing.T) {
	svc, store, center := newSlotsFixture(t, "09:00", "10:30")
	day := time.Now().AddDate(0, 0, 1)
	date := day.Format("2006-01-02")
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)

	store.SeedAppointment(&model.Appointment{
		TicketNumber:    "HYE01-taken",
		UserID:          uuid.New(),
		ServiceCenterID: center.ID,
		AppointmentDate: midnight,
		ScheduledTime:   "09:30",
		Status:          model.AppointmentStatusScheduled,
	})

	slots, err := svc.AvailableSlots(context.Background(), center.ID, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "10:30"}, slots)
}

func TestAvailableSlotsTodayKeepsOnlyFutureTimes(t *testing.T) {
	svc, _, center := newSlotsFixture(t, "00:00", "23:30")
	now := time.Now()

	slots, err := svc.AvailableSlots(context.Background(), center.ID, now.Format("2006-01-02"))
	require.NoError(t, err)

	cutoff := now.Format("15:04")
	for _, slot := range slots {
		assert.Greater(t, slot, cutoff)
	}
}

func TestAvailableSlotsFullyBookedIsEmptyNotError(t *testing.T) {
	svc, store, center := newSlotsFixture(t, "09:00", "09:00")
	day := time.Now().AddDate(0, 0, 1)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)

	store.SeedAppointment(&model.Appointment{
		TicketNumber:    "HYE01-only",
		UserID:          uuid.New(),
		ServiceCenterID: center.ID,
		AppointmentDate: midnight,
		ScheduledTime:   "09:00",
		Status:          model.AppointmentStatusScheduled,
	})

	slots, err := svc.AvailableSlots(context.Background(), center.ID, day.Format("2006-01-02"))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsRejectsBadDate(t *testing.T) {
	svc, _, center := newSlotsFixture(t, "09:00", "17:00")

	_, err := svc.AvailableSlots(context.Background(), center.ID, "25-08-2026")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestAvailableSlotsUnknownCenter(t *testing.T) {
	svc, _, _ := newSlotsFixture(t, "09:00", "17:00")

	_, err := svc.AvailableSlots(context.Background(), uuid.New(), "2026-09-01")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
