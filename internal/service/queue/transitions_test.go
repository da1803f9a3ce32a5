package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smart-enid/booking-api/internal/model"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		action Action
		from   model.AppointmentStatus
		want   bool
	}{
		{ActionCheckIn, model.AppointmentStatusScheduled, true},
		{ActionCheckIn, model.AppointmentStatusConfirmed, false},
		{ActionCheckIn, model.AppointmentStatusCompleted, false},
		{ActionCallNext, model.AppointmentStatusConfirmed, true},
		{ActionCallNext, model.AppointmentStatusScheduled, false},
		{ActionComplete, model.AppointmentStatusInProgress, true},
		{ActionComplete, model.AppointmentStatusConfirmed, false},
		{ActionCancel, model.AppointmentStatusScheduled, true},
		{ActionCancel, model.AppointmentStatusConfirmed, true},
		{ActionCancel, model.AppointmentStatusInProgress, false},
		{ActionNoShow, model.AppointmentStatusScheduled, true},
		{ActionNoShow, model.AppointmentStatusConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Allowed(tc.action, tc.from),
			"%s from %s", tc.action, tc.from)
	}
}

func TestTerminalStatusesAllowNoAction(t *testing.T) {
	terminal := []model.AppointmentStatus{
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	}
	actions := []Action{ActionCheckIn, ActionCallNext, ActionComplete, ActionCancel, ActionNoShow}

	for _, status := range terminal {
		assert.True(t, status.Terminal())
		for _, action := range actions {
			assert.False(t, Allowed(action, status), "%s must be rejected from %s", action, status)
		}
	}
}
