package queue

import "github.com/smart-enid/booking-api/internal/model"

// Action is a queue operation that moves an appointment between statuses.
type Action string

const (
	ActionCheckIn  Action = "check_in"
	ActionCallNext Action = "call_next"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionNoShow   Action = "no_show"
)

// transitions maps each action to the statuses it may be applied from.
// Terminal statuses appear in no list; only the administrative override
// can move an appointment out of them.
var transitions = map[Action][]model.AppointmentStatus{
	ActionCheckIn:  {model.AppointmentStatusScheduled},
	ActionCallNext: {model.AppointmentStatusConfirmed},
	ActionComplete: {model.AppointmentStatusInProgress},
	ActionCancel:   {model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed},
	ActionNoShow:   {model.AppointmentStatusScheduled},
}

// Allowed reports whether action may be applied to an appointment in from.
func Allowed(action Action, from model.AppointmentStatus) bool {
	for _, s := range transitions[action] {
		if s == from {
			return true
		}
	}
	return false
}
