package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// Terminal reports whether no further transition is permitted from s,
// except through the administrative override.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled || s == AppointmentStatusNoShow
}

type AppointmentType string

const (
	AppointmentTypeNewApplication AppointmentType = "new_application"
	AppointmentTypeRenewal        AppointmentType = "renewal"
	AppointmentTypeReplacement    AppointmentType = "replacement"
	AppointmentTypeCorrection     AppointmentType = "correction"
	AppointmentTypeCollection     AppointmentType = "collection"
)

type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityElderly  Priority = "elderly"
	PriorityDisabled Priority = "disabled"
	PriorityPregnant Priority = "pregnant"
	PriorityUrgent   Priority = "urgent"
)

// Appointment is a booked visit to a service center. AppointmentDate is a
// calendar date (midnight, server-local); ScheduledTime is the booked
// wall-clock slot as "HH:MM". QueuePosition is assigned exactly once, at
// check-in, and is never renumbered afterwards.
type Appointment struct {
	ID                  uuid.UUID         `db:"id" json:"id"`
	TicketNumber        string            `db:"ticket_number" json:"ticket_number"`
	UserID              uuid.UUID         `db:"user_id" json:"user_id"`
	ServiceCenterID     uuid.UUID         `db:"service_center_id" json:"service_center_id"`
	ServedByUserID      *uuid.UUID        `db:"served_by_user_id" json:"served_by_user_id,omitempty"`
	AppointmentType     AppointmentType   `db:"appointment_type" json:"appointment_type"`
	AppointmentDate     time.Time         `db:"appointment_date" json:"appointment_date"`
	ScheduledTime       string            `db:"scheduled_time" json:"scheduled_time"`
	QueuePosition       *int              `db:"queue_position" json:"queue_position,omitempty"`
	Priority            Priority          `db:"priority" json:"priority"`
	Status              AppointmentStatus `db:"status" json:"status"`
	CheckedInAt         *time.Time        `db:"checked_in_at" json:"checked_in_at,omitempty"`
	ServiceStartedAt    *time.Time        `db:"service_started_at" json:"service_started_at,omitempty"`
	ServiceCompletedAt  *time.Time        `db:"service_completed_at" json:"service_completed_at,omitempty"`
	Notes               string            `db:"notes" json:"notes,omitempty"`
	SpecialRequirements string            `db:"special_requirements" json:"special_requirements,omitempty"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

type BookAppointmentRequest struct {
	ServiceCenterID     uuid.UUID       `json:"service_center_id" binding:"required"`
	AppointmentType     AppointmentType `json:"appointment_type" binding:"required,oneof=new_application renewal replacement correction collection"`
	AppointmentDate     string          `json:"appointment_date" binding:"required,datetime=2006-01-02"`
	ScheduledTime       string          `json:"scheduled_time" binding:"required,timehhmm"`
	Priority            Priority        `json:"priority" binding:"omitempty,oneof=normal elderly disabled pregnant urgent"`
	SpecialRequirements string          `json:"special_requirements" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	AppointmentDate     *string `json:"appointment_date" binding:"omitempty,datetime=2006-01-02"`
	ScheduledTime       *string `json:"scheduled_time" binding:"omitempty,timehhmm"`
	SpecialRequirements *string `json:"special_requirements" binding:"omitempty,max=1000"`
}

type AppointmentFilters struct {
	UserID          uuid.UUID
	ServiceCenterID uuid.UUID
	Status          AppointmentStatus
	Date            *time.Time
}

// QueueStatus is the aggregate view of a center's same-day queue.
type QueueStatus struct {
	ServiceCenterID   uuid.UUID `json:"service_center_id"`
	ServiceCenterName string    `json:"service_center_name"`
	TotalInQueue      int       `json:"total_in_queue"`
	CurrentServing    *string   `json:"current_serving"`
	AverageWaitTime   int       `json:"average_wait_time"`
	EstimatedWaitTime int       `json:"estimated_wait_time"`
	LastUpdated       time.Time `json:"last_updated"`
}

// MyQueueEntry is the citizen-facing view of one active appointment's place
// in the queue. PeopleAhead is derived on every read, never cached.
type MyQueueEntry struct {
	Appointment       *Appointment `json:"appointment"`
	QueuePosition     *int         `json:"queue_position"`
	PeopleAhead       int          `json:"people_ahead"`
	EstimatedWaitTime int          `json:"estimated_wait_time"`
	CurrentServing    *string      `json:"current_serving"`
	CanCheckIn        bool         `json:"can_check_in"`
	StatusMessage     string       `json:"status_message"`
}

// NextTicket is the public display-board view of the head of the queue.
type NextTicket struct {
	TicketNumber         string          `json:"ticket_number"`
	QueuePosition        int             `json:"queue_position"`
	AppointmentType      AppointmentType `json:"appointment_type"`
	EstimatedServiceTime int             `json:"estimated_service_time"`
}

// DailyStats aggregates one center's appointments for a calendar day.
type DailyStats struct {
	Date                  time.Time `json:"date"`
	ServiceCenterID       uuid.UUID `json:"service_center_id"`
	TotalAppointments     int       `json:"total_appointments"`
	Completed             int       `json:"completed"`
	NoShows               int       `json:"no_shows"`
	Cancelled             int       `json:"cancelled"`
	CompletionRate        float64   `json:"completion_rate"`
	AverageServiceMinutes float64   `json:"average_service_time_minutes"`
}

type DashboardStats struct {
	TodayAppointments    int `json:"today_appointments"`
	ActiveQueue          int `json:"active_queue"`
	CompletedToday       int `json:"completed_today"`
	AvgWaitTime          int `json:"avg_wait_time"`
	TotalAppointments    int `json:"total_appointments"`
	ServiceCentersActive int `json:"service_centers_active"`
	UsersRegistered      int `json:"users_registered"`
}
