package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeSMS   NotificationType = "sms"
	NotificationTypeEmail NotificationType = "email"
	NotificationTypePush  NotificationType = "push"
)

type NotificationStatus string

const (
	NotificationStatusPending   NotificationStatus = "pending"
	NotificationStatusSent      NotificationStatus = "sent"
	NotificationStatusDelivered NotificationStatus = "delivered"
	NotificationStatusFailed    NotificationStatus = "failed"
)

// Notification is a queued outbound message. Delivery is best-effort:
// failures update the record's own status and retry counter but never roll
// back the appointment transition that triggered it.
type Notification struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	UserID        uuid.UUID          `db:"user_id" json:"user_id"`
	AppointmentID *uuid.UUID         `db:"appointment_id" json:"appointment_id,omitempty"`
	Type          NotificationType   `db:"type" json:"type"`
	Subject       string             `db:"subject" json:"subject,omitempty"`
	Message       string             `db:"message" json:"message"`
	Recipient     string             `db:"recipient" json:"recipient"`
	Status        NotificationStatus `db:"status" json:"status"`
	SentAt        *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt   *time.Time         `db:"delivered_at" json:"delivered_at,omitempty"`
	ErrorMessage  string             `db:"error_message" json:"error_message,omitempty"`
	RetryCount    int                `db:"retry_count" json:"retry_count"`
	MaxRetries    int                `db:"max_retries" json:"max_retries"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

type SendNotificationRequest struct {
	UserID        uuid.UUID        `json:"user_id" binding:"required"`
	Type          NotificationType `json:"type" binding:"required,oneof=sms email push"`
	Subject       string           `json:"subject" binding:"max=200"`
	Message       string           `json:"message" binding:"required"`
	AppointmentID *uuid.UUID       `json:"appointment_id"`
}

// QueueEvent is published to the message broker when a center's queue
// changes, for display boards and other live consumers.
type QueueEvent struct {
	Type            string     `json:"type"`
	ServiceCenterID uuid.UUID  `json:"service_center_id"`
	TicketNumber    string     `json:"ticket_number,omitempty"`
	QueuePosition   *int       `json:"queue_position,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
	AppointmentID   *uuid.UUID `json:"appointment_id,omitempty"`
}
