package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of a state-changing action. Rows are
// written in the same transaction as the transition they describe and are
// never updated or deleted by the application.
type AuditLog struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          *uuid.UUID      `db:"user_id" json:"user_id,omitempty"`
	TargetUserID    *uuid.UUID      `db:"target_user_id" json:"target_user_id,omitempty"`
	AppointmentID   *uuid.UUID      `db:"appointment_id" json:"appointment_id,omitempty"`
	ServiceCenterID *uuid.UUID      `db:"service_center_id" json:"service_center_id,omitempty"`
	Action          string          `db:"action" json:"action"`
	EntityType      string          `db:"entity_type" json:"entity_type"`
	EntityID        uuid.UUID       `db:"entity_id" json:"entity_id"`
	Description     string          `db:"description" json:"description"`
	IPAddress       string          `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent       string          `db:"user_agent" json:"user_agent,omitempty"`
	Context         json.RawMessage `db:"context" json:"context,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

const (
	// Action types
	AuditActionCreate         = "create"
	AuditActionUpdate         = "update"
	AuditActionDelete         = "delete"
	AuditActionLogin          = "login"
	AuditActionLogout         = "logout"
	AuditActionCheckIn        = "check_in"
	AuditActionCallNext       = "call_next"
	AuditActionComplete       = "complete_service"
	AuditActionCancel         = "cancel_appointment"
	AuditActionNoShow         = "no_show"
	AuditActionStatusOverride = "status_override"

	// Entity types
	AuditEntityUser          = "user"
	AuditEntityAppointment   = "appointment"
	AuditEntityServiceCenter = "service_center"
	AuditEntityNotification  = "notification"
)

type AuditFilters struct {
	ServiceCenterID uuid.UUID
	EntityType      string
	Action          string
	Limit           int
}
