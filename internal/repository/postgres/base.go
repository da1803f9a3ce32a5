package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/smart-enid/booking-api/internal/model"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// isUniqueViolation reports whether err is a unique-index violation,
// optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// classifyTxError maps serialization failures and deadlocks to the
// transient error kind. All write transactions are safe to resubmit, so the
// caller can retry the whole operation.
func classifyTxError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) &&
		(pqErr.Code == pgSerializationFailure || pqErr.Code == pgDeadlockDetected) {
		return apperrors.Transient(err)
	}
	return err
}

// withTx executes fn within a transaction.
func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return classifyTxError(err)
	}

	if err := tx.Commit(); err != nil {
		return classifyTxError(err)
	}
	return nil
}

// insertAudit writes an audit entry within the transaction of the state
// change it records, so the two commit or roll back together.
func insertAudit(ctx context.Context, tx *sqlx.Tx, entry *model.AuditLog) error {
	if entry == nil {
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO audit_logs (
			id, user_id, target_user_id, appointment_id, service_center_id,
			action, entity_type, entity_id, description,
			ip_address, user_agent, context, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.TargetUserID,
		entry.AppointmentID,
		entry.ServiceCenterID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Description,
		entry.IPAddress,
		entry.UserAgent,
		entry.Context,
		entry.CreatedAt,
	)
	return err
}
