package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, user_id, target_user_id, appointment_id, service_center_id,
			action, entity_type, entity_id, description,
			ip_address, user_agent, context, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
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
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	query := `
		SELECT id, user_id, target_user_id, appointment_id, service_center_id,
			   action, entity_type, entity_id, description,
			   ip_address, user_agent, context, created_at
		FROM audit_logs
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.ServiceCenterID != uuid.Nil {
		query += fmt.Sprintf(" AND service_center_id = $%d", argCount)
		args = append(args, filters.ServiceCenterID)
		argCount++
	}
	if filters.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", argCount)
		args = append(args, filters.EntityType)
		argCount++
	}
	if filters.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argCount)
		args = append(args, filters.Action)
		argCount++
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCount)
	args = append(args, limit)

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
