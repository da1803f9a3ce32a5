package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

const notificationColumns = `
	id, user_id, appointment_id, type, subject, message, recipient,
	status, sent_at, delivered_at, error_message, retry_count, max_retries,
	created_at, updated_at
`

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, user_id, appointment_id, type, subject, message, recipient,
			status, error_message, retry_count, max_retries, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		n.ID,
		n.UserID,
		n.AppointmentID,
		n.Type,
		n.Subject,
		n.Message,
		n.Recipient,
		n.Status,
		n.ErrorMessage,
		n.RetryCount,
		n.MaxRetries,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("notification", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	n.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = $1, sent_at = $2, delivered_at = $3, error_message = $4,
			retry_count = $5, updated_at = $6
		WHERE id = $7
	`,
		n.Status,
		n.SentAt,
		n.DeliveredAt,
		n.ErrorMessage,
		n.RetryCount,
		n.UpdatedAt,
		n.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("notification", nil)
	}
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) ListAll(ctx context.Context, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT `+notificationColumns+` FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// ListDeliverable picks up pending and retryable failed notifications.
func (r *notificationRepository) ListDeliverable(ctx context.Context, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifications []*model.Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE status = 'pending'
		OR (status = 'failed' AND retry_count < max_retries)
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverable notifications: %w", err)
	}
	return notifications, nil
}
