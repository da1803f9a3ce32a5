package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

const appointmentColumns = `
	id, ticket_number, user_id, service_center_id, served_by_user_id,
	appointment_type, appointment_date, scheduled_time, queue_position,
	priority, status, checked_in_at, service_started_at, service_completed_at,
	notes, special_requirements, created_at, updated_at
`

// CreateBooking re-validates the daily capacity and the one-active-booking
// rule under a lock on the center row before inserting, so two concurrent
// bookings cannot both take the last remaining slot.
func (r *appointmentRepository) CreateBooking(ctx context.Context, appt *model.Appointment, entry *model.AuditLog) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var capacity int
		err := tx.GetContext(ctx, &capacity, `
			SELECT max_daily_capacity FROM service_centers
			WHERE id = $1
			FOR UPDATE
		`, appt.ServiceCenterID)
		if err == sql.ErrNoRows {
			return apperrors.NotFound("service center", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock service center: %w", err)
		}

		var hasActive bool
		err = tx.GetContext(ctx, &hasActive, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE user_id = $1
				AND appointment_date = $2
				AND status IN ('scheduled', 'confirmed')
			)
		`, appt.UserID, appt.AppointmentDate)
		if err != nil {
			return fmt.Errorf("failed to check existing appointments: %w", err)
		}
		if hasActive {
			return apperrors.Conflict("you already have an appointment scheduled for this date", nil)
		}

		var booked int
		err = tx.GetContext(ctx, &booked, `
			SELECT COUNT(*) FROM appointments
			WHERE service_center_id = $1
			AND appointment_date = $2
			AND status != 'cancelled'
		`, appt.ServiceCenterID, appt.AppointmentDate)
		if err != nil {
			return fmt.Errorf("failed to count daily appointments: %w", err)
		}
		if booked >= capacity {
			return apperrors.CapacityExceeded("no more slots available for this date, please choose another date")
		}

		appt.ID = uuid.New()
		appt.CreatedAt = time.Now()
		appt.UpdatedAt = appt.CreatedAt

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments (
				id, ticket_number, user_id, service_center_id,
				appointment_type, appointment_date, scheduled_time,
				priority, status, notes, special_requirements,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			appt.ID,
			appt.TicketNumber,
			appt.UserID,
			appt.ServiceCenterID,
			appt.AppointmentType,
			appt.AppointmentDate,
			appt.ScheduledTime,
			appt.Priority,
			appt.Status,
			appt.Notes,
			appt.SpecialRequirements,
			appt.CreatedAt,
			appt.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err, "appointments_ticket_number_key") {
				return repository.ErrDuplicateTicket
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if entry != nil {
			entry.EntityID = appt.ID
			apptID := appt.ID
			entry.AppointmentID = &apptID
		}
		return insertAudit(ctx, tx, entry)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

// Update moves an appointment to a new slot. When the date changes, the
// one-active-booking rule and daily capacity are re-validated for the
// target date under the center lock, the same checks booking performs.
func (r *appointmentRepository) Update(ctx context.Context, appt *model.Appointment, entry *model.AuditLog) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var stored model.Appointment
		err := tx.GetContext(ctx, &stored, `
			SELECT `+appointmentColumns+` FROM appointments
			WHERE id = $1
			FOR UPDATE
		`, appt.ID)
		if err == sql.ErrNoRows {
			return apperrors.NotFound("appointment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}

		if !stored.AppointmentDate.Equal(appt.AppointmentDate) {
			var capacity int
			err = tx.GetContext(ctx, &capacity, `
				SELECT max_daily_capacity FROM service_centers
				WHERE id = $1
				FOR UPDATE
			`, stored.ServiceCenterID)
			if err != nil {
				return fmt.Errorf("failed to lock service center: %w", err)
			}

			var hasActive bool
			err = tx.GetContext(ctx, &hasActive, `
				SELECT EXISTS (
					SELECT 1 FROM appointments
					WHERE user_id = $1
					AND appointment_date = $2
					AND status IN ('scheduled', 'confirmed')
					AND id != $3
				)
			`, stored.UserID, appt.AppointmentDate, appt.ID)
			if err != nil {
				return fmt.Errorf("failed to check existing appointments: %w", err)
			}
			if hasActive {
				return apperrors.Conflict("you already have an appointment scheduled for this date", nil)
			}

			var booked int
			err = tx.GetContext(ctx, &booked, `
				SELECT COUNT(*) FROM appointments
				WHERE service_center_id = $1
				AND appointment_date = $2
				AND status != 'cancelled'
				AND id != $3
			`, stored.ServiceCenterID, appt.AppointmentDate, appt.ID)
			if err != nil {
				return fmt.Errorf("failed to count daily appointments: %w", err)
			}
			if booked >= capacity {
				return apperrors.CapacityExceeded("no more slots available for this date, please choose another date")
			}
		}

		appt.UpdatedAt = time.Now()

		_, err = tx.ExecContext(ctx, `
			UPDATE appointments
			SET appointment_date = $1, scheduled_time = $2,
				special_requirements = $3, notes = $4, updated_at = $5
			WHERE id = $6
		`,
			appt.AppointmentDate,
			appt.ScheduledTime,
			appt.SpecialRequirements,
			appt.Notes,
			appt.UpdatedAt,
			appt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		return insertAudit(ctx, tx, entry)
	})
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filters.UserID)
		argCount++
	}
	if filters.ServiceCenterID != uuid.Nil {
		query += fmt.Sprintf(" AND service_center_id = $%d", argCount)
		args = append(args, filters.ServiceCenterID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if filters.Date != nil {
		query += fmt.Sprintf(" AND appointment_date = $%d", argCount)
		args = append(args, *filters.Date)
		argCount++
	}

	query += " ORDER BY appointment_date DESC, queue_position NULLS LAST, created_at"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ScheduledTimes(ctx context.Context, centerID uuid.UUID, day time.Time) ([]string, error) {
	var times []string
	err := r.db.SelectContext(ctx, &times, `
		SELECT scheduled_time FROM appointments
		WHERE service_center_id = $1
		AND appointment_date = $2
	`, centerID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled times: %w", err)
	}
	return times, nil
}

func (r *appointmentRepository) HasActiveOnDate(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE user_id = $1
			AND appointment_date = $2
			AND status IN ('scheduled', 'confirmed')
		)
	`, userID, day)
	if err != nil {
		return false, fmt.Errorf("failed to check active appointments: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) CountNonCancelled(ctx context.Context, centerID uuid.UUID, day time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments
		WHERE service_center_id = $1
		AND appointment_date = $2
		AND status != 'cancelled'
	`, centerID, day)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// CheckIn serializes position assignment per center by locking the center
// row: position = highest position already assigned in the (center, date)
// partition + 1, so simultaneous check-ins cannot share a position and
// positions of finished tickets are never reused. Positions are assigned
// once and never compacted when earlier tickets cancel.
func (r *appointmentRepository) CheckIn(ctx context.Context, id uuid.UUID, now time.Time, entry *model.AuditLog) (int, error) {
	var position int

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var appt model.Appointment
		err := tx.GetContext(ctx, &appt, `
			SELECT `+appointmentColumns+` FROM appointments
			WHERE id = $1
			FOR UPDATE
		`, id)
		if err == sql.ErrNoRows {
			return apperrors.NotFound("appointment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}

		if appt.Status != model.AppointmentStatusScheduled {
			return apperrors.InvalidState("appointment is not available for check-in")
		}

		var centerID uuid.UUID
		err = tx.GetContext(ctx, &centerID, `
			SELECT id FROM service_centers WHERE id = $1 FOR UPDATE
		`, appt.ServiceCenterID)
		if err != nil {
			return fmt.Errorf("failed to lock service center: %w", err)
		}

		err = tx.GetContext(ctx, &position, `
			SELECT COALESCE(MAX(queue_position), 0) + 1 FROM appointments
			WHERE service_center_id = $1
			AND appointment_date = $2
		`, appt.ServiceCenterID, appt.AppointmentDate)
		if err != nil {
			return fmt.Errorf("failed to compute queue position: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = 'confirmed', checked_in_at = $1, queue_position = $2, updated_at = $3
			WHERE id = $4
		`, now, position, now, id)
		if err != nil {
			return fmt.Errorf("failed to check in appointment: %w", err)
		}

		return insertAudit(ctx, tx, entry)
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

// CallNext pops the minimum-position confirmed appointment for the center.
// SKIP LOCKED guarantees concurrent staff receive distinct tickets without
// blocking on each other.
func (r *appointmentRepository) CallNext(ctx context.Context, centerID uuid.UUID, day time.Time, staffID uuid.UUID, now time.Time, entry *model.AuditLog) (*model.Appointment, error) {
	var appt model.Appointment

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &appt, `
			SELECT `+appointmentColumns+` FROM appointments
			WHERE service_center_id = $1
			AND appointment_date = $2
			AND status = 'confirmed'
			ORDER BY queue_position
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`, centerID, day)
		if err == sql.ErrNoRows {
			return apperrors.EmptyQueue("no customers in queue")
		}
		if err != nil {
			return fmt.Errorf("failed to select next appointment: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = 'in_progress', service_started_at = $1, served_by_user_id = $2, updated_at = $3
			WHERE id = $4
		`, now, staffID, now, appt.ID)
		if err != nil {
			return fmt.Errorf("failed to call next appointment: %w", err)
		}

		appt.Status = model.AppointmentStatusInProgress
		appt.ServiceStartedAt = &now
		appt.ServedByUserID = &staffID

		if entry != nil {
			entry.EntityID = appt.ID
			apptID := appt.ID
			entry.AppointmentID = &apptID
			userID := appt.UserID
			entry.TargetUserID = &userID
			entry.Description = fmt.Sprintf("Called next customer: %s", appt.TicketNumber)
		}
		return insertAudit(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) Complete(ctx context.Context, id uuid.UUID, notes string, now time.Time, entry *model.AuditLog) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var status model.AppointmentStatus
		err := tx.GetContext(ctx, &status, `
			SELECT status FROM appointments WHERE id = $1 FOR UPDATE
		`, id)
		if err == sql.ErrNoRows {
			return apperrors.NotFound("appointment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}

		if status != model.AppointmentStatusInProgress {
			return apperrors.InvalidState("appointment is not in progress")
		}

		query := `
			UPDATE appointments
			SET status = 'completed', service_completed_at = $1, updated_at = $2
			WHERE id = $3
		`
		if notes != "" {
			query = `
				UPDATE appointments
				SET status = 'completed', service_completed_at = $1, updated_at = $2, notes = $4
				WHERE id = $3
			`
			_, err = tx.ExecContext(ctx, query, now, now, id, notes)
		} else {
			_, err = tx.ExecContext(ctx, query, now, now, id)
		}
		if err != nil {
			return fmt.Errorf("failed to complete appointment: %w", err)
		}

		return insertAudit(ctx, tx, entry)
	})
}

func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID, entry *model.AuditLog) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var status model.AppointmentStatus
		err := tx.GetContext(ctx, &status, `
			SELECT status FROM appointments WHERE id = $1 FOR UPDATE
		`, id)
		if err == sql.ErrNoRows {
			return apperrors.NotFound("appointment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}

		if status != model.AppointmentStatusScheduled && status != model.AppointmentStatusConfirmed {
			return apperrors.InvalidState("cannot cancel appointment in current status")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE appointments SET status = 'cancelled', updated_at = $1 WHERE id = $2
		`, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}

		return insertAudit(ctx, tx, entry)
	})
}

func (r *appointmentRepository) MarkNoShow(ctx context.Context, id uuid.UUID, entry *model.AuditLog) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var status model.AppointmentStatus
		err := tx.GetContext(ctx, &status, `
			SELECT status FROM appointments WHERE id = $1 FOR UPDATE
		`, id)
		if err == sql.ErrNoRows {
			return apperrors.NotFound("appointment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to lock appointment: %w", err)
		}

		if status != model.AppointmentStatusScheduled {
			return apperrors.InvalidState("only scheduled appointments can be marked as no-show")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE appointments SET status = 'no_show', updated_at = $1 WHERE id = $2
		`, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to mark no-show: %w", err)
		}

		return insertAudit(ctx, tx, entry)
	})
}

// SetStatus is the administrative override; it intentionally skips the
// transition guards the other mutations enforce.
func (r *appointmentRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, entry *model.AuditLog) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3
		`, status, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to set status: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("appointment", nil)
		}

		return insertAudit(ctx, tx, entry)
	})
}

func (r *appointmentRepository) CountAhead(ctx context.Context, centerID uuid.UUID, day time.Time, position int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments
		WHERE service_center_id = $1
		AND appointment_date = $2
		AND status IN ('confirmed', 'in_progress')
		AND queue_position < $3
	`, centerID, day, position)
	if err != nil {
		return 0, fmt.Errorf("failed to count people ahead: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountQueued(ctx context.Context, centerID uuid.UUID, day time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments
		WHERE service_center_id = $1
		AND appointment_date = $2
		AND status IN ('confirmed', 'in_progress')
	`, centerID, day)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CurrentServing(ctx context.Context, centerID uuid.UUID, day time.Time) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE service_center_id = $1
		AND appointment_date = $2
		AND status = 'in_progress'
		ORDER BY service_started_at
		LIMIT 1
	`, centerID, day)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current serving: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) NextInQueue(ctx context.Context, centerID uuid.UUID, day time.Time) (*model.Appointment, error) {
	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE service_center_id = $1
		AND appointment_date = $2
		AND status = 'confirmed'
		ORDER BY queue_position
		LIMIT 1
	`, centerID, day)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next in queue: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) DailyStats(ctx context.Context, centerID uuid.UUID, day time.Time) (*model.DailyStats, error) {
	stats := model.DailyStats{
		Date:            day,
		ServiceCenterID: centerID,
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'no_show'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (service_completed_at - service_started_at)) / 60)
				FILTER (WHERE status = 'completed'
					AND service_started_at IS NOT NULL
					AND service_completed_at IS NOT NULL), 0)
		FROM appointments
		WHERE service_center_id = $1
		AND appointment_date = $2
	`, centerID, day).Scan(
		&stats.TotalAppointments,
		&stats.Completed,
		&stats.NoShows,
		&stats.Cancelled,
		&stats.AverageServiceMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily stats: %w", err)
	}

	if stats.TotalAppointments > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalAppointments) * 100
	}
	return &stats, nil
}

func (r *appointmentRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM appointments`); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountOnDate(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments WHERE appointment_date = $1
	`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountQueuedAllCenters(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments
		WHERE appointment_date = $1
		AND status IN ('confirmed', 'in_progress')
	`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to count queued appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountCompletedOnDate(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments
		WHERE appointment_date = $1
		AND status = 'completed'
	`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed appointments: %w", err)
	}
	return count, nil
}
