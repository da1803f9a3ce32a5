package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smart-enid/booking-api/internal/model"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

const centerColumns = `
	id, name, code, address, city, province, phone, email,
	opening_time, closing_time, max_daily_capacity, average_service_time,
	is_active, is_operational, latitude, longitude, created_at, updated_at
`

func (r *centerRepository) Create(ctx context.Context, center *model.ServiceCenter) error {
	center.ID = uuid.New()
	center.CreatedAt = time.Now()
	center.UpdatedAt = center.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO service_centers (
			id, name, code, address, city, province, phone, email,
			opening_time, closing_time, max_daily_capacity, average_service_time,
			is_active, is_operational, latitude, longitude, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		center.ID,
		center.Name,
		center.Code,
		center.Address,
		center.City,
		center.Province,
		center.Phone,
		center.Email,
		center.OpeningTime,
		center.ClosingTime,
		center.MaxDailyCapacity,
		center.AverageServiceTime,
		center.IsActive,
		center.IsOperational,
		center.Latitude,
		center.Longitude,
		center.CreatedAt,
		center.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "service_centers_code_key") {
			return apperrors.Conflict("service center code already exists", err)
		}
		return fmt.Errorf("failed to create service center: %w", err)
	}
	return nil
}

func (r *centerRepository) Get(ctx context.Context, id uuid.UUID) (*model.ServiceCenter, error) {
	var center model.ServiceCenter
	err := r.db.GetContext(ctx, &center, `SELECT `+centerColumns+` FROM service_centers WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("service center", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service center: %w", err)
	}
	return &center, nil
}

func (r *centerRepository) GetByCode(ctx context.Context, code string) (*model.ServiceCenter, error) {
	var center model.ServiceCenter
	err := r.db.GetContext(ctx, &center, `SELECT `+centerColumns+` FROM service_centers WHERE code = $1`, code)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("service center", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service center: %w", err)
	}
	return &center, nil
}

func (r *centerRepository) Update(ctx context.Context, center *model.ServiceCenter) error {
	center.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE service_centers
		SET name = $1, code = $2, address = $3, city = $4, province = $5,
			phone = $6, email = $7, opening_time = $8, closing_time = $9,
			max_daily_capacity = $10, average_service_time = $11,
			is_active = $12, is_operational = $13, latitude = $14, longitude = $15,
			updated_at = $16
		WHERE id = $17
	`,
		center.Name,
		center.Code,
		center.Address,
		center.City,
		center.Province,
		center.Phone,
		center.Email,
		center.OpeningTime,
		center.ClosingTime,
		center.MaxDailyCapacity,
		center.AverageServiceTime,
		center.IsActive,
		center.IsOperational,
		center.Latitude,
		center.Longitude,
		center.UpdatedAt,
		center.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "service_centers_code_key") {
			return apperrors.Conflict("service center code already exists", err)
		}
		return fmt.Errorf("failed to update service center: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("service center", nil)
	}
	return nil
}

// Delete refuses to remove a center that any appointment references;
// the admin surface offers deactivation for that case.
func (r *centerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var referenced int
		err := tx.GetContext(ctx, &referenced, `
			SELECT COUNT(*) FROM appointments WHERE service_center_id = $1
		`, id)
		if err != nil {
			return fmt.Errorf("failed to count appointments: %w", err)
		}
		if referenced > 0 {
			return apperrors.Conflict("cannot delete service center with existing appointments, deactivate instead", nil)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM service_centers WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete service center: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("service center", nil)
		}
		return nil
	})
}

func (r *centerRepository) List(ctx context.Context, filters *model.CenterFilters) ([]*model.ServiceCenter, error) {
	query := `SELECT ` + centerColumns + ` FROM service_centers WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if !filters.IncludeInactive {
		query += " AND is_active = true"
	}
	if filters.OperationalOnly {
		query += " AND is_operational = true"
	}
	if filters.City != "" {
		query += fmt.Sprintf(" AND city ILIKE $%d", argCount)
		args = append(args, "%"+filters.City+"%")
		argCount++
	}

	query += " ORDER BY name"

	var centers []*model.ServiceCenter
	if err := r.db.SelectContext(ctx, &centers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list service centers: %w", err)
	}
	return centers, nil
}

func (r *centerRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM service_centers WHERE is_active = true`)
	if err != nil {
		return 0, fmt.Errorf("failed to count service centers: %w", err)
	}
	return count, nil
}
