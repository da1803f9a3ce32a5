package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
)

type UserRepo struct {
	s *Store
}

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return apperrors.Conflict("email already registered", nil)
		}
		if existing.NationalID == user.NationalID {
			return apperrors.Conflict("national id already registered", nil)
		}
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	cp := *user
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *UserRepo) GetByNationalID(_ context.Context, nationalID string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.NationalID == nationalID {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *UserRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

type CenterRepo struct {
	s *Store
}

var _ repository.CenterRepository = (*CenterRepo)(nil)

func (r *CenterRepo) Create(_ context.Context, center *model.ServiceCenter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.centers {
		if existing.Code == center.Code {
			return apperrors.Conflict("service center code already exists", nil)
		}
	}

	center.ID = uuid.New()
	center.CreatedAt = time.Now()
	center.UpdatedAt = center.CreatedAt
	cp := *center
	r.s.centers[center.ID] = &cp
	return nil
}

func (r *CenterRepo) Get(_ context.Context, id uuid.UUID) (*model.ServiceCenter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	center, ok := r.s.centers[id]
	if !ok {
		return nil, apperrors.NotFound("service center", nil)
	}
	cp := *center
	return &cp, nil
}

func (r *CenterRepo) GetByCode(_ context.Context, code string) (*model.ServiceCenter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, center := range r.s.centers {
		if center.Code == code {
			cp := *center
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("service center", nil)
}

func (r *CenterRepo) Update(_ context.Context, center *model.ServiceCenter) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.centers[center.ID]; !ok {
		return apperrors.NotFound("service center", nil)
	}
	center.UpdatedAt = time.Now()
	cp := *center
	r.s.centers[center.ID] = &cp
	return nil
}

func (r *CenterRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.centers[id]; !ok {
		return apperrors.NotFound("service center", nil)
	}
	for _, appt := range r.s.appointments {
		if appt.ServiceCenterID == id {
			return apperrors.Conflict("service center has appointments and cannot be deleted", nil)
		}
	}
	delete(r.s.centers, id)
	return nil
}

func (r *CenterRepo) List(_ context.Context, filters *model.CenterFilters) ([]*model.ServiceCenter, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*model.ServiceCenter{}
	for _, center := range r.s.centers {
		if !filters.IncludeInactive && !center.IsActive {
			continue
		}
		if filters.OperationalOnly && !center.IsOperational {
			continue
		}
		if filters.City != "" && !strings.EqualFold(center.City, filters.City) {
			continue
		}
		cp := *center
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CenterRepo) CountActive(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, center := range r.s.centers {
		if center.IsActive {
			count++
		}
	}
	return count, nil
}

type AuditRepo struct {
	s *Store
}

var _ repository.AuditRepository = (*AuditRepo)(nil)

func (r *AuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry.CreatedAt = time.Now()
	r.s.recordAudit(entry)
	return nil
}

func (r *AuditRepo) List(_ context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*model.AuditLog{}
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		entry := r.s.audits[i]
		if filters.EntityType != "" && entry.EntityType != filters.EntityType {
			continue
		}
		if filters.Action != "" && entry.Action != filters.Action {
			continue
		}
		if filters.ServiceCenterID != uuid.Nil &&
			(entry.ServiceCenterID == nil || *entry.ServiceCenterID != filters.ServiceCenterID) {
			continue
		}
		cp := *entry
		out = append(out, &cp)
		if filters.Limit > 0 && len(out) >= filters.Limit {
			break
		}
	}
	return out, nil
}

type NotificationRepo struct {
	s *Store
}

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

func (r *NotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	cp := *n
	r.s.notifications[n.ID] = &cp
	r.s.notifOrder = append(r.s.notifOrder, n.ID)
	return nil
}

func (r *NotificationRepo) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, apperrors.NotFound("notification", nil)
	}
	cp := *n
	return &cp, nil
}

func (r *NotificationRepo) Update(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.notifications[n.ID]
	if !ok {
		return apperrors.NotFound("notification", nil)
	}
	stored.Status = n.Status
	stored.SentAt = n.SentAt
	stored.DeliveredAt = n.DeliveredAt
	stored.ErrorMessage = n.ErrorMessage
	stored.RetryCount = n.RetryCount
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *NotificationRepo) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*model.Notification{}
	for i := len(r.s.notifOrder) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		n := r.s.notifications[r.s.notifOrder[i]]
		if n.UserID != userID {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (r *NotificationRepo) ListAll(_ context.Context, limit int) ([]*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*model.Notification{}
	for i := len(r.s.notifOrder) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		cp := *r.s.notifications[r.s.notifOrder[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *NotificationRepo) ListDeliverable(_ context.Context, limit int) ([]*model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*model.Notification{}
	for _, id := range r.s.notifOrder {
		n := r.s.notifications[id]
		deliverable := n.Status == model.NotificationStatusPending ||
			(n.Status == model.NotificationStatusFailed && n.RetryCount < n.MaxRetries)
		if !deliverable {
			continue
		}
		cp := *n
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
