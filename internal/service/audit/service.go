package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
)

// Service owns standalone audit records and the admin read surface.
// Transition audits are written by the repositories inside the transaction
// of the state change they describe; this service only builds those entries.
type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// Entry builds an audit entry for a state-changing operation.
func Entry(action, entityType, description string, entityID uuid.UUID, actorID *uuid.UUID) *model.AuditLog {
	return &model.AuditLog{
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		UserID:      actorID,
	}
}

// WithContext attaches arbitrary context to an entry as JSON. Marshal
// failures are ignored; the entry is still usable without context.
func WithContext(entry *model.AuditLog, context interface{}) *model.AuditLog {
	if context != nil {
		if raw, err := json.Marshal(context); err == nil {
			entry.Context = raw
		}
	}
	return entry
}

// Record persists a standalone audit entry outside any transition.
func (s *Service) Record(ctx context.Context, entry *model.AuditLog) error {
	return s.repo.Create(ctx, entry)
}

func (s *Service) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, filters)
}
