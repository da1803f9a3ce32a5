package center

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/smart-enid/booking-api/internal/model"
	"github.com/smart-enid/booking-api/internal/repository"
	"github.com/smart-enid/booking-api/internal/service/audit"
	apperrors "github.com/smart-enid/booking-api/pkg/errors"
	"github.com/smart-enid/booking-api/pkg/logger"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"

	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service manages the service-center registry and slot availability.
// Center rows change rarely, so reads go through a short-lived cache;
// every write invalidates the affected entries.
type Service struct {
	centers      repository.CenterRepository
	appointments repository.AppointmentRepository
	auditor      *audit.Service
	cache        *gocache.Cache
	logger       *logger.Logger
}

func NewService(
	centers repository.CenterRepository,
	appointments repository.AppointmentRepository,
	auditor *audit.Service,
	l *logger.Logger,
) *Service {
	return &Service{
		centers:      centers,
		appointments: appointments,
		auditor:      auditor,
		cache:        gocache.New(cacheTTL, cacheCleanup),
		logger:       l,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ServiceCenter, error) {
	key := "center:" + id.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.ServiceCenter), nil
	}

	center, err := s.centers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, center, gocache.DefaultExpiration)
	return center, nil
}

func (s *Service) List(ctx context.Context, filters *model.CenterFilters) ([]*model.ServiceCenter, error) {
	return s.centers.List(ctx, filters)
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req *model.CreateCenterRequest) (*model.ServiceCenter, error) {
	if err := validateWindow(req.OpeningTime, req.ClosingTime); err != nil {
		return nil, err
	}

	center := &model.ServiceCenter{
		Name:               req.Name,
		Code:               req.Code,
		Address:            req.Address,
		City:               req.City,
		Province:           req.Province,
		Phone:              req.Phone,
		Email:              req.Email,
		OpeningTime:        req.OpeningTime,
		ClosingTime:        req.ClosingTime,
		MaxDailyCapacity:   req.MaxDailyCapacity,
		AverageServiceTime: req.AverageServiceTime,
		IsActive:           true,
		IsOperational:      true,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
	}
	if center.AverageServiceTime <= 0 {
		center.AverageServiceTime = 15
	}

	if err := s.centers.Create(ctx, center); err != nil {
		return nil, err
	}

	entry := audit.Entry(model.AuditActionCreate, model.AuditEntityServiceCenter,
		fmt.Sprintf("created service center %s (%s)", center.Name, center.Code),
		center.ID, &actorID)
	entry.ServiceCenterID = &center.ID
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record center creation audit", err, "center_id", center.ID)
	}
	return center, nil
}

func (s *Service) Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *model.UpdateCenterRequest) (*model.ServiceCenter, error) {
	center, err := s.centers.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(center, req)
	if err := validateWindow(center.OpeningTime, center.ClosingTime); err != nil {
		return nil, err
	}

	if err := s.centers.Update(ctx, center); err != nil {
		return nil, err
	}
	s.cache.Delete("center:" + id.String())

	entry := audit.Entry(model.AuditActionUpdate, model.AuditEntityServiceCenter,
		fmt.Sprintf("updated service center %s", center.Code),
		center.ID, &actorID)
	entry.ServiceCenterID = &center.ID
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record center update audit", err, "center_id", center.ID)
	}
	return center, nil
}

func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	center, err := s.centers.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.centers.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete("center:" + id.String())

	entry := audit.Entry(model.AuditActionDelete, model.AuditEntityServiceCenter,
		fmt.Sprintf("deleted service center %s", center.Code),
		center.ID, &actorID)
	entry.ServiceCenterID = &center.ID
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record center deletion audit", err, "center_id", center.ID)
	}
	return nil
}

func applyUpdate(center *model.ServiceCenter, req *model.UpdateCenterRequest) {
	if req.Name != nil {
		center.Name = *req.Name
	}
	if req.Code != nil {
		center.Code = *req.Code
	}
	if req.Address != nil {
		center.Address = *req.Address
	}
	if req.City != nil {
		center.City = *req.City
	}
	if req.Province != nil {
		center.Province = *req.Province
	}
	if req.Phone != nil {
		center.Phone = *req.Phone
	}
	if req.Email != nil {
		center.Email = *req.Email
	}
	if req.OpeningTime != nil {
		center.OpeningTime = *req.OpeningTime
	}
	if req.ClosingTime != nil {
		center.ClosingTime = *req.ClosingTime
	}
	if req.MaxDailyCapacity != nil {
		center.MaxDailyCapacity = *req.MaxDailyCapacity
	}
	if req.AverageServiceTime != nil {
		center.AverageServiceTime = *req.AverageServiceTime
	}
	if req.IsActive != nil {
		center.IsActive = *req.IsActive
	}
	if req.IsOperational != nil {
		center.IsOperational = *req.IsOperational
	}
	if req.Latitude != nil {
		center.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		center.Longitude = req.Longitude
	}
}

func validateWindow(opening, closing string) error {
	open, err := time.Parse(clockLayout, opening)
	if err != nil {
		return apperrors.BadRequest("opening time must be HH:MM", err)
	}
	close, err := time.Parse(clockLayout, closing)
	if err != nil {
		return apperrors.BadRequest("closing time must be HH:MM", err)
	}
	if !open.Before(close) {
		return apperrors.BadRequest("opening time must be before closing time", nil)
	}
	return nil
}
