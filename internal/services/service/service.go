package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	serviceserrors "carwash/internal/services/errors"
	"carwash/internal/services/repository"
	"carwash/internal/services/validator"
	"carwash/pkg/config"
	apperrors "carwash/pkg/errors"
	"carwash/pkg/model"
	"carwash/pkg/sanitizer"
)

type CatalogService interface {
	Create(ctx context.Context, svc *model.Service) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Service, int64, error)
	GetServiceDuration(ctx context.Context, id string) (int, error)
}

type catalogService struct {
	repo      repository.ServiceRepository
	validator *validator.ServiceValidator
	cfg       *config.Config
}

func NewCatalogService(
	repo repository.ServiceRepository,
	validator *validator.ServiceValidator,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, svc *model.Service) error {
	s.sanitize(svc)

	if err := s.validator.Validate(svc); err != nil {
		s.cfg.Log.Warn("Service validation failed", "name", svc.Name, "error", err)
		return apperrors.Validation("Service validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.repo.FindByName(ctx, svc.Name)
	if err != nil && !errors.Is(err, serviceserrors.ErrNotFound) {
		return apperrors.Internal("Failed to check for duplicate services", err)
	}
	if existing != nil {
		return apperrors.Conflict(fmt.Sprintf("Service with this name already exists (id: %s)", existing.ID))
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		s.cfg.Log.Error("Failed to create service", "name", svc.Name, "error", err)
		return apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Service created", "id", svc.ID, "name", svc.Name, "duration_minutes", svc.DurationMinutes)
	return nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}
	return svc, nil
}

func (s *catalogService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Service, int64, error) {
	var count int64
	var services []*model.Service
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count services", "error", errCount)
			errCount = apperrors.Internal("Failed to count services", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		services, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list services", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve services", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return services, count, nil
}

// GetServiceDuration is what booking intake needs from the catalog. A record with a non-positive
// duration is treated as missing so it can never produce a zero-length booking.
func (s *catalogService) GetServiceDuration(ctx context.Context, id string) (int, error) {
	svc, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if svc.DurationMinutes <= 0 {
		s.cfg.Log.Warn("Service has no usable duration", "id", id, "duration_minutes", svc.DurationMinutes)
		return 0, apperrors.NotFoundWithID("Service", id)
	}
	return svc.DurationMinutes, nil
}

func (s *catalogService) sanitize(svc *model.Service) {
	svc.Name = sanitizer.SanitizeName(svc.Name)
	svc.Description = sanitizer.TrimAndNormalize(svc.Description)
	svc.Type = sanitizer.SanitizeLabel(svc.Type)
}
