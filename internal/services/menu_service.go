package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for the service menu ---
var (
	ErrMenuServiceNotFound = errors.New("service not found")
	ErrMenuServiceExists   = errors.New("service name already exists")
	ErrMenuValidation      = errors.New("service menu validation error")
)

// --- Menu DTOs ---
type CreateMenuServiceRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	DurationMin *int            `json:"duration_minutes"`
}

type UpdateMenuServiceRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	DurationMin *int             `json:"duration_minutes"`
	IsActive    *bool            `json:"is_active"`
}

// MenuService manages the services rewards apply to and visits are priced from.
// Services are deactivated rather than deleted so visit lines and reward scopes stay resolvable.
type MenuService interface {
	CreateService(ctx context.Context, req CreateMenuServiceRequest) (*models.Service, error)
	GetServiceByID(ctx context.Context, id int64) (*models.Service, error)
	GetServices(ctx context.Context, activeOnly bool) ([]models.Service, error)
	UpdateService(ctx context.Context, id int64, req UpdateMenuServiceRequest) (*models.Service, error)
	SetServiceActive(ctx context.Context, id int64, active bool) (*models.Service, error)
}

type menuService struct {
	menuRepo   repositories.ServiceMenuRepository
	transactor Transactor
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(menuRepo repositories.ServiceMenuRepository, transactor Transactor) MenuService {
	return &menuService{menuRepo: menuRepo, transactor: transactor}
}

func validateMenuService(name string, price decimal.Decimal, duration *int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: service name cannot be empty", ErrMenuValidation)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrMenuValidation)
	}
	if duration != nil && *duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrMenuValidation)
	}
	return nil
}

func (s *menuService) CreateService(ctx context.Context, req CreateMenuServiceRequest) (*models.Service, error) {
	if err := validateMenuService(req.Name, req.Price, req.DurationMin); err != nil {
		return nil, err
	}
	service := &models.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		DurationMin: req.DurationMin,
		IsActive:    true,
	}
	var id int64
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		id, err = s.menuRepo.CreateService(ctx, exec, service)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrMenuServiceExists
		}
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s.GetServiceByID(ctx, id)
}

func (s *menuService) GetServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	service, err := s.menuRepo.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuServiceNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return service, nil
}

func (s *menuService) GetServices(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	services, err := s.menuRepo.GetServices(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *menuService) UpdateService(ctx context.Context, id int64, req UpdateMenuServiceRequest) (*models.Service, error) {
	service, err := s.GetServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		service.Description = req.Description
	}
	if req.Price != nil {
		service.Price = *req.Price
	}
	if req.DurationMin != nil {
		service.DurationMin = req.DurationMin
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}
	if err := validateMenuService(service.Name, service.Price, service.DurationMin); err != nil {
		return nil, err
	}

	err = s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		return s.menuRepo.UpdateService(ctx, exec, service)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrMenuServiceExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuServiceNotFound
		}
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return s.GetServiceByID(ctx, id)
}

func (s *menuService) SetServiceActive(ctx context.Context, id int64, active bool) (*models.Service, error) {
	err := s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		return s.menuRepo.SetServiceActive(ctx, exec, id, active)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuServiceNotFound
		}
		return nil, fmt.Errorf("failed to change service state: %w", err)
	}
	return s.GetServiceByID(ctx, id)
}
