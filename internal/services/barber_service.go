package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"
)

// --- Custom Service Errors for Barbers ---
var (
	ErrBarberNotFound        = errors.New("barber not found")
	ErrUserForBarberNotFound = errors.New("user account for barber not found")
	ErrBarberUserConflict    = errors.New("user ID is already associated with another barber")
	ErrBarberValidation      = errors.New("barber data validation error")
	ErrHireDateFormat        = errors.New("invalid hire date format, please use YYYY-MM-DD")
)

// --- Barber DTOs ---
type CreateBarberRequest struct {
	UserID      *int64  `json:"user_id"`
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
	HireDate    *string `json:"hire_date"`
}

type UpdateBarberRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	HireDate    *string `json:"hire_date"`
	IsActive    *bool   `json:"is_active"`
}

// BarberService manages the staff who render services and record redemptions.
type BarberService interface {
	CreateBarber(ctx context.Context, req CreateBarberRequest) (*models.Barber, error)
	GetBarberByID(ctx context.Context, barberID int64) (*models.Barber, error)
	GetBarberByUserID(ctx context.Context, userID int64) (*models.Barber, error)
	GetBarbers(ctx context.Context, page, pageSize int, searchTerm *string) ([]models.Barber, int, error)
	UpdateBarber(ctx context.Context, barberID int64, req UpdateBarberRequest) (*models.Barber, error)
}

type barberService struct {
	barberRepo repositories.BarberRepository
	userRepo   repositories.AuthRepository
	transactor Transactor
}

// NewBarberService creates a new instance of BarberService.
func NewBarberService(br repositories.BarberRepository, ur repositories.AuthRepository, transactor Transactor) BarberService {
	return &barberService{
		barberRepo: br,
		userRepo:   ur,
		transactor: transactor,
	}
}

func parseDate(dateStrPointer *string, format string, errorToReturn error) (*string, error) {
	if dateStrPointer == nil || strings.TrimSpace(*dateStrPointer) == "" {
		return nil, nil
	}
	dateStr := strings.TrimSpace(*dateStrPointer)
	if _, err := time.Parse(format, dateStr); err != nil {
		return nil, errorToReturn
	}
	return &dateStr, nil
}

func (s *barberService) CreateBarber(ctx context.Context, req CreateBarberRequest) (*models.Barber, error) {
	if utils.IsEmpty(req.FullName) {
		return nil, fmt.Errorf("%w: full name cannot be empty", ErrBarberValidation)
	}
	if req.UserID != nil {
		if _, err := s.userRepo.FindUserByID(ctx, *req.UserID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: user ID %d", ErrUserForBarberNotFound, *req.UserID)
			}
			return nil, fmt.Errorf("failed to validate user for barber: %w", err)
		}
		existing, err := s.barberRepo.GetBarberByUserID(ctx, *req.UserID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check existing barber by user ID: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: user ID %d", ErrBarberUserConflict, *req.UserID)
		}
	}
	hireDate, err := parseDate(req.HireDate, "2006-01-02", ErrHireDateFormat)
	if err != nil {
		return nil, err
	}

	barber := &models.Barber{
		UserID:      req.UserID,
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: normalizePhone(req.PhoneNumber),
		IsActive:    true,
		HireDate:    hireDate,
	}
	var id int64
	err = s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		id, err = s.barberRepo.CreateBarber(ctx, exec, barber)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrBarberUserConflict
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserForBarberNotFound
		}
		return nil, fmt.Errorf("failed to create barber: %w", err)
	}
	utils.LogInfo("Barber created", map[string]interface{}{"barber_id": id})
	return s.GetBarberByID(ctx, id)
}

func (s *barberService) GetBarberByID(ctx context.Context, barberID int64) (*models.Barber, error) {
	barber, err := s.barberRepo.GetBarberByID(ctx, nil, barberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, fmt.Errorf("failed to get barber by ID: %w", err)
	}
	return barber, nil
}

func (s *barberService) GetBarberByUserID(ctx context.Context, userID int64) (*models.Barber, error) {
	barber, err := s.barberRepo.GetBarberByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, fmt.Errorf("failed to get barber by user ID: %w", err)
	}
	return barber, nil
}

func (s *barberService) GetBarbers(ctx context.Context, page, pageSize int, searchTerm *string) ([]models.Barber, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	barbers, total, err := s.barberRepo.GetBarbers(ctx, page, pageSize, searchTerm)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get barbers: %w", err)
	}
	return barbers, total, nil
}

// UpdateBarber also toggles is_active; an inactive barber can no longer record visits or redemptions.
func (s *barberService) UpdateBarber(ctx context.Context, barberID int64, req UpdateBarberRequest) (*models.Barber, error) {
	barber, err := s.GetBarberByID(ctx, barberID)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		if utils.IsEmpty(*req.FullName) {
			return nil, fmt.Errorf("%w: full name cannot be empty", ErrBarberValidation)
		}
		barber.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.PhoneNumber != nil {
		barber.PhoneNumber = normalizePhone(req.PhoneNumber)
	}
	if req.HireDate != nil {
		hireDate, err := parseDate(req.HireDate, "2006-01-02", ErrHireDateFormat)
		if err != nil {
			return nil, err
		}
		barber.HireDate = hireDate
	}
	if req.IsActive != nil {
		barber.IsActive = *req.IsActive
	}

	err = s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		return s.barberRepo.UpdateBarber(ctx, exec, barber)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, fmt.Errorf("failed to update barber: %w", err)
	}
	return s.GetBarberByID(ctx, barberID)
}
