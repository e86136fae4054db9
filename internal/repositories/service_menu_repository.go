package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"

	"github.com/lib/pq"
)

// ServiceMenuRepository defines the interface for the barbershop's service menu.
type ServiceMenuRepository interface {
	CreateService(ctx context.Context, executor SQLExecutor, service *models.Service) (int64, error)
	GetServiceByID(ctx context.Context, id int64) (*models.Service, error)
	// GetServicesByIDs returns the services found among ids, keyed by ID. Missing IDs are simply absent.
	GetServicesByIDs(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]models.Service, error)
	GetServices(ctx context.Context, activeOnly bool) ([]models.Service, error)
	UpdateService(ctx context.Context, executor SQLExecutor, service *models.Service) error
	SetServiceActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error
}

type serviceMenuRepository struct {
	db *sql.DB
}

// NewServiceMenuRepository creates a new instance of ServiceMenuRepository.
func NewServiceMenuRepository(db *sql.DB) ServiceMenuRepository {
	return &serviceMenuRepository{db: db}
}

const serviceColumns = `id, name, description, price, duration_minutes, is_active, created_at, updated_at`

func scanService(row scanner) (*models.Service, error) {
	s := &models.Service{}
	var description sql.NullString
	var duration sql.NullInt32
	if err := row.Scan(&s.ID, &s.Name, &description, &s.Price, &duration, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		s.Description = &description.String
	}
	s.DurationMin = intFromNull(duration)
	return s, nil
}

func (r *serviceMenuRepository) CreateService(ctx context.Context, executor SQLExecutor, service *models.Service) (int64, error) {
	query := `INSERT INTO services (name, description, price, duration_minutes, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	service.CreatedAt = currentTime
	service.UpdatedAt = currentTime

	err := executor.QueryRowContext(ctx, query,
		service.Name, service.Description, service.Price, nullInt(service.DurationMin), service.IsActive,
		service.CreatedAt, service.UpdatedAt,
	).Scan(&service.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: service name '%s' already exists (constraint: %s)", ErrDuplicateKey, service.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating service: %v", ErrDatabaseError, err)
	}
	return service.ID, nil
}

func (r *serviceMenuRepository) GetServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	service, err := scanService(r.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting service by ID %d: %v", ErrDatabaseError, id, err)
	}
	return service, nil
}

func (r *serviceMenuRepository) GetServicesByIDs(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]models.Service, error) {
	found := make(map[int64]models.Service, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	if executor == nil {
		executor = r.db
	}
	rows, err := executor.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: getting services by IDs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning service: %v", ErrDatabaseError, err)
		}
		found[service.ID] = *service
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating services: %v", ErrDatabaseError, err)
	}
	return found, nil
}

func (r *serviceMenuRepository) GetServices(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing services: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	services := []models.Service{}
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning service: %v", ErrDatabaseError, err)
		}
		services = append(services, *service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating services: %v", ErrDatabaseError, err)
	}
	return services, nil
}

func (r *serviceMenuRepository) UpdateService(ctx context.Context, executor SQLExecutor, service *models.Service) error {
	query := `UPDATE services SET name = $1, description = $2, price = $3, duration_minutes = $4, is_active = $5, updated_at = $6
	          WHERE id = $7`
	service.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		service.Name, service.Description, service.Price, nullInt(service.DurationMin), service.IsActive, service.UpdatedAt, service.ID)
	if err != nil {
		return mapWriteError(err, "updating service")
	}
	return expectOneRow(result, ErrNotFound)
}

func (r *serviceMenuRepository) SetServiceActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	result, err := executor.ExecContext(ctx, `UPDATE services SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: setting is_active for service %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, ErrNotFound)
}
