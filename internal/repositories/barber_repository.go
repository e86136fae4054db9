package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barbershop_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// BarberRepository defines the interface for barber-related database operations.
type BarberRepository interface {
	CreateBarber(ctx context.Context, executor SQLExecutor, barber *models.Barber) (int64, error)
	GetBarberByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Barber, error)
	GetBarberByUserID(ctx context.Context, userID int64) (*models.Barber, error)
	GetBarbers(ctx context.Context, page, pageSize int, searchTerm *string) ([]models.Barber, int, error)
	UpdateBarber(ctx context.Context, executor SQLExecutor, barber *models.Barber) error
}

type barberRepository struct {
	db *sql.DB
}

// NewBarberRepository creates a new instance of BarberRepository.
func NewBarberRepository(db *sql.DB) BarberRepository {
	return &barberRepository{db: db}
}

const barberColumns = `id, user_id, full_name, phone_number, is_active, hire_date, created_at, updated_at`

func scanBarber(row scanner) (*models.Barber, error) {
	var b models.Barber
	var userID sql.NullInt64
	var phone, hireDate sql.NullString
	if err := row.Scan(&b.ID, &userID, &b.FullName, &phone, &b.IsActive, &hireDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.UserID = int64FromNull(userID)
	if phone.Valid {
		b.PhoneNumber = &phone.String
	}
	if hireDate.Valid {
		b.HireDate = &hireDate.String
	}
	return &b, nil
}

func (r *barberRepository) CreateBarber(ctx context.Context, executor SQLExecutor, barber *models.Barber) (int64, error) {
	query := `INSERT INTO barbers (user_id, full_name, phone_number, is_active, hire_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	barber.CreatedAt = currentTime
	barber.UpdatedAt = currentTime

	var hireDate sql.NullString
	if barber.HireDate != nil {
		hireDate = sql.NullString{String: *barber.HireDate, Valid: true}
	}

	err := executor.QueryRowContext(ctx, query,
		nullInt64(barber.UserID), barber.FullName, barber.PhoneNumber, barber.IsActive, hireDate,
		barber.CreatedAt, barber.UpdatedAt,
	).Scan(&barber.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "barbers_user_id_key" {
				return 0, fmt.Errorf("%w: user_id %d is already associated with another barber", ErrDuplicateKey, *barber.UserID)
			}
			if pqErr.Code.Name() == "foreign_key_violation" && pqErr.Constraint == "barbers_user_id_fkey" {
				return 0, fmt.Errorf("%w: user with ID %d not found", ErrNotFound, *barber.UserID)
			}
		}
		return 0, fmt.Errorf("%w: creating barber: %v", ErrDatabaseError, err)
	}
	return barber.ID, nil
}

func (r *barberRepository) GetBarberByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Barber, error) {
	if executor == nil {
		executor = r.db
	}
	barber, err := scanBarber(executor.QueryRowContext(ctx, `SELECT `+barberColumns+` FROM barbers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting barber by ID %d: %v", ErrDatabaseError, id, err)
	}
	return barber, nil
}

func (r *barberRepository) GetBarberByUserID(ctx context.Context, userID int64) (*models.Barber, error) {
	barber, err := scanBarber(r.db.QueryRowContext(ctx, `SELECT `+barberColumns+` FROM barbers WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting barber by user ID %d: %v", ErrDatabaseError, userID, err)
	}
	return barber, nil
}

func (r *barberRepository) GetBarbers(ctx context.Context, page, pageSize int, searchTerm *string) ([]models.Barber, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if searchTerm != nil && *searchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone_number ILIKE $%d)", argID, argID))
		args = append(args, "%"+*searchTerm+"%")
		argID++
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `SELECT ` + barberColumns + `, COUNT(*) OVER() AS total_count FROM barbers` + where +
		fmt.Sprintf(" ORDER BY full_name ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting barbers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	barbers := []models.Barber{}
	totalCount := 0
	for rows.Next() {
		barber, err := scanBarber(countingScanner{rows: rows, total: &totalCount})
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning barber: %v", ErrDatabaseError, err)
		}
		barbers = append(barbers, *barber)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating barbers: %v", ErrDatabaseError, err)
	}
	return barbers, totalCount, nil
}

func (r *barberRepository) UpdateBarber(ctx context.Context, executor SQLExecutor, barber *models.Barber) error {
	query := `UPDATE barbers SET full_name = $1, phone_number = $2, is_active = $3, hire_date = $4, updated_at = $5
	          WHERE id = $6`
	barber.UpdatedAt = time.Now()
	var hireDate sql.NullString
	if barber.HireDate != nil {
		hireDate = sql.NullString{String: *barber.HireDate, Valid: true}
	}
	result, err := executor.ExecContext(ctx, query, barber.FullName, barber.PhoneNumber, barber.IsActive, hireDate, barber.UpdatedAt, barber.ID)
	if err != nil {
		return mapWriteError(err, "updating barber")
	}
	return expectOneRow(result, ErrNotFound)
}
