package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB // The direct database connection pool
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const userSelect = `
	SELECT u.id, u.username, u.password_hash, u.email, u.full_name, u.role_id, u.is_active, u.created_at, u.updated_at,
	       COALESCE(ro.name, '') as role_name
	FROM users u
	LEFT JOIN roles ro ON u.role_id = ro.id`

// scanUser returns the user and its password hash.
func scanUser(row scanner) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	var roleName sql.NullString
	var roleID sql.NullInt64

	err := row.Scan(
		&user.ID, &user.Username, &hashedPassword, &user.Email, &user.FullName,
		&roleID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		&roleName,
	)
	if err != nil {
		return nil, "", err
	}
	if roleID.Valid {
		user.RoleID = &roleID.Int64
		if roleName.Valid {
			user.Role = &models.Role{ID: *user.RoleID, Name: roleName.String}
		}
	}
	return user, hashedPassword, nil
}

// CreateUser inserts a new user into the database.
// IsActive is set to true by default. CreatedAt and UpdatedAt are set to the current time.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role_id, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now()
	var userID int64
	err := executor.QueryRowContext(ctx, query,
		user.Username,
		hashedPassword,
		user.Email,    // Can be nil
		user.FullName, // Can be nil
		nullInt64(user.RoleID),
		true,
		currentTime,
		currentTime,
	).Scan(&userID)
	if err != nil {
		return 0, mapWriteError(err, "creating user")
	}
	user.ID = userID
	user.IsActive = true
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime
	return userID, nil
}

// FindUserByUsername retrieves a user by their username together with the password hash.
func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, string, error) {
	user, hashedPassword, err := scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE u.username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, hashedPassword, nil
}

// FindUserByID retrieves a user profile. The password hash is never returned.
func (r *authRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, _, err := scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

// FindRoleByName looks a role up case-insensitively.
func (r *authRepository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	role := &models.Role{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding role %s: %v", ErrDatabaseError, name, err)
	}
	return role, nil
}
