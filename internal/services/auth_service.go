package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrRoleNotFound       = errors.New("specified role not found")
	ErrUserValidation     = errors.New("user validation failed")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName string  `json:"full_name" binding:"required"`
	RoleName string  `json:"role_name"` // "Admin" or "Barber". Defaults to Barber.
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"` // Seconds
}

// AuthService issues staff access tokens. Clients never log in.
type AuthService interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

type authService struct {
	authRepo   repositories.AuthRepository
	transactor Transactor
	tokens     *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, transactor Transactor, tokens *utils.TokenManager) AuthService {
	return &authService{
		authRepo:   authRepo,
		transactor: transactor,
		tokens:     tokens,
	}
}

// RegisterUser creates a staff login. Only admins reach this through the router.
func (s *authService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	if !utils.IsValidPasswordLength(req.Password, 8) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrUserValidation)
	}
	roleName := req.RoleName
	if strings.TrimSpace(roleName) == "" {
		roleName = models.RoleBarber
	}
	role, err := s.authRepo.FindRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrRoleNotFound, roleName)
		}
		return nil, fmt.Errorf("failed to look up role: %w", err)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	fullName := strings.TrimSpace(req.FullName)
	user := models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    req.Email,
		FullName: &fullName,
		RoleID:   &role.ID,
	}

	var createdUserID int64
	err = s.transactor.WithinTransaction(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		createdUserID, err = s.authRepo.CreateUser(ctx, exec, &user, string(hashedPasswordBytes))
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			if strings.Contains(err.Error(), "users_email_key") {
				return nil, ErrEmailExists
			}
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	utils.LogInfo("Staff user registered", map[string]interface{}{"user_id": createdUserID, "role": role.Name})
	return s.GetUserProfile(ctx, createdUserID)
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Username, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	user.PasswordHash = ""
	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
