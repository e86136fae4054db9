package services

import (
	"context"
	"testing"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBarberLifecycle(t *testing.T) {
	sh := newShop()
	ctx := context.Background()

	_, err := sh.barbers.CreateBarber(ctx, CreateBarberRequest{FullName: "Timur", HireDate: strPtr("01/02/2026")})
	assert.ErrorIs(t, err, ErrHireDateFormat)

	missingUser := int64(5)
	_, err = sh.barbers.CreateBarber(ctx, CreateBarberRequest{FullName: "Timur", UserID: &missingUser})
	assert.ErrorIs(t, err, ErrUserForBarberNotFound)

	barber, err := sh.barbers.CreateBarber(ctx, CreateBarberRequest{FullName: "Timur", HireDate: strPtr("2026-02-01")})
	require.NoError(t, err)
	assert.True(t, barber.IsActive)

	inactive := false
	barber, err = sh.barbers.UpdateBarber(ctx, barber.ID, UpdateBarberRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, barber.IsActive)

	client := sh.clientWithProgress(1)
	req := sh.haircutVisit(client.ID, nil)
	req.BarberID = barber.ID
	_, err = sh.visits.RecordVisit(ctx, req)
	assert.Error(t, err)
}

func TestMenuService(t *testing.T) {
	sh := newShop()
	ctx := context.Background()

	_, err := sh.menu.CreateService(ctx, CreateMenuServiceRequest{Name: "Shave", Price: decimal.RequireFromString("-1")})
	assert.ErrorIs(t, err, ErrMenuValidation)

	_, err = sh.menu.CreateService(ctx, CreateMenuServiceRequest{Name: "haircut", Price: decimal.RequireFromString("30")})
	assert.ErrorIs(t, err, ErrMenuServiceExists)

	shave, err := sh.menu.CreateService(ctx, CreateMenuServiceRequest{Name: "Shave", Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.True(t, shave.IsActive)

	shave, err = sh.menu.SetServiceActive(ctx, shave.ID, false)
	require.NoError(t, err)
	assert.False(t, shave.IsActive)

	active, err := sh.menu.GetServices(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = sh.menu.GetServiceByID(ctx, 424242)
	assert.ErrorIs(t, err, ErrMenuServiceNotFound)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	tokens := utils.NewTokenManager("test-secret", "barbershop", time.Hour)
	auth := NewAuthService(memAuthRepo{store}, memTransactor{store: store}, tokens)
	ctx := context.Background()

	_, err := auth.RegisterUser(ctx, RegisterUserRequest{Username: "arman", Password: "short", FullName: "Arman"})
	assert.ErrorIs(t, err, ErrUserValidation)

	_, err = auth.RegisterUser(ctx, RegisterUserRequest{Username: "arman", Password: "long-enough", FullName: "Arman", RoleName: "Janitor"})
	assert.ErrorIs(t, err, ErrRoleNotFound)

	user, err := auth.RegisterUser(ctx, RegisterUserRequest{Username: "arman", Password: "long-enough", FullName: "Arman"})
	require.NoError(t, err)
	require.NotNil(t, user.Role)
	assert.Equal(t, models.RoleBarber, user.Role.Name)

	_, err = auth.RegisterUser(ctx, RegisterUserRequest{Username: "arman", Password: "long-enough", FullName: "Arman"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = auth.LoginUser(ctx, LoginRequest{Username: "arman", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := auth.LoginUser(ctx, LoginRequest{Username: "arman", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	claims, err := tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleBarber, claims.Role)
}

func TestAuthLoginStoredHash(t *testing.T) {
	store := newMemStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	adminRole := int64(1)
	store.users[1] = memUser{user: models.User{ID: 1, Username: "admin", RoleID: &adminRole, IsActive: true}, hash: string(hash)}
	store.users[2] = memUser{user: models.User{ID: 2, Username: "former", RoleID: &adminRole, IsActive: false}, hash: string(hash)}

	auth := NewAuthService(memAuthRepo{store}, memTransactor{store: store}, utils.NewTokenManager("s", "barbershop", time.Minute))
	resp, err := auth.LoginUser(context.Background(), LoginRequest{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Empty(t, resp.User.PasswordHash)
	assert.Equal(t, models.RoleAdmin, resp.User.Role.Name)

	_, err = auth.LoginUser(context.Background(), LoginRequest{Username: "former", Password: "admin-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
