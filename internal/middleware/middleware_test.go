package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedEngine(tokens *utils.TokenManager) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID())
	group := engine.Group("", AuthMiddleware(tokens))
	group.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("userID"), "role": c.GetString("userRole")})
	})
	group.GET("/admin", RoleAuthMiddleware(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func get(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", "barbershop", time.Hour)
	engine := protectedEngine(tokens)

	w := get(engine, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(engine, "/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	foreign, err := utils.NewTokenManager("other-secret", "barbershop", time.Hour).GenerateAccessToken(1, "mallory", models.RoleAdmin)
	require.NoError(t, err)
	w = get(engine, "/me", foreign)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := tokens.GenerateAccessToken(42, "arman", models.RoleBarber)
	require.NoError(t, err)
	w = get(engine, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"Barber"}`, w.Body.String())
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("secret", "barbershop", time.Hour)
	engine := protectedEngine(tokens)

	barber, err := tokens.GenerateAccessToken(2, "arman", models.RoleBarber)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(engine, "/admin", barber).Code)

	admin, err := tokens.GenerateAccessToken(1, "owner", "admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(engine, "/admin", admin).Code)
}

func TestRequestID(t *testing.T) {
	engine := protectedEngine(utils.NewTokenManager("secret", "barbershop", time.Hour))

	w := get(engine, "/me", "")
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, given)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, given, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}
