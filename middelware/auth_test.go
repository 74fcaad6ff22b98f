package middelware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clearway-backend/models"
	"clearway-backend/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager(expires time.Duration) *JWTManager {
	return NewJWTManager(&models.Config{
		AppName:      "ClearWay Backend",
		JWTSecret:    "test-secret",
		JWTExpiresIn: expires,
	}, logger.NewLogger("error", "text"))
}

func TestGenerateAndValidateToken(t *testing.T) {
	jm := newTestJWTManager(time.Hour)

	token, err := jm.GenerateToken("client-1", "Avery", models.RoleClient)
	require.NoError(t, err)

	claims, err := jm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "client-1", claims.UserID)
	assert.Equal(t, models.RoleClient, claims.Role)
}

func TestValidateExpiredToken(t *testing.T) {
	jm := newTestJWTManager(-time.Minute)

	token, err := jm.GenerateToken("client-1", "Avery", models.RoleClient)
	require.NoError(t, err)

	_, err = jm.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := newTestJWTManager(time.Hour).GenerateToken("client-1", "Avery", models.RoleClient)
	require.NoError(t, err)

	other := newTestJWTManager(time.Hour)
	other.Config.JWTSecret = "different-secret"
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	jm := newTestJWTManager(time.Hour)

	token, err := jm.GenerateToken("someone", "Someone", models.ActorRole("superuser"))
	require.NoError(t, err)

	_, err = jm.ValidateToken(token)
	assert.ErrorContains(t, err, "unknown actor role")
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jm := newTestJWTManager(time.Hour)

	router := gin.New()
	router.GET("/protected", jm.AuthMiddleware(), func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user": userID})
	})

	// No header.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong scheme.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid bearer token.
	token, err := jm.GenerateToken("crew-1", "Crew", models.RoleCrew)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "crew-1")
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jm := newTestJWTManager(time.Hour)

	router := gin.New()
	router.POST("/admin-only", jm.AuthMiddleware(), jm.RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	clientToken, err := jm.GenerateToken("client-1", "Avery", models.RoleClient)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, err := jm.GenerateToken("admin-1", "Admin", models.RoleAdmin)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
