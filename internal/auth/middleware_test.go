package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/legalease/legalease-admin/internal/auth"
	"github.com/legalease/legalease-admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

func okHandler(captured **models.TokenClaims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = auth.GetUserFromContext(r)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute)
	token, err := tm.GenerateAccessToken(42, "admin@legalease.app", models.RoleSuperadmin)
	require.NoError(t, err)

	var claims *models.TokenClaims
	handler := auth.AuthMiddleware(tm)(okHandler(&claims))

	req := httptest.NewRequest("GET", "/api/v1/admin/users/locked", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, claims)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleSuperadmin, claims.Role)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute)
	handler := auth.AuthMiddleware(tm)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/v1/admin/users/locked", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute)
	handler := auth.AuthMiddleware(tm)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/v1/admin/users/locked", nil)
	req.Header.Set("Authorization", "Token something")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("another-secret-32-characters-xx!", 15*time.Minute)
	token, err := issuer.GenerateAccessToken(42, "admin@legalease.app", models.RoleSuperadmin)
	require.NoError(t, err)

	tm := auth.NewTokenManager(testSecret, 15*time.Minute)
	handler := auth.AuthMiddleware(tm)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/v1/admin/users/locked", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, -time.Minute)
	token, err := tm.GenerateAccessToken(42, "admin@legalease.app", models.RoleSuperadmin)
	require.NoError(t, err)

	handler := auth.AuthMiddleware(tm)(okHandler(nil))

	req := httptest.NewRequest("GET", "/api/v1/admin/users/locked", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSuperadmin_AllowsSuperadmin(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute)
	token, _ := tm.GenerateAccessToken(42, "admin@legalease.app", models.RoleSuperadmin)

	handler := auth.AuthMiddleware(tm)(auth.RequireSuperadmin()(okHandler(nil)))

	req := httptest.NewRequest("POST", "/api/v1/admin/users/1/unlock", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSuperadmin_RejectsOtherRoles(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute)

	for _, role := range []string{models.RoleUser, models.RoleParalegal, models.RoleAttorney, models.RoleAdmin} {
		token, _ := tm.GenerateAccessToken(42, "user@legalease.app", role)

		handler := auth.AuthMiddleware(tm)(auth.RequireSuperadmin()(okHandler(nil)))

		req := httptest.NewRequest("POST", "/api/v1/admin/users/1/unlock", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code, "role %s should be rejected", role)
	}
}

func TestRequireSuperadmin_NoClaims(t *testing.T) {
	handler := auth.RequireSuperadmin()(okHandler(nil))

	req := httptest.NewRequest("POST", "/api/v1/admin/users/1/unlock", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
