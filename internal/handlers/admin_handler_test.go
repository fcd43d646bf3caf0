package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease/legalease-admin/internal/auth"
	"github.com/legalease/legalease-admin/internal/handlers"
	"github.com/legalease/legalease-admin/internal/models"
	"github.com/legalease/legalease-admin/internal/services"
)

// mockLockoutService implements handlers.LockoutServiceInterface for testing
type mockLockoutService struct {
	ListLockedAccountsFunc func() (*services.LockedAccountsResponse, error)
	UnlockAccountFunc      func(userID int64, reason string, actor *models.TokenClaims) (*services.UnlockResult, error)
}

func (m *mockLockoutService) ListLockedAccounts(ctx context.Context) (*services.LockedAccountsResponse, error) {
	if m.ListLockedAccountsFunc == nil {
		return &services.LockedAccountsResponse{LockedAccounts: []models.LockedAccount{}}, nil
	}
	return m.ListLockedAccountsFunc()
}

func (m *mockLockoutService) UnlockAccount(ctx context.Context, userID int64, reason string, actor *models.TokenClaims) (*services.UnlockResult, error) {
	if m.UnlockAccountFunc == nil {
		return &services.UnlockResult{Unlocked: true}, nil
	}
	return m.UnlockAccountFunc(userID, reason, actor)
}

func unlockRequest(t *testing.T, userID, query string, claims *models.TokenClaims) *http.Request {
	t.Helper()

	target := "/api/v1/admin/users/" + userID + "/unlock"
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest("POST", target, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("user_id", userID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if claims != nil {
		ctx = context.WithValue(ctx, auth.UserContextKey, claims)
	}
	return req.WithContext(ctx)
}

func superadminClaims() *models.TokenClaims {
	return &models.TokenClaims{Type: "access", UserID: 1, Email: "root@legalease.com", Role: models.RoleSuperadmin}
}

// ── GetLockedAccounts ─────────────────────────────────────────────────────────

func TestGetLockedAccounts_Success_Returns200(t *testing.T) {
	reason := "Too many failed login attempts (5)"
	until := "2026-08-29T12:30:00Z"
	mock := &mockLockoutService{
		ListLockedAccountsFunc: func() (*services.LockedAccountsResponse, error) {
			return &services.LockedAccountsResponse{LockedAccounts: []models.LockedAccount{{
				UserID:                  42,
				Email:                   "jane@legalease.com",
				FullName:                "Jane Doe",
				Role:                    models.RoleAttorney,
				FailedAttempts:          5,
				LockoutReason:           &reason,
				LockoutUntil:            &until,
				RemainingLockoutMinutes: 12,
			}}}, nil
		},
	}
	h := handlers.NewAdminHandler(mock, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/admin/users/locked", nil)
	w := httptest.NewRecorder()
	h.GetLockedAccounts(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp services.LockedAccountsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.LockedAccounts, 1)
	assert.Equal(t, int64(42), resp.LockedAccounts[0].UserID)
	assert.Equal(t, 12, resp.LockedAccounts[0].RemainingLockoutMinutes)
}

func TestGetLockedAccounts_ServiceError_Returns500(t *testing.T) {
	mock := &mockLockoutService{
		ListLockedAccountsFunc: func() (*services.LockedAccountsResponse, error) {
			return nil, errors.New("database connection lost")
		},
	}
	h := handlers.NewAdminHandler(mock, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/admin/users/locked", nil)
	w := httptest.NewRecorder()
	h.GetLockedAccounts(w, req)

	assert.Equal(t, 500, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to retrieve locked accounts", resp["detail"])
}

// ── UnlockAccount ─────────────────────────────────────────────────────────────

func TestUnlockAccount_Success_Returns200(t *testing.T) {
	var gotUserID int64
	var gotReason string
	mock := &mockLockoutService{
		UnlockAccountFunc: func(userID int64, reason string, actor *models.TokenClaims) (*services.UnlockResult, error) {
			gotUserID = userID
			gotReason = reason
			require.NotNil(t, actor)
			assert.Equal(t, int64(1), actor.UserID)
			return &services.UnlockResult{
				Message:  "Account jane@legalease.com unlocked",
				UserID:   userID,
				Email:    "jane@legalease.com",
				Unlocked: true,
			}, nil
		},
	}
	h := handlers.NewAdminHandler(mock, nil, nil)

	req := unlockRequest(t, "42", "reason=User%20verified%20identity", superadminClaims())
	w := httptest.NewRecorder()
	h.UnlockAccount(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, int64(42), gotUserID)
	assert.Equal(t, "User verified identity", gotReason, "reason is URL-decoded by the query parser")

	var resp services.UnlockResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Unlocked)
}

func TestUnlockAccount_NotLocked_Returns200WithFlag(t *testing.T) {
	mock := &mockLockoutService{
		UnlockAccountFunc: func(userID int64, reason string, actor *models.TokenClaims) (*services.UnlockResult, error) {
			return &services.UnlockResult{
				Message:  "Account is not locked",
				UserID:   userID,
				Email:    "jane@legalease.com",
				Unlocked: false,
			}, nil
		},
	}
	h := handlers.NewAdminHandler(mock, nil, nil)

	req := unlockRequest(t, "42", "", superadminClaims())
	w := httptest.NewRecorder()
	h.UnlockAccount(w, req)

	assert.Equal(t, 200, w.Code)
	var resp services.UnlockResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Unlocked)
	assert.Contains(t, resp.Message, "not locked")
}

func TestUnlockAccount_InvalidUserID_Returns400(t *testing.T) {
	h := handlers.NewAdminHandler(&mockLockoutService{}, nil, nil)

	for _, id := range []string{"abc", "-3", "0"} {
		req := unlockRequest(t, id, "", superadminClaims())
		w := httptest.NewRecorder()
		h.UnlockAccount(w, req)

		assert.Equal(t, 400, w.Code, "user_id %q", id)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid user id", resp["detail"])
	}
}

func TestUnlockAccount_ReasonTooLong_Returns400(t *testing.T) {
	h := handlers.NewAdminHandler(&mockLockoutService{}, nil, nil)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	req := unlockRequest(t, "42", "reason="+string(long), superadminClaims())
	w := httptest.NewRecorder()
	h.UnlockAccount(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestUnlockAccount_UnknownUser_Returns404(t *testing.T) {
	mock := &mockLockoutService{
		UnlockAccountFunc: func(userID int64, reason string, actor *models.TokenClaims) (*services.UnlockResult, error) {
			return nil, models.ErrNotFound
		},
	}
	h := handlers.NewAdminHandler(mock, nil, nil)

	req := unlockRequest(t, "99", "", superadminClaims())
	w := httptest.NewRecorder()
	h.UnlockAccount(w, req)

	assert.Equal(t, 404, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "User not found", resp["detail"])
}

func TestUnlockAccount_ServiceError_Returns500(t *testing.T) {
	mock := &mockLockoutService{
		UnlockAccountFunc: func(userID int64, reason string, actor *models.TokenClaims) (*services.UnlockResult, error) {
			return nil, errors.New("database connection lost")
		},
	}
	h := handlers.NewAdminHandler(mock, nil, nil)

	req := unlockRequest(t, "42", "", superadminClaims())
	w := httptest.NewRecorder()
	h.UnlockAccount(w, req)

	assert.Equal(t, 500, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to unlock account", resp["detail"])
}
