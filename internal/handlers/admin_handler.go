package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/legalease/legalease-admin/internal/auth"
	"github.com/legalease/legalease-admin/internal/models"
	"github.com/legalease/legalease-admin/internal/services"
	pkghttp "github.com/legalease/legalease-admin/pkg/http"
	pkglogger "github.com/legalease/legalease-admin/pkg/logger"
)

// LockoutServiceInterface defines the lockout service contract.
type LockoutServiceInterface interface {
	ListLockedAccounts(ctx context.Context) (*services.LockedAccountsResponse, error)
	UnlockAccount(ctx context.Context, userID int64, reason string, actor *models.TokenClaims) (*services.UnlockResult, error)
}

// AdminHandler handles admin account-unlock HTTP requests.
type AdminHandler struct {
	service     LockoutServiceInterface
	auditLogger *pkglogger.AuditLogger
	ipConfig    *pkghttp.IPConfig
}

// NewAdminHandler creates a new AdminHandler. auditLogger may be nil in tests.
func NewAdminHandler(service LockoutServiceInterface, auditLogger *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig) *AdminHandler {
	return &AdminHandler{service: service, auditLogger: auditLogger, ipConfig: ipConfig}
}

// unlockParams carries the validated unlock inputs.
type unlockParams struct {
	Reason string `validate:"max=500"`
}

// GetLockedAccounts handles GET /api/v1/admin/users/locked
func (h *AdminHandler) GetLockedAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListLockedAccounts(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve locked accounts")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, accounts)
}

// UnlockAccount handles POST /api/v1/admin/users/{user_id}/unlock?reason=...
// The reason arrives URL-encoded in the query string and is stored verbatim
// for audit purposes.
func (h *AdminHandler) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		pkghttp.WriteBadRequest(w, "Invalid user id")
		return
	}

	params := unlockParams{Reason: r.URL.Query().Get("reason")}
	if err := ValidateRequest(params); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor := auth.GetUserFromContext(r)

	result, err := h.service.UnlockAccount(r.Context(), userID, params.Reason, actor)
	if err != nil {
		h.logUnlockAttempt(r, actor, userID, false, err.Error())
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to unlock account")
		return
	}

	h.logUnlockAttempt(r, actor, userID, result.Unlocked, "")
	pkghttp.WriteJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) logUnlockAttempt(r *http.Request, actor *models.TokenClaims, targetID int64, success bool, failureReason string) {
	if h.auditLogger == nil {
		return
	}

	event := pkglogger.AuditEvent{
		EventType:     models.AuditEventTypeAccountUnlock,
		TargetID:      targetID,
		IPAddress:     pkghttp.ClientIP(r, h.ipConfig),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: failureReason,
	}
	if actor != nil {
		event.ActorID = actor.UserID
	}

	h.auditLogger.LogAdminAction(event)
}
