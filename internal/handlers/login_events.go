package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/legalease/legalease-admin/internal/models"
	"github.com/legalease/legalease-admin/internal/services"
	pkghttp "github.com/legalease/legalease-admin/pkg/http"
)

// LoginEventRecorder is the service contract for the internal login-event feed.
type LoginEventRecorder interface {
	RecordLoginEvent(ctx context.Context, email, ipAddress, userAgent string, success bool, failureReason *string) (*services.LoginEventResult, error)
}

// LoginEventHandler accepts login outcomes reported by the main LegalEase
// backend so lockout state stays in one place.
type LoginEventHandler struct {
	service LoginEventRecorder
}

// NewLoginEventHandler creates a new LoginEventHandler.
func NewLoginEventHandler(service LoginEventRecorder) *LoginEventHandler {
	return &LoginEventHandler{service: service}
}

// LoginEventRequest represents the request body for reporting a login outcome
type LoginEventRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	IPAddress     string  `json:"ip_address" validate:"required"`
	UserAgent     string  `json:"user_agent"`
	Success       bool    `json:"success"`
	FailureReason *string `json:"failure_reason"`
}

// RecordLoginEvent handles POST /api/v1/internal/login-events
func (h *LoginEventHandler) RecordLoginEvent(w http.ResponseWriter, r *http.Request) {
	var req LoginEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.RecordLoginEvent(r.Context(), req.Email, req.IPAddress, req.UserAgent, req.Success, req.FailureReason)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Unknown account")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to record login event")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
