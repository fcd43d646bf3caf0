// Package coordinator drives the admin unlock workflow: it owns the list of
// locked accounts, the unlock dialog, and the in-flight unlock call, and
// exposes a snapshot of that state to whatever surface renders it.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/legalease/legalease-admin/internal/client"
	"github.com/legalease/legalease-admin/internal/models"
)

// FallbackUnlockError is shown when the server gave no usable detail.
const FallbackUnlockError = "Failed to unlock account"

// AdminAPI is the slice of the admin client the coordinator consumes.
type AdminAPI interface {
	ListLockedAccounts(ctx context.Context) ([]models.LockedAccount, error)
	UnlockAccount(ctx context.Context, userID int64, reason string) (*client.UnlockResponse, error)
}

// State is a point-in-time snapshot of the coordinator. LockedAccounts is a
// copy; callers may not mutate the coordinator through it.
type State struct {
	Authorized     bool
	Loading        bool
	LockedAccounts []models.LockedAccount
	Error          string
	Success        string

	// Unlocking is the user id of the in-flight unlock, zero when idle.
	Unlocking int64

	UnlockDialogOpen bool
	SelectedAccount  *models.LockedAccount
	UnlockReason     string
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	api    AdminAPI
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New builds a coordinator over the given admin API.
func New(api AdminAPI, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{api: api, logger: logger}
}

// State returns a snapshot of the current coordinator state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() State {
	snap := c.state
	snap.LockedAccounts = append([]models.LockedAccount(nil), c.state.LockedAccounts...)
	if c.state.SelectedAccount != nil {
		selected := *c.state.SelectedAccount
		snap.SelectedAccount = &selected
	}
	return snap
}

// SetAuthorized records whether the operator holds the superadmin role.
// Flipping to authorized triggers the initial fetch; unauthorized operators
// never hit the API.
func (c *Coordinator) SetAuthorized(ctx context.Context, authorized bool) {
	c.mu.Lock()
	was := c.state.Authorized
	c.state.Authorized = authorized
	c.mu.Unlock()

	if authorized && !was {
		c.Refresh(ctx)
	}
}

// Refresh refetches the locked-account list, replacing it wholesale.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	if !c.state.Authorized {
		c.mu.Unlock()
		return
	}
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()

	accounts, err := c.api.ListLockedAccounts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.logger.Error("failed to fetch locked accounts", slog.Any("error", err))
		c.state.Error = errorDetail(err, "Failed to retrieve locked accounts")
		return
	}
	c.state.LockedAccounts = accounts
}

// OpenUnlockDialog selects an account and opens the unlock dialog. Calling
// it again before confirmation replaces the selection. Reason text is
// cleared on close, not on open.
func (c *Coordinator) OpenUnlockDialog(account models.LockedAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected := account
	c.state.SelectedAccount = &selected
	c.state.UnlockDialogOpen = true
}

// SetUnlockReason updates the dialog's reason text.
func (c *Coordinator) SetUnlockReason(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.UnlockReason = reason
}

// CloseUnlockDialog dismisses the dialog and clears the selection.
func (c *Coordinator) CloseUnlockDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.UnlockDialogOpen = false
	c.state.SelectedAccount = nil
	c.state.UnlockReason = ""
}

// ConfirmUnlock performs the unlock for the selected account. It is a no-op
// when nothing is selected or an unlock is already in flight. On success the
// dialog closes and the list is refetched; on failure the dialog stays open
// so the operator can retry or cancel.
func (c *Coordinator) ConfirmUnlock(ctx context.Context) {
	c.mu.Lock()
	if c.state.SelectedAccount == nil || c.state.Unlocking != 0 {
		c.mu.Unlock()
		return
	}
	account := *c.state.SelectedAccount
	reason := c.state.UnlockReason
	c.state.Unlocking = account.UserID
	c.state.Error = ""
	c.state.Success = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Unlocking = 0
		c.mu.Unlock()
	}()

	resp, err := c.api.UnlockAccount(ctx, account.UserID, reason)
	if err != nil {
		c.logger.Error("unlock failed",
			slog.Int64("user_id", account.UserID),
			slog.Any("error", err))
		c.mu.Lock()
		c.state.Error = errorDetail(err, FallbackUnlockError)
		c.mu.Unlock()
		return
	}

	if !resp.Unlocked {
		// The account is no longer locked. Surface the server's message
		// and leave the dialog open so the operator can dismiss it.
		c.mu.Lock()
		c.state.Error = resp.Message
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.state.Success = fmt.Sprintf("Successfully unlocked %s", account.Email)
	c.state.UnlockDialogOpen = false
	c.state.SelectedAccount = nil
	c.state.UnlockReason = ""
	c.mu.Unlock()

	c.Refresh(ctx)
}

// SetError overrides the error banner. An empty string clears it.
func (c *Coordinator) SetError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = msg
}

// SetSuccess overrides the success banner. An empty string clears it.
func (c *Coordinator) SetSuccess(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Success = msg
}

// ClearMessages drops any success or error banner.
func (c *Coordinator) ClearMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = ""
	c.state.Success = ""
}

// errorDetail prefers the server's detail message and falls back to the
// given generic message for transport failures and detail-less errors.
func errorDetail(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
