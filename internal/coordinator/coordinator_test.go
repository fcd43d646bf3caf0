package coordinator

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease/legalease-admin/internal/client"
	"github.com/legalease/legalease-admin/internal/models"
)

type fakeAdminAPI struct {
	mu sync.Mutex

	accounts  []models.LockedAccount
	listErr   error
	listCalls int

	unlockResp   *client.UnlockResponse
	unlockErr    error
	unlockCalls  int
	unlockUserID int64
	unlockReason string

	// observed mid-call, to assert the in-flight marker
	unlockingDuringCall int64
	coord               *Coordinator
}

func (f *fakeAdminAPI) ListLockedAccounts(ctx context.Context) ([]models.LockedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.accounts, nil
}

func (f *fakeAdminAPI) UnlockAccount(ctx context.Context, userID int64, reason string) (*client.UnlockResponse, error) {
	f.mu.Lock()
	f.unlockCalls++
	f.unlockUserID = userID
	f.unlockReason = reason
	coord := f.coord
	f.mu.Unlock()

	if coord != nil {
		f.mu.Lock()
		f.unlockingDuringCall = coord.State().Unlocking
		f.mu.Unlock()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unlockErr != nil {
		return nil, f.unlockErr
	}
	return f.unlockResp, nil
}

func lockedAccount(id int64, email string) models.LockedAccount {
	reason := "Too many failed login attempts (5)"
	until := "2026-08-29T12:30:00Z"
	return models.LockedAccount{
		UserID:                  id,
		Email:                   email,
		FullName:                "Test User",
		Role:                    models.RoleAttorney,
		FailedAttempts:          5,
		LockoutReason:           &reason,
		LockoutUntil:            &until,
		RemainingLockoutMinutes: 12,
	}
}

func TestSetAuthorized_GatesFetch(t *testing.T) {
	api := &fakeAdminAPI{accounts: []models.LockedAccount{lockedAccount(1, "a@legalease.com")}}
	c := New(api, nil)

	c.SetAuthorized(context.Background(), false)
	assert.Equal(t, 0, api.listCalls, "unauthorized operators never hit the API")
	assert.Empty(t, c.State().LockedAccounts)

	c.SetAuthorized(context.Background(), true)
	assert.Equal(t, 1, api.listCalls)

	// Flipping to true again does not refetch.
	c.SetAuthorized(context.Background(), true)
	assert.Equal(t, 1, api.listCalls)
}

func TestRefresh_PopulatesAccounts(t *testing.T) {
	api := &fakeAdminAPI{accounts: []models.LockedAccount{
		lockedAccount(1, "a@legalease.com"),
		lockedAccount(2, "b@legalease.com"),
	}}
	c := New(api, nil)
	c.SetAuthorized(context.Background(), true)

	state := c.State()
	assert.False(t, state.Loading)
	require.Len(t, state.LockedAccounts, 2)
	assert.Equal(t, "a@legalease.com", state.LockedAccounts[0].Email)
	assert.Empty(t, state.Error)
}

func TestRefresh_ErrorSetsDetail(t *testing.T) {
	api := &fakeAdminAPI{listErr: &client.APIError{StatusCode: http.StatusForbidden, Detail: "Superadmin role required"}}
	c := New(api, nil)
	c.SetAuthorized(context.Background(), true)

	state := c.State()
	assert.False(t, state.Loading)
	assert.Equal(t, "Superadmin role required", state.Error)
}

func TestConfirmUnlock_HappyPath(t *testing.T) {
	account := lockedAccount(42, "jane@legalease.com")
	api := &fakeAdminAPI{
		accounts: []models.LockedAccount{account},
		unlockResp: &client.UnlockResponse{
			Message:  "Account jane@legalease.com unlocked",
			UserID:   42,
			Email:    "jane@legalease.com",
			Unlocked: true,
		},
	}
	c := New(api, nil)
	api.coord = c
	c.SetAuthorized(context.Background(), true)
	require.Equal(t, 1, api.listCalls)

	c.OpenUnlockDialog(account)
	c.SetUnlockReason("User verified identity")
	c.ConfirmUnlock(context.Background())

	assert.Equal(t, 1, api.unlockCalls)
	assert.Equal(t, int64(42), api.unlockUserID)
	assert.Equal(t, "User verified identity", api.unlockReason)
	assert.Equal(t, int64(42), api.unlockingDuringCall, "in-flight marker set during the call")

	state := c.State()
	assert.Equal(t, "Successfully unlocked jane@legalease.com", state.Success)
	assert.False(t, state.UnlockDialogOpen)
	assert.Nil(t, state.SelectedAccount)
	assert.Zero(t, state.Unlocking)
	assert.Equal(t, 2, api.listCalls, "successful unlock refetches the list")
}

func TestConfirmUnlock_AccountNoLongerLocked(t *testing.T) {
	account := lockedAccount(42, "jane@legalease.com")
	api := &fakeAdminAPI{
		accounts: []models.LockedAccount{},
		unlockResp: &client.UnlockResponse{
			Message:  "Account is not locked",
			UserID:   42,
			Email:    "jane@legalease.com",
			Unlocked: false,
		},
	}
	c := New(api, nil)
	c.SetAuthorized(context.Background(), true)

	c.OpenUnlockDialog(account)
	c.ConfirmUnlock(context.Background())

	state := c.State()
	assert.Contains(t, state.Error, "not locked")
	assert.True(t, state.UnlockDialogOpen, "dialog stays open on failure")
	require.NotNil(t, state.SelectedAccount)
	assert.Empty(t, state.Success)
	assert.Equal(t, 1, api.listCalls, "conflict does not trigger a refetch")
}

func TestConfirmUnlock_ServerDetailSurfaced(t *testing.T) {
	account := lockedAccount(42, "jane@legalease.com")
	api := &fakeAdminAPI{
		accounts:  []models.LockedAccount{account},
		unlockErr: &client.APIError{StatusCode: http.StatusForbidden, Detail: "Permission denied"},
	}
	c := New(api, nil)
	c.SetAuthorized(context.Background(), true)

	c.OpenUnlockDialog(account)
	c.ConfirmUnlock(context.Background())

	state := c.State()
	assert.Equal(t, "Permission denied", state.Error)
	assert.True(t, state.UnlockDialogOpen)
	assert.Zero(t, state.Unlocking)
}

func TestConfirmUnlock_FallbackMessage(t *testing.T) {
	account := lockedAccount(42, "jane@legalease.com")

	for name, unlockErr := range map[string]error{
		"transport error":  errors.New("connection refused"),
		"detail-less body": &client.APIError{StatusCode: http.StatusBadGateway},
	} {
		t.Run(name, func(t *testing.T) {
			api := &fakeAdminAPI{accounts: []models.LockedAccount{account}, unlockErr: unlockErr}
			c := New(api, nil)
			c.SetAuthorized(context.Background(), true)

			c.OpenUnlockDialog(account)
			c.ConfirmUnlock(context.Background())

			assert.Equal(t, FallbackUnlockError, c.State().Error)
		})
	}
}

func TestConfirmUnlock_NoSelectionIsNoOp(t *testing.T) {
	api := &fakeAdminAPI{}
	c := New(api, nil)
	c.SetAuthorized(context.Background(), true)

	c.ConfirmUnlock(context.Background())
	assert.Equal(t, 0, api.unlockCalls)

	// A closed dialog clears the selection, so confirm is inert again.
	c.OpenUnlockDialog(lockedAccount(1, "a@legalease.com"))
	c.CloseUnlockDialog()
	c.ConfirmUnlock(context.Background())
	assert.Equal(t, 0, api.unlockCalls)
}

func TestConfirmUnlock_ClearsInFlightMarkerOnError(t *testing.T) {
	account := lockedAccount(42, "jane@legalease.com")
	api := &fakeAdminAPI{accounts: []models.LockedAccount{account}, unlockErr: errors.New("boom")}
	c := New(api, nil)
	c.SetAuthorized(context.Background(), true)

	c.OpenUnlockDialog(account)
	c.ConfirmUnlock(context.Background())

	assert.Zero(t, c.State().Unlocking)
}

func TestOpenUnlockDialog_ReplacesSelection(t *testing.T) {
	api := &fakeAdminAPI{}
	c := New(api, nil)

	c.OpenUnlockDialog(lockedAccount(1, "a@legalease.com"))
	c.SetUnlockReason("first attempt")

	// Re-selecting before confirmation swaps the account but is otherwise
	// a pure transition: the typed reason survives.
	c.OpenUnlockDialog(lockedAccount(2, "b@legalease.com"))
	state := c.State()
	assert.True(t, state.UnlockDialogOpen)
	require.NotNil(t, state.SelectedAccount)
	assert.Equal(t, int64(2), state.SelectedAccount.UserID)
	assert.Equal(t, "first attempt", state.UnlockReason)

	// Close clears the reason, so a fresh open starts blank.
	c.CloseUnlockDialog()
	c.OpenUnlockDialog(lockedAccount(1, "a@legalease.com"))
	assert.Empty(t, c.State().UnlockReason)
}

func TestStateSnapshot_IsACopy(t *testing.T) {
	api := &fakeAdminAPI{accounts: []models.LockedAccount{lockedAccount(1, "a@legalease.com")}}
	c := New(api, nil)
	c.SetAuthorized(context.Background(), true)

	snap := c.State()
	require.Len(t, snap.LockedAccounts, 1)
	snap.LockedAccounts[0].Email = "mutated@legalease.com"

	assert.Equal(t, "a@legalease.com", c.State().LockedAccounts[0].Email)
}
