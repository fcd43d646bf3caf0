package models

import (
	"time"
)

// User roles within LegalEase. Superadmins are the only role allowed to
// operate the account-unlock endpoints.
const (
	RoleUser       = "user"
	RoleParalegal  = "paralegal"
	RoleAttorney   = "attorney"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// Account statuses. Lockouts are orthogonal to status: a locked account is
// still "active" and unlocks automatically when the lockout expires.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
	UserStatusDisabled  = "disabled"
)

type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	FullName      string
	Role          string     // one of the Role* constants
	Status        string     // "active", "suspended", "disabled"
	LockedUntil   *time.Time // Failed-login lockout expiry; nil when not locked
	LockoutReason *string    // Why the lockout was applied (set by the login path)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocked reports whether the user is under an active failed-login lockout
// at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
