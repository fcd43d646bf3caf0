package models

import "time"

// LockedAccount is the admin-facing view of one account currently under a
// failed-login lockout. The server is the sole source of truth: clients
// replace their whole list on refetch and never mutate entries in place.
type LockedAccount struct {
	UserID                  int64   `json:"user_id"`
	Email                   string  `json:"email"`
	FullName                string  `json:"full_name"`
	Role                    string  `json:"role"`
	FailedAttempts          int     `json:"failed_attempts"`
	LockoutReason           *string `json:"lockout_reason"`
	LockoutUntil            *string `json:"lockout_until"` // ISO-8601, nil when no expiry recorded
	RemainingLockoutMinutes int     `json:"remaining_lockout_minutes"`
}

// RemainingMinutes computes the whole minutes left until expiry,
// rounding up so an account seconds from expiry still shows as locked.
func RemainingMinutes(until *time.Time, now time.Time) int {
	if until == nil || !until.After(now) {
		return 0
	}
	remaining := until.Sub(now)
	minutes := int(remaining / time.Minute)
	if remaining%time.Minute != 0 {
		minutes++
	}
	return minutes
}
