package models

import "time"

// LoginAttempt represents a single login attempt recorded by the LegalEase
// authentication path. The admin service reads these to compute lockout state
// and deletes them when an operator unlocks an account.
type LoginAttempt struct {
	ID            string
	UserID        int64
	Email         string
	IPAddress     string
	UserAgent     string
	AttemptTime   time.Time
	Success       bool
	FailureReason *string
	ExpiresAt     time.Time
}
