package repositories

import (
	"context"
	"time"

	"github.com/legalease/legalease-admin/internal/database"
	"github.com/legalease/legalease-admin/internal/models"
)

// LoginAttemptRepository reads and prunes the login_attempts table shared
// with the main LegalEase backend.
type LoginAttemptRepository struct {
	db *database.DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// RecordAttempt records a login attempt in the database
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (user_id, email, ip_address, user_agent, success, failure_reason, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.UserID,
		attempt.Email,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Success,
		attempt.FailureReason,
		attempt.ExpiresAt,
	)

	return err
}

// CountFailedSince returns the number of failed attempts for a user within a time window
func (r *LoginAttemptRepository) CountFailedSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE user_id = $1 AND success = false AND attempt_time >= $2
	`

	var count int
	err := r.db.Pool.QueryRow(ctx, query, userID, since).Scan(&count)
	return count, err
}

// DeleteForUser removes all recorded attempts for a user. Called when an
// operator unlocks the account so a stale failure streak cannot re-trigger
// the lockout immediately.
func (r *LoginAttemptRepository) DeleteForUser(ctx context.Context, userID int64) (int64, error) {
	query := `DELETE FROM login_attempts WHERE user_id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes login attempts past their retention window
func (r *LoginAttemptRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM login_attempts WHERE expires_at <= CURRENT_TIMESTAMP`

	tag, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
