package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/legalease/legalease-admin/internal/database"
	"github.com/legalease/legalease-admin/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash *string

	err := scanner.Scan(
		&user.ID, &user.Email, &passwordHash, &user.FullName,
		&user.Role, &user.Status, &user.LockedUntil, &user.LockoutReason,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

const userColumns = `id, email, password_hash, full_name, role, status, locked_until, lockout_reason, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// ListLocked returns all users whose lockout is still active at the given
// instant, soonest-to-expire first.
func (r *UserRepository) ListLocked(ctx context.Context, now time.Time) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE locked_until IS NOT NULL AND locked_until > $1
		ORDER BY locked_until ASC
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return scanUserRows(rows)
}

// SetLockout applies a lockout to a user. Used by the shared login path and
// by test fixtures; the admin service itself only ever clears lockouts.
func (r *UserRepository) SetLockout(ctx context.Context, id int64, until time.Time, reason *string) error {
	query := `
		UPDATE users
		SET locked_until = $2, lockout_reason = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, until, reason)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearLockout removes any lockout state from a user.
func (r *UserRepository) ClearLockout(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET locked_until = NULL, lockout_reason = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Create inserts a user and returns it with the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, full_name, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.FullName, user.Role, user.Status,
	))
}

func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}
