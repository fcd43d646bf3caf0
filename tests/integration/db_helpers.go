package integration

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/legalease/legalease-admin/internal/database"
	"github.com/legalease/legalease-admin/internal/models"
	"github.com/legalease/legalease-admin/pkg/auth"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("legalease"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	// Suppress goose logs
	goose.SetLogger(log.New(nil, "", 0))

	// Goose needs a stdlib DB connection
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"login_attempts",
		"audit_logs",
		"users",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedUser inserts a test user with hashed password
func (db *TestDB) SeedUser(ctx context.Context, email, password, role string) (*models.User, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, full_name, role, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING id, email, password_hash, full_name, role, status, locked_until, lockout_reason, created_at, updated_at
	`

	var user models.User
	err = db.Pool.QueryRow(ctx, query, email, hashedPassword, "Test User", role).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.Status,
		&user.LockedUntil,
		&user.LockoutReason,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &user, nil
}

// SeedLockedUser inserts a user already under a lockout expiring at until
func (db *TestDB) SeedLockedUser(ctx context.Context, email string, until time.Time, reason string) (*models.User, error) {
	user, err := db.SeedUser(ctx, email, "TestPassword123!", models.RoleUser)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE users SET locked_until = $2, lockout_reason = $3, updated_at = now()
		WHERE id = $1
	`
	if _, err := db.Pool.Exec(ctx, query, user.ID, until, reason); err != nil {
		return nil, fmt.Errorf("failed to apply lockout: %w", err)
	}

	user.LockedUntil = &until
	user.LockoutReason = &reason
	return user, nil
}

// SeedFailedAttempts records n failed login attempts for the user
func (db *TestDB) SeedFailedAttempts(ctx context.Context, user *models.User, n int) error {
	query := `
		INSERT INTO login_attempts (user_id, email, ip_address, user_agent, success, failure_reason, expires_at)
		VALUES ($1, $2, '203.0.113.9', 'integration-test', false, 'bad password', now() + interval '24 hours')
	`
	for i := 0; i < n; i++ {
		if _, err := db.Pool.Exec(ctx, query, user.ID, user.Email); err != nil {
			return fmt.Errorf("failed to insert login attempt: %w", err)
		}
	}
	return nil
}
