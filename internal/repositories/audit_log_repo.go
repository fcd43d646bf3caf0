package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/legalease/legalease-admin/internal/database"
	"github.com/legalease/legalease-admin/internal/models"
)

// AuditLogRepository handles audit log data access
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{pool: db.Pool}
}

// scanAuditLogRow handles nullable fields and populates an AuditLog model from a database row
func scanAuditLogRow(row rowScanner) (*models.AuditLog, error) {
	var log models.AuditLog

	err := row.Scan(
		&log.ID, &log.EventType, &log.ActorID, &log.TargetID,
		&log.ResourceType, &log.ResourceID, &log.Action, &log.Success,
		&log.FailureReason, &log.IPAddress, &log.UserAgent, &log.Metadata,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &log, nil
}

// Create inserts an audit log entry
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (event_type, actor_id, target_id, resource_type, resource_id, action, success, failure_reason, ip_address, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		log.EventType, log.ActorID, log.TargetID,
		log.ResourceType, log.ResourceID, log.Action, log.Success,
		log.FailureReason, log.IPAddress, log.UserAgent, log.Metadata,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// GetRecentByEventType returns the most recent entries for an event type
func (r *AuditLogRepository) GetRecentByEventType(ctx context.Context, eventType string, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, event_type, actor_id, target_id, resource_type, resource_id, action, success, failure_reason, ip_address, user_agent, metadata, created_at
		FROM audit_logs
		WHERE event_type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, eventType, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return scanAuditLogRows(rows)
}

// scanAuditLogRows iterates through rows and scans each into AuditLog models
func scanAuditLogRows(rows pgx.Rows) ([]*models.AuditLog, error) {
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)

	for rows.Next() {
		log, err := scanAuditLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}
