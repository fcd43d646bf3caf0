package logger

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	ActorID       int64
	TargetID      int64
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger emits structured audit log lines. Durable audit records live in
// the audit_logs table; this stream exists for operator diagnostics and SIEM
// ingestion.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAdminAction logs an admin operation against a target account
func (al *AuditLogger) LogAdminAction(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.ActorID != 0 {
		attrs = append(attrs, slog.String("actor_id", strconv.FormatInt(event.ActorID, 10)))
	}
	if event.TargetID != 0 {
		attrs = append(attrs, slog.String("target_id", strconv.FormatInt(event.TargetID, 10)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}
