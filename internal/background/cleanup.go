package background

import (
	"context"
	"log/slog"
	"time"
)

// AttemptPruner is the repository surface the cleanup loop needs.
type AttemptPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically removes login attempts past their retention
// window so the shared table does not grow without bound.
type CleanupManager struct {
	attemptRepo AttemptPruner
	logger      *slog.Logger
	interval    time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(attemptRepo AttemptPruner, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		attemptRepo: attemptRepo,
		logger:      logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes expired login attempts from the database
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.attemptRepo.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to prune expired login attempts", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired login attempts pruned", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
