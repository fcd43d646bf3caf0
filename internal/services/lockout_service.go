package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/legalease/legalease-admin/internal/config"
	"github.com/legalease/legalease-admin/internal/models"
)

// LockoutUserRepository is the subset of UserRepository methods needed by LockoutService.
type LockoutUserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListLocked(ctx context.Context, now time.Time) ([]*models.User, error)
	SetLockout(ctx context.Context, id int64, until time.Time, reason *string) error
	ClearLockout(ctx context.Context, id int64) error
}

// LockoutAttemptRepository is the subset of LoginAttemptRepository methods needed by LockoutService.
type LockoutAttemptRepository interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	CountFailedSince(ctx context.Context, userID int64, since time.Time) (int, error)
	DeleteForUser(ctx context.Context, userID int64) (int64, error)
}

// LockoutAuditRecorder persists audit entries for unlock operations.
type LockoutAuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// UnlockNotifier tells an affected user their account was unlocked. Failures
// are logged, never surfaced: notification is best-effort.
type UnlockNotifier interface {
	SendUnlockNotification(ctx context.Context, email, fullName, reason string) error
}

// LockedAccountsResponse is the wire shape of the locked-accounts listing.
type LockedAccountsResponse struct {
	LockedAccounts []models.LockedAccount `json:"locked_accounts"`
}

// UnlockResult is the wire shape of an unlock response.
type UnlockResult struct {
	Message      string `json:"message"`
	UserID       int64  `json:"user_id"`
	Email        string `json:"email"`
	Unlocked     bool   `json:"unlocked"`
	UnlockedBy   string `json:"unlocked_by,omitempty"`
	UnlockReason string `json:"unlock_reason,omitempty"`
}

// LoginEventResult reports the lockout decision after a recorded login event.
type LoginEventResult struct {
	Locked      bool       `json:"locked"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// LockoutService owns lockout state: it lists locked accounts for the admin
// console, performs operator unlocks, and applies lockouts when the main
// backend reports failed logins.
type LockoutService struct {
	userRepo    LockoutUserRepository
	attemptRepo LockoutAttemptRepository
	auditRepo   LockoutAuditRecorder
	notifier    UnlockNotifier
	cfg         config.LockoutConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewLockoutService creates a new LockoutService. notifier may be nil when
// email notifications are disabled.
func NewLockoutService(
	userRepo LockoutUserRepository,
	attemptRepo LockoutAttemptRepository,
	auditRepo LockoutAuditRecorder,
	notifier UnlockNotifier,
	cfg config.LockoutConfig,
	logger *slog.Logger,
) *LockoutService {
	return &LockoutService{
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the service clock. Test use only.
func (s *LockoutService) SetClock(now func() time.Time) {
	s.now = now
}

// ListLockedAccounts returns every account under an active lockout, soonest
// expiry first, with the failed-attempt count from the lookback window.
func (s *LockoutService) ListLockedAccounts(ctx context.Context) (*LockedAccountsResponse, error) {
	now := s.now().UTC()

	users, err := s.userRepo.ListLocked(ctx, now)
	if err != nil {
		s.logger.Error("failed to list locked users", slog.Any("error", err))
		return nil, err
	}

	accounts := make([]models.LockedAccount, 0, len(users))
	for _, user := range users {
		failed, err := s.attemptRepo.CountFailedSince(ctx, user.ID, now.Add(-s.cfg.LookbackWindow))
		if err != nil {
			s.logger.Error("failed to count attempts for locked user",
				slog.Int64("user_id", user.ID),
				slog.Any("error", err))
			return nil, err
		}

		var until *string
		if user.LockedUntil != nil {
			formatted := user.LockedUntil.UTC().Format(time.RFC3339)
			until = &formatted
		}

		accounts = append(accounts, models.LockedAccount{
			UserID:                  user.ID,
			Email:                   user.Email,
			FullName:                user.FullName,
			Role:                    user.Role,
			FailedAttempts:          failed,
			LockoutReason:           user.LockoutReason,
			LockoutUntil:            until,
			RemainingLockoutMinutes: models.RemainingMinutes(user.LockedUntil, now),
		})
	}

	return &LockedAccountsResponse{LockedAccounts: accounts}, nil
}

// UnlockAccount clears the lockout for a user. When the account is not
// actually locked the call succeeds but reports Unlocked=false so the caller
// can surface the conflict; nothing is modified in that case.
func (s *LockoutService) UnlockAccount(ctx context.Context, userID int64, reason string, actor *models.TokenClaims) (*UnlockResult, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("unlock: failed to load user",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return nil, err
	}

	now := s.now().UTC()
	if !user.IsLocked(now) {
		return &UnlockResult{
			Message:  "Account is not locked",
			UserID:   user.ID,
			Email:    user.Email,
			Unlocked: false,
		}, nil
	}

	if err := s.userRepo.ClearLockout(ctx, user.ID); err != nil {
		s.logger.Error("unlock: failed to clear lockout",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
		return nil, err
	}

	cleared, err := s.attemptRepo.DeleteForUser(ctx, user.ID)
	if err != nil {
		// The lockout is already cleared; stale attempts only age out, they
		// cannot re-lock without new failures. Log and continue.
		s.logger.Error("unlock: failed to clear login attempts",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
	}

	s.recordUnlockAudit(ctx, user, reason, actor, cleared)
	s.notifyUnlock(ctx, user, reason)

	result := &UnlockResult{
		Message:      fmt.Sprintf("Account %s unlocked", user.Email),
		UserID:       user.ID,
		Email:        user.Email,
		Unlocked:     true,
		UnlockReason: reason,
	}
	if actor != nil {
		result.UnlockedBy = actor.Email
	}

	s.logger.Info("account unlocked",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("unlocked_by", result.UnlockedBy))

	return result, nil
}

// RecordLoginEvent records a login outcome reported by the main backend and
// applies a lockout once the failure threshold is crossed. Successful logins
// clear the failure streak.
func (s *LockoutService) RecordLoginEvent(ctx context.Context, email, ipAddress, userAgent string, success bool, failureReason *string) (*LoginEventResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	attempt := &models.LoginAttempt{
		UserID:        user.ID,
		Email:         user.Email,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		Success:       success,
		FailureReason: failureReason,
		ExpiresAt:     now.Add(s.cfg.LookbackWindow * 2),
	}
	if err := s.attemptRepo.RecordAttempt(ctx, attempt); err != nil {
		s.logger.Error("failed to record login attempt",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
		return nil, err
	}

	if success {
		if _, err := s.attemptRepo.DeleteForUser(ctx, user.ID); err != nil {
			s.logger.Error("failed to clear attempts after successful login",
				slog.Int64("user_id", user.ID),
				slog.Any("error", err))
		}
		return &LoginEventResult{Locked: false}, nil
	}

	failed, err := s.attemptRepo.CountFailedSince(ctx, user.ID, now.Add(-s.cfg.LookbackWindow))
	if err != nil {
		s.logger.Error("failed to count failed attempts",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
		// Fail open for availability: a counting error must not lock anyone out.
		return &LoginEventResult{Locked: false}, nil
	}

	if failed < s.cfg.MaxFailedAttempts {
		return &LoginEventResult{Locked: false}, nil
	}

	duration := s.lockoutDurationFor(failed)
	until := now.Add(duration)
	reason := fmt.Sprintf("Too many failed login attempts (%d)", failed)

	if err := s.userRepo.SetLockout(ctx, user.ID, until, &reason); err != nil {
		s.logger.Error("failed to apply lockout",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
		return nil, err
	}

	s.logger.Warn("account locked",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
		slog.Int("failed_attempts", failed),
		slog.Duration("lockout_duration", duration))

	return &LoginEventResult{Locked: true, LockedUntil: &until}, nil
}

// lockoutDurationFor doubles the base duration for every failure beyond the
// threshold, capped at the configured maximum.
func (s *LockoutService) lockoutDurationFor(failed int) time.Duration {
	duration := s.cfg.LockoutDuration
	for extra := failed - s.cfg.MaxFailedAttempts; extra > 0; extra-- {
		duration *= 2
		if duration >= s.cfg.MaxLockoutDuration {
			return s.cfg.MaxLockoutDuration
		}
	}
	if duration > s.cfg.MaxLockoutDuration {
		duration = s.cfg.MaxLockoutDuration
	}
	return duration
}

func (s *LockoutService) recordUnlockAudit(ctx context.Context, user *models.User, reason string, actor *models.TokenClaims, attemptsCleared int64) {
	if s.auditRepo == nil {
		return
	}

	resourceType := models.AuditResourceTypeUser
	entry := &models.AuditLog{
		EventType:    models.AuditEventTypeAccountUnlock,
		TargetID:     &user.ID,
		ResourceType: &resourceType,
		Action:       models.AuditActionUpdate,
		Success:      true,
		Metadata: models.AuditMetadata{
			"unlock_reason":    reason,
			"attempts_cleared": attemptsCleared,
		},
	}
	if actor != nil {
		entry.ActorID = &actor.UserID
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record unlock audit entry",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err))
	}
}

func (s *LockoutService) notifyUnlock(ctx context.Context, user *models.User, reason string) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.SendUnlockNotification(ctx, user.Email, user.FullName, reason); err != nil {
		s.logger.Error("failed to send unlock notification",
			slog.String("email", user.Email),
			slog.Any("error", err))
	}
}
