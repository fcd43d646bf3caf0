package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/legalease/legalease-admin/internal/auth"
	"github.com/legalease/legalease-admin/internal/background"
	"github.com/legalease/legalease-admin/internal/config"
	"github.com/legalease/legalease-admin/internal/database"
	"github.com/legalease/legalease-admin/internal/handlers"
	middlewareCustom "github.com/legalease/legalease-admin/internal/middleware"
	"github.com/legalease/legalease-admin/internal/models"
	"github.com/legalease/legalease-admin/internal/repositories"
	"github.com/legalease/legalease-admin/internal/routes"
	"github.com/legalease/legalease-admin/internal/services"
	pkgauth "github.com/legalease/legalease-admin/pkg/auth"
	pkghttp "github.com/legalease/legalease-admin/pkg/http"
	pkglogger "github.com/legalease/legalease-admin/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Apply pending migrations when asked to (container deployments)
	if os.Getenv("MIGRATE_ON_START") == "true" {
		migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
		if err := database.RunMigrations(migrateCtx, &cfg.Database, "migrations"); err != nil {
			migrateCancel()
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		migrateCancel()
		logger.Info("migrations applied")
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)

	// Expired login attempts are pruned on an interval
	cleanupManager := background.NewCleanupManager(loginAttemptRepo, logger, cfg.Lockout.CleanupInterval)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Unlock notification email is optional
	var notifier services.UnlockNotifier
	if cfg.Email.Enabled {
		emailService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = emailService
	}

	lockoutService := services.NewLockoutService(
		userRepo,
		loginAttemptRepo,
		auditLogRepo,
		notifier,
		cfg.Lockout,
		logger,
	)

	ipConfig := pkghttp.NewIPConfig("127.0.0.1/32", "10.0.0.0/8")

	// Initialize handlers
	adminHandler := handlers.NewAdminHandler(lockoutService, auditLogger, ipConfig)
	loginEventHandler := handlers.NewLoginEventHandler(lockoutService)

	// Bootstrap first superadmin if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureSuperadmin(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure superadmin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, adminHandler, loginEventHandler, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureSuperadmin creates the first superadmin if SUPERADMIN_EMAIL and
// SUPERADMIN_PASSWORD are set
func ensureSuperadmin(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	email := os.Getenv("SUPERADMIN_EMAIL")
	password := os.Getenv("SUPERADMIN_PASSWORD")

	if email == "" || password == "" {
		logger.Info("no SUPERADMIN_EMAIL or SUPERADMIN_PASSWORD set, skipping superadmin creation")
		return nil
	}

	// Check if the superadmin already exists
	_, err := userRepo.GetByEmail(ctx, email)
	if err == nil {
		logger.Info("superadmin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if superadmin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash superadmin password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     "Superadmin",
		Role:         models.RoleSuperadmin,
		Status:       models.UserStatusActive,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create superadmin user: %w", err)
	}

	logger.Info("superadmin user created")
	return nil
}
