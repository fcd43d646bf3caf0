package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/legalease/legalease-admin/internal/auth"
	"github.com/legalease/legalease-admin/internal/config"
	"github.com/legalease/legalease-admin/internal/handlers"
	middlewareCustom "github.com/legalease/legalease-admin/internal/middleware"
	"github.com/legalease/legalease-admin/internal/models"
	"github.com/legalease/legalease-admin/internal/repositories"
	"github.com/legalease/legalease-admin/internal/routes"
	"github.com/legalease/legalease-admin/internal/services"
	pkglogger "github.com/legalease/legalease-admin/pkg/logger"
)

const testJWTSecret = "integration-test-secret-0123456789abcdef"

// TestServer wraps httptest.Server with a real database and the full router
type TestServer struct {
	Server       *httptest.Server
	TokenManager *auth.TokenManager
	Lockout      *services.LockoutService
	logger       *slog.Logger
}

// NewTestServer builds the complete admin API over the given test database
func NewTestServer(db *TestDB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	userRepo := repositories.NewUserRepository(db.DB)
	attemptRepo := repositories.NewLoginAttemptRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)

	lockoutCfg := config.LockoutConfig{
		MaxFailedAttempts:  5,
		LookbackWindow:     15 * time.Minute,
		LockoutDuration:    30 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
		CleanupInterval:    time.Hour,
	}

	lockoutService := services.NewLockoutService(userRepo, attemptRepo, auditRepo, nil, lockoutCfg, logger)

	tokenManager := auth.NewTokenManager(testJWTSecret, 15*time.Minute)
	auditLogger := pkglogger.NewAuditLogger(logger)

	adminHandler := handlers.NewAdminHandler(lockoutService, auditLogger, nil)
	loginEventHandler := handlers.NewLoginEventHandler(lockoutService)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	router.Use(chiMiddleware.Recoverer)
	routes.RegisterRoutes(router, adminHandler, loginEventHandler, tokenManager)

	return &TestServer{
		Server:       httptest.NewServer(router),
		TokenManager: tokenManager,
		Lockout:      lockoutService,
		logger:       logger,
	}
}

// Close shuts the HTTP server down
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// TokenFor issues a signed access token for the given user
func (ts *TestServer) TokenFor(user *models.User) (string, error) {
	return ts.TokenManager.GenerateAccessToken(user.ID, user.Email, user.Role)
}

// DoRequest performs an authenticated JSON request against the test server
func (ts *TestServer) DoRequest(method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return http.DefaultClient.Do(req)
}

// DecodeJSON decodes a response body into out and closes it
func DecodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// SkipIfNoDocker skips integration tests when Docker is unavailable
func SkipIfNoDocker() bool {
	return os.Getenv("SKIP_INTEGRATION_TESTS") == "true"
}
