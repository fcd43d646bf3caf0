package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/legalease/legalease-admin/internal/middleware"
	"github.com/stretchr/testify/assert"
)

func runWithHeaders(env string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	handler := middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: env})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest("GET", "/health", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_AlwaysSet(t *testing.T) {
	w := runWithHeaders("development", nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestSecurityHeaders_NoHSTSInDevelopment(t *testing.T) {
	w := runWithHeaders("development", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})

	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_HSTSInProductionOverHTTPS(t *testing.T) {
	w := runWithHeaders("production", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})

	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestSecurityHeaders_NoHSTSInProductionOverHTTP(t *testing.T) {
	w := runWithHeaders("production", nil)

	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
