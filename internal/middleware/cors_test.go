package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/match-results/backend/internal/middleware"
)

// okHandler always returns 200.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

const origin = "http://localhost:5173"

func newCORS() http.Handler {
	return middleware.NewCORSHandler([]string{origin})(okHandler)
}

func TestCORSHandler_AllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()

	newCORS().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

// TestCORSHandler_PreflightDelete covers DELETE /session from the browser,
// which always triggers a preflight.
func TestCORSHandler_PreflightDelete(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/session", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()

	newCORS().ServeHTTP(rec, req)

	assert.True(t, rec.Code == http.StatusNoContent || rec.Code == http.StatusOK,
		"expected 2xx for OPTIONS preflight, got %d", rec.Code)
	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

// TestCORSHandler_RejectsIdentityHeader checks that a page on an allowed
// origin cannot get the browser to send the identity header itself.
func TestCORSHandler_RejectsIdentityHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/results", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	// Browsers send requested header names in lowercase.
	req.Header.Set("Access-Control-Request-Headers", "x-user-id")
	rec := httptest.NewRecorder()

	newCORS().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotContains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "x-user-id")
}

func TestCORSHandler_DisallowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()

	newCORS().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
