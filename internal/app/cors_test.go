package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsTarget() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSGuardAdmitsMissingOrigin(t *testing.T) {
	guard := NewCORSGuard([]string{"http://localhost:3000"}, nil)
	rec := httptest.NewRecorder()
	guard.Middleware(corsTarget()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/product/12345678", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSGuardAdmitsAllowListedOrigin(t *testing.T) {
	guard := NewCORSGuard([]string{"https://app.example/"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/product/12345678", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	guard.Middleware(corsTarget()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORSGuardRejectsUnknownOrigin(t *testing.T) {
	guard := NewCORSGuard([]string{"http://localhost:3000"}, nil)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/scan-history", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	guard.Middleware(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Not allowed by CORS"}`, rec.Body.String())
}

func TestCORSGuardAnswersPreflight(t *testing.T) {
	guard := NewCORSGuard([]string{"http://localhost:3000"}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/scan-history", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	guard.Middleware(corsTarget()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}
