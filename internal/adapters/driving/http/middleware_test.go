package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"valid bearer token", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"extra whitespace", "Bearer   abc123  ", "abc123"},
		{"missing header", "", ""},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := extractBearerToken(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	auth := mocks.NewMockAuthAdapter()
	m := NewAuthMiddleware(auth)

	var seen *domain.AuthContext
	protected := m.Authenticate(m.RequireRole(domain.RoleEditor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAuthContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-token", http.StatusUnauthorized},
		{"viewer", auth.TokenFor("u1", domain.RoleViewer), http.StatusForbidden},
		{"editor", auth.TokenFor("u2", domain.RoleEditor), http.StatusOK},
		{"admin", auth.TokenFor("u3", domain.RoleAdmin), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusOK && seen == nil {
				t.Error("expected auth context in request")
			}
		})
	}
}

func TestRequireRole_NoAuthContext(t *testing.T) {
	m := NewAuthMiddleware(mocks.NewMockAuthAdapter())
	h := m.RequireRole(domain.RoleViewer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewRecoveryMiddleware(discardLogger()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestLoggingMiddlewareCapturesStatus(t *testing.T) {
	h := NewLoggingMiddleware(discardLogger()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := NewCORSMiddleware([]string{"https://docs.example.com"}).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/p/handbook", nil)
	req.Header.Set("Origin", "https://docs.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://docs.example.com" {
		t.Errorf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/p/handbook", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}
