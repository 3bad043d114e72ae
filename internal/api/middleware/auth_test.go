package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-engine/internal/config"
	"library-engine/internal/domain/staff"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthMiddleware(t *testing.T) {
	const statusErrorMsg = "expected status %d, got %d"

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	secret := "testsecret"

	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: secret,
		TokenTTL:  time.Hour,
	}

	var seen staff.Session
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = staff.SessionFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("should run as local admin when middleware is disabled", func(t *testing.T) {
		disabled := cfg
		disabled.Enabled = false
		middleware := AuthMiddleware(disabled, logger)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		middleware(nextHandler).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf(statusErrorMsg, http.StatusOK, rec.Code)
		}
		if seen.Role != staff.RoleAdmin {
			t.Errorf("expected admin session, got %+v", seen)
		}
	})

	t.Run("should reject request with missing Authorization header", func(t *testing.T) {
		middleware := AuthMiddleware(cfg, logger)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		middleware(nextHandler).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf(statusErrorMsg, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("should reject request with invalid token", func(t *testing.T) {
		middleware := AuthMiddleware(cfg, logger)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer invalidtoken")
		rec := httptest.NewRecorder()

		middleware(nextHandler).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf(statusErrorMsg, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("should reject token without session claims", func(t *testing.T) {
		middleware := AuthMiddleware(cfg, logger)

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1234567890",
			"iss": tokenIssuer,
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		tokenString, err := token.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()

		middleware(nextHandler).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf(statusErrorMsg, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("should reject expired token", func(t *testing.T) {
		middleware := AuthMiddleware(cfg, logger)

		tokenString, _, err := IssueToken(cfg, staff.Session{AccountID: "L1", Role: staff.RoleLibrarian}, time.Now().Add(-2*time.Hour))
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()

		middleware(nextHandler).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf(statusErrorMsg, http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("should put session from a valid token in the context", func(t *testing.T) {
		middleware := AuthMiddleware(cfg, logger)

		tokenString, expiresAt, err := IssueToken(cfg, staff.Session{AccountID: "L1", Name: "Lib", Role: staff.RoleLibrarian}, time.Now())
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}
		if time.Until(expiresAt) <= 0 {
			t.Errorf("expected expiry in the future, got %v", expiresAt)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()

		middleware(nextHandler).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf(statusErrorMsg, http.StatusOK, rec.Code)
		}
		want := staff.Session{AccountID: "L1", Name: "Lib", Role: staff.RoleLibrarian}
		if seen != want {
			t.Errorf("expected session %+v, got %+v", want, seen)
		}
	})
}

func TestIssueToken_RequiresSecret(t *testing.T) {
	_, _, err := IssueToken(config.AuthConfig{TokenTTL: time.Hour}, staff.Session{AccountID: "A1", Role: staff.RoleAdmin}, time.Now())
	if err == nil {
		t.Error("expected an error without a secret")
	}
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(staff.RoleAdmin, logger)(next)

	tests := []struct {
		name    string
		session *staff.Session
		want    int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"librarian", &staff.Session{AccountID: "L1", Role: staff.RoleLibrarian}, http.StatusForbidden},
		{"admin", &staff.Session{AccountID: "A1", Role: staff.RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/books", nil)
			if tt.session != nil {
				req = req.WithContext(staff.WithSession(req.Context(), *tt.session))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
