package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"library-engine/internal/config"
	"library-engine/internal/domain/staff"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "library-engine"

// SessionClaims carries a staff session inside a bearer token. The subject is
// the account id.
type SessionClaims struct {
	Name string     `json:"name"`
	Role staff.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for the session that expires after cfg.TokenTTL.
func IssueToken(cfg config.AuthConfig, s staff.Session, now time.Time) (string, time.Time, error) {
	if cfg.JWTSecret == "" {
		return "", time.Time{}, errors.New("jwt secret is not configured")
	}
	expiresAt := now.Add(cfg.TokenTTL)
	claims := SessionClaims{
		Name: s.Name,
		Role: s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.AccountID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// AuthMiddleware validates the bearer token and stores its session in the
// request context. With auth disabled every request runs as a local admin.
func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		local := staff.Session{AccountID: "local", Name: "local", Role: staff.RoleAdmin}
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(rememberSession(r.Context(), local)))
			})
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := validateJWT(r, cfg.JWTSecret, logger)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(rememberSession(r.Context(), session)))
		})
	}
}

// RequireRole rejects requests whose session lacks role.
func RequireRole(role staff.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := staff.RequireRole(r.Context(), role); err != nil {
				session, _ := staff.SessionFrom(r.Context())
				logger.WarnContext(r.Context(), "AuthMiddleware: Role check failed", "accountID", session.AccountID, "required", role)
				if session.AccountID == "" {
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validateJWT(r *http.Request, secret string, logger *slog.Logger) (staff.Session, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Warn("AuthMiddleware: Missing Authorization header")
		return staff.Session{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		logger.Warn("AuthMiddleware: Invalid Authorization header format")
		return staff.Session{}, false
	}

	var claims SessionClaims
	token, err := jwt.ParseWithClaims(parts[1], &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Warn("AuthMiddleware: Unexpected signing method")
			return nil, http.ErrAbortHandler
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		logger.Warn("AuthMiddleware: Invalid token", "error", err)
		return staff.Session{}, false
	}

	role, err := staff.ParseRole(string(claims.Role))
	if err != nil || claims.Subject == "" {
		logger.Warn("AuthMiddleware: Token carries no usable session", "error", err)
		return staff.Session{}, false
	}

	logger.Debug("AuthMiddleware: Authenticated request", "accountID", claims.Subject, "role", role)
	return staff.Session{AccountID: claims.Subject, Name: claims.Name, Role: role}, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"message": message,
		},
	})
}
