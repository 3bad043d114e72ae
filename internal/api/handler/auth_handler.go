package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"library-engine/internal/api/handler/dto"
	"library-engine/internal/api/middleware"
	"library-engine/internal/config"
	"library-engine/internal/domain/staff"
)

type Authenticator interface {
	Authenticate(ctx context.Context, id, password string) (staff.Session, error)
}

type AuthHandler struct {
	auth   Authenticator
	cfg    config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthHandler(auth Authenticator, cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		cfg:    cfg,
		logger: l.With("component", "AuthHandler"),
		now:    time.Now,
	}
}

// IssueToken exchanges staff credentials for a bearer token.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeValid(w, r, &req) {
		return
	}

	session, err := h.auth.Authenticate(r.Context(), req.ID, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, expiresAt, err := middleware.IssueToken(h.cfg, session, h.now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to issue token", "accountID", session.AccountID, "error", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Issued token", "accountID", session.AccountID, "role", session.Role)
	respondJSON(w, http.StatusOK, dto.TokenResponse{
		Token:     "Bearer " + token,
		ExpiresAt: expiresAt,
		Role:      string(session.Role),
	})
}
