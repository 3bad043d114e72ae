package handler

import (
	"log/slog"
	"net/http"

	"library-engine/internal/api/handler/dto"
	"library-engine/internal/domain/library"
)

type UserHandler struct {
	service library.Service
	logger  *slog.Logger
}

func NewUserHandler(s library.Service, l *slog.Logger) *UserHandler {
	return &UserHandler{
		service: s,
		logger:  l.With("component", "UserHandler"),
	}
}

func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterUserRequest
	if !decodeValid(w, r, &req) {
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Name, req.Email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewUserResponse(u))
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.NewUserListResponse(h.service.Users(r.Context())))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		respondError(w, err)
		return
	}
	u, err := h.service.User(r.Context(), name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// UnregisterUser removes a user with no open loans and no balance. Admin only.
func (h *UserHandler) UnregisterUser(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.service.UnregisterUser(r.Context(), name); err != nil {
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "User unregistered", "user", name)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) PayFine(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.PaymentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	u, err := h.service.PayFine(r.Context(), name, req.Decimal())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewUserResponse(u))
}

// ListLoans returns every loan the user has taken, books first.
func (h *UserHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		respondError(w, err)
		return
	}
	loans, err := h.service.LoansFor(r.Context(), name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}
