package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"library-engine/internal/api/handler/dto"
	"library-engine/internal/domain/library"
	"library-engine/internal/domain/loan"
	"library-engine/internal/pkg/apperrors"
)

type LoanHandler struct {
	service library.Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewLoanHandler(s library.Service, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
		now:     time.Now,
	}
}

type borrowFunc func(ctx context.Context, userName, id string) (*loan.Loan, error)

type returnFunc func(ctx context.Context, userName, id string) (*library.Receipt, error)

func (h *LoanHandler) BorrowBook(w http.ResponseWriter, r *http.Request) {
	h.borrow(w, r, h.service.BorrowBook)
}

func (h *LoanHandler) BorrowCD(w http.ResponseWriter, r *http.Request) {
	h.borrow(w, r, h.service.BorrowCD)
}

func (h *LoanHandler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	h.giveBack(w, r, h.service.ReturnBook)
}

func (h *LoanHandler) ReturnCD(w http.ResponseWriter, r *http.Request) {
	h.giveBack(w, r, h.service.ReturnCD)
}

func (h *LoanHandler) borrow(w http.ResponseWriter, r *http.Request, fn borrowFunc) {
	var req dto.BorrowRequest
	if !decodeValid(w, r, &req) {
		return
	}

	l, err := fn(r.Context(), req.UserName, req.ItemID)
	if err != nil {
		h.logger.InfoContext(r.Context(), "Borrow rejected", "user", req.UserName, "itemID", req.ItemID, "error", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(l))
}

func (h *LoanHandler) giveBack(w http.ResponseWriter, r *http.Request, fn returnFunc) {
	var req dto.BorrowRequest
	if !decodeValid(w, r, &req) {
		return
	}

	receipt, err := fn(r.Context(), req.UserName, req.ItemID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewReturnResponse(receipt))
}

// ListOverdue returns overdue loans, optionally narrowed with ?kind=book or
// ?kind=cd.
func (h *LoanHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	var overdue []*loan.Loan
	switch kind := r.URL.Query().Get("kind"); kind {
	case "":
		overdue = h.service.AllOverdueLoans(r.Context())
	case "book":
		overdue = h.service.OverdueLoans(r.Context())
	case "cd":
		overdue = h.service.OverdueCDLoans(r.Context())
	default:
		respondError(w, fmt.Errorf("%w: unknown kind %q", apperrors.ErrInvalidArgument, kind))
		return
	}
	respondJSON(w, http.StatusOK, dto.NewOverdueListResponse(overdue, h.now()))
}
