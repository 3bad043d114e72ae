package dto

import (
	"fmt"
	"strings"
	"time"

	"library-engine/internal/domain/library"
	"library-engine/internal/domain/loan"
	"library-engine/internal/pkg/dates"
)

// BorrowRequest is used for both borrowing and returning.
type BorrowRequest struct {
	UserName string `json:"userName"`
	ItemID   string `json:"itemId"`
}

func (r *BorrowRequest) Validate() error {
	if strings.TrimSpace(r.UserName) == "" {
		return fmt.Errorf("userName is required")
	}
	if strings.TrimSpace(r.ItemID) == "" {
		return fmt.Errorf("itemId is required")
	}
	return nil
}

type LoanResponse struct {
	Kind       string `json:"kind"`
	UserName   string `json:"userName"`
	ItemID     string `json:"itemId"`
	Title      string `json:"title"`
	BorrowDate string `json:"borrowDate"`
	DueDate    string `json:"dueDate"`
	Status     string `json:"status"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	return LoanResponse{
		Kind:       l.Kind().String(),
		UserName:   l.User.Name,
		ItemID:     l.Item.ID,
		Title:      l.Item.Title,
		BorrowDate: dates.Format(l.BorrowDate),
		DueDate:    dates.Format(l.DueDate),
		Status:     string(l.Status()),
	}
}

func NewLoanListResponse(loans []*loan.Loan) []LoanResponse {
	resp := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, NewLoanResponse(l))
	}
	return resp
}

// OverdueLoanResponse adds the overdue figures as of the request day.
type OverdueLoanResponse struct {
	LoanResponse
	OverdueDays int    `json:"overdueDays"`
	AccruedFine string `json:"accruedFine"`
}

func NewOverdueListResponse(loans []*loan.Loan, asOf time.Time) []OverdueLoanResponse {
	resp := make([]OverdueLoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, OverdueLoanResponse{
			LoanResponse: NewLoanResponse(l),
			OverdueDays:  l.OverdueDays(asOf),
			AccruedFine:  l.CalculateFine(asOf).StringFixed(2),
		})
	}
	return resp
}

type ReturnResponse struct {
	Loan        LoanResponse `json:"loan"`
	OverdueDays int          `json:"overdueDays"`
	Fine        string       `json:"fine"`
}

func NewReturnResponse(r *library.Receipt) ReturnResponse {
	return ReturnResponse{
		Loan:        NewLoanResponse(r.Loan),
		OverdueDays: r.OverdueDays,
		Fine:        r.Fine.StringFixed(2),
	}
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dates.Format(*t)
	return &s
}
