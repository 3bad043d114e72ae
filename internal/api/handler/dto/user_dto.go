package dto

import (
	"fmt"
	"strings"

	"library-engine/internal/domain/member"

	"github.com/shopspring/decimal"
)

type RegisterUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *RegisterUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return fmt.Errorf("email %q is not an address", r.Email)
	}
	return nil
}

type PaymentRequest struct {
	Amount string `json:"amount"`
}

func (r *PaymentRequest) Validate() error {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid payment amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("payment amount must be greater than zero")
	}
	return nil
}

// Decimal is only meaningful after Validate succeeded.
func (r *PaymentRequest) Decimal() decimal.Decimal {
	return decimal.RequireFromString(r.Amount)
}

type HeldItemResponse struct {
	Kind    string  `json:"kind"`
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	DueDate *string `json:"dueDate,omitempty"`
}

type UserResponse struct {
	Name        string             `json:"name"`
	Email       string             `json:"email,omitempty"`
	FineBalance string             `json:"fineBalance"`
	Held        []HeldItemResponse `json:"held"`
}

func NewUserResponse(u *member.User) UserResponse {
	held := u.Held()
	resp := UserResponse{
		Name:        u.Name,
		Email:       u.Email,
		FineBalance: u.FineBalance().StringFixed(2),
		Held:        make([]HeldItemResponse, 0, len(held)),
	}
	for _, item := range held {
		resp.Held = append(resp.Held, HeldItemResponse{
			Kind:    item.Kind.String(),
			ID:      item.ID,
			Title:   item.Title,
			DueDate: optionalDate(item.DueDate()),
		})
	}
	return resp
}

func NewUserListResponse(users []*member.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, NewUserResponse(u))
	}
	return resp
}
