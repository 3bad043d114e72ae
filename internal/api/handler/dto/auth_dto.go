package dto

import (
	"fmt"
	"strings"
	"time"
)

type TokenRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

func (r *TokenRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
}
