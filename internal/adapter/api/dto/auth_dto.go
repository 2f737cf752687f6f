package dto

import (
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
)

// RegisterRequest representa os dados para criação de uma conta
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
	Plan     string `json:"plan"`
}

// LoginRequest representa os dados para login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest representa os dados para renovação de token
type RefreshTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// AccountResponse representa a resposta com dados de uma conta
type AccountResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	HasPaymentMethod bool      `json:"has_payment_method"`
	LastLoginAt      time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuthResponse representa a resposta de login ou registro bem-sucedido
type AuthResponse struct {
	Account     AccountResponse `json:"account"`
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// RefreshTokenResponse representa a resposta de renovação de token
type RefreshTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewAccountResponse cria um novo AccountResponse a partir de uma conta
func NewAccountResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:               acc.ID,
		Name:             acc.Name,
		Email:            acc.Email,
		Phone:            acc.Phone,
		Plan:             string(acc.Plan),
		Status:           string(acc.Status),
		HasPaymentMethod: acc.HasPaymentMethod(),
		LastLoginAt:      acc.LastLoginAt,
		CreatedAt:        acc.CreatedAt,
	}
}
