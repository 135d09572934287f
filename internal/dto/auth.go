package dto

import (
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
)

// RegisterRequest defines the data needed to open a shop account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	ShopName string `json:"shopName" binding:"max=120"`
	Phone    string `json:"phone" binding:"max=30"`
}

// LoginRequest defines the credentials accepted by the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response for a successful login or registration.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   AccountResponse `json:"account"`
}

// AccountResponse is the public view of a shop account.
type AccountResponse struct {
	AccountID string    `json:"accountID"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ShopName  string    `json:"shopName"`
	Phone     string    `json:"phone"`
	PlanCode  string    `json:"planCode"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID: acc.AccountID,
		Name:      acc.Name,
		Email:     acc.Email,
		ShopName:  acc.ShopName,
		Phone:     acc.Phone,
		PlanCode:  acc.PlanCode,
		IsActive:  acc.IsActive,
		CreatedAt: acc.CreatedAt,
	}
}
