package services

import (
	"context"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/dto"
)

// AuthSvc issues credentials for shop accounts.
type AuthSvc interface {
	// Register opens an active account on the FREE plan and logs it in.
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.LoginResponse, error)

	// Login verifies credentials and issues a JWT. Inactive accounts are rejected.
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

// AccountReaderSvc defines read operations for accounts.
type AccountReaderSvc interface {
	// GetProfile returns the account behind the authenticated subject.
	GetProfile(ctx context.Context, accountID string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AuthSvc
	AccountReaderSvc
}

// PlanSvcFacade exposes the plan catalog.
type PlanSvcFacade interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	GetPlan(ctx context.Context, planCode string) (*domain.Plan, error)
}
