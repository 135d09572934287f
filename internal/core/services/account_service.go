package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/utils"
	"github.com/google/uuid"
)

// TokenConfig carries the JWT settings used when issuing login tokens.
type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryWithTx
	tokens      TokenConfig
}

// NewAccountService creates the auth and profile service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryWithTx, tokens TokenConfig, options ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService: newBaseService(options...),
		accountRepo: accountRepo,
		tokens:      tokens,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *accountService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if len(req.Password) < utils.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", apperrors.ErrValidation, utils.MinPasswordLength)
	}

	if _, err := s.accountRepo.FindAccountByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s is already registered", apperrors.ErrDuplicate, email)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up email during registration")
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	accountID := uuid.NewString()
	account := domain.Account{
		AccountID:    accountID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		ShopName:     strings.TrimSpace(req.ShopName),
		Phone:        strings.TrimSpace(req.Phone),
		PlanCode:     domain.PlanFree,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     accountID,
			LastUpdatedAt: now,
			LastUpdatedBy: accountID,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save account", slog.String("email", email))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Account registered", slog.String("account_id", accountID))
	return s.issueToken(&account)
}

func (s *accountService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	account, err := s.accountRepo.FindAccountByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		s.LogError(ctx, err, "Failed to load account for login")
		return nil, err
	}
	if !utils.CheckPasswordHash(req.Password, account.PasswordHash) {
		s.LogDebug(ctx, "Password mismatch", slog.String("account_id", account.AccountID))
		return nil, errInvalidCredentials
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: subscription suspended, renew to log in", apperrors.ErrAccountInactive)
	}
	return s.issueToken(account)
}

func (s *accountService) issueToken(account *domain.Account) (*dto.LoginResponse, error) {
	token, expiresAt, err := utils.GenerateJWT(account.AccountID, s.tokens.Secret, s.tokens.Expiry, s.tokens.Issuer, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   dto.ToAccountResponse(account),
	}, nil
}

func (s *accountService) GetProfile(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load profile", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

type planService struct {
	BaseService
	planRepo portsrepo.PlanRepositoryFacade
}

// NewPlanService creates the plan catalog service.
func NewPlanService(planRepo portsrepo.PlanRepositoryFacade, options ...ServiceOption) portssvc.PlanSvcFacade {
	return &planService{BaseService: newBaseService(options...), planRepo: planRepo}
}

func (s *planService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	plans, err := s.planRepo.ListPlans(ctx, true)
	if err != nil {
		s.LogError(ctx, err, "Failed to list plans")
		return nil, err
	}
	return plans, nil
}

func (s *planService) GetPlan(ctx context.Context, planCode string) (*domain.Plan, error) {
	return s.planRepo.FindPlanByCode(ctx, strings.ToUpper(strings.TrimSpace(planCode)))
}
