package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/SscSPs/workshop_backend/internal/core/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryWithTx = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) FindAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountPlan(ctx context.Context, tx pgx.Tx, accountID string, planCode string, isActive bool, updatedAt time.Time) error {
	return m.Called(ctx, tx, accountID, planCode, isActive, updatedAt).Error(0)
}

func (m *MockAccountRepository) SetAccountActive(ctx context.Context, tx pgx.Tx, accountID string, isActive bool, updatedAt time.Time) error {
	return m.Called(ctx, tx, accountID, isActive, updatedAt).Error(0)
}

func (m *MockAccountRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockAccountRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockAccountRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

var testTokens = services.TokenConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "workshop-test"}

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.mockRepo = new(MockAccountRepository)
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) TestRegister_Success() {
	ctx := context.Background()
	svc := services.NewAccountService(s.mockRepo, testTokens)

	s.mockRepo.On("FindAccountByEmail", ctx, "owner@garage.test").Return(nil, apperrors.ErrNotFound).Once()
	s.mockRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Email == "owner@garage.test" && a.PlanCode == domain.PlanFree && a.IsActive &&
			utils.CheckPasswordHash("secret123", a.PasswordHash)
	})).Return(nil).Once()

	res, err := svc.Register(ctx, dto.RegisterRequest{Name: "Owner", Email: "  Owner@Garage.TEST ", Password: "secret123"})

	s.Require().NoError(err)
	s.NotEmpty(res.Token)
	s.Equal("owner@garage.test", res.Account.Email)
	s.Equal(domain.PlanFree, res.Account.PlanCode)

	claims, err := utils.ParseAndValidateJWT(res.Token, testTokens.Secret)
	s.Require().NoError(err)
	s.Equal(res.Account.AccountID, claims.Subject)
	s.mockRepo.AssertExpectations(s.T())
}

func (s *AccountServiceTestSuite) TestRegister_DuplicateEmail() {
	ctx := context.Background()
	svc := services.NewAccountService(s.mockRepo, testTokens)

	s.mockRepo.On("FindAccountByEmail", ctx, "owner@garage.test").Return(&domain.Account{AccountID: "a1"}, nil).Once()

	_, err := svc.Register(ctx, dto.RegisterRequest{Name: "Owner", Email: "owner@garage.test", Password: "secret123"})

	s.ErrorIs(err, apperrors.ErrDuplicate)
	s.mockRepo.AssertNotCalled(s.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (s *AccountServiceTestSuite) TestRegister_ShortPassword() {
	svc := services.NewAccountService(s.mockRepo, testTokens)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{Name: "Owner", Email: "owner@garage.test", Password: "123"})

	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockRepo.AssertNotCalled(s.T(), "FindAccountByEmail", mock.Anything, mock.Anything)
}

func (s *AccountServiceTestSuite) TestLogin() {
	ctx := context.Background()
	hash, err := utils.HashPassword("secret123")
	s.Require().NoError(err)
	active := &domain.Account{AccountID: "a1", Email: "owner@garage.test", PasswordHash: hash, PlanCode: domain.PlanFree, IsActive: true}
	suspended := &domain.Account{AccountID: "a2", Email: "late@garage.test", PasswordHash: hash, IsActive: false}

	s.mockRepo.On("FindAccountByEmail", ctx, "owner@garage.test").Return(active, nil)
	s.mockRepo.On("FindAccountByEmail", ctx, "late@garage.test").Return(suspended, nil)
	s.mockRepo.On("FindAccountByEmail", ctx, "nobody@garage.test").Return(nil, apperrors.ErrNotFound)
	svc := services.NewAccountService(s.mockRepo, testTokens)

	tests := []struct {
		name    string
		req     dto.LoginRequest
		wantErr error
	}{
		{name: "valid credentials", req: dto.LoginRequest{Email: "owner@garage.test", Password: "secret123"}},
		{name: "wrong password", req: dto.LoginRequest{Email: "owner@garage.test", Password: "nope"}, wantErr: apperrors.ErrUnauthorized},
		{name: "unknown email", req: dto.LoginRequest{Email: "nobody@garage.test", Password: "secret123"}, wantErr: apperrors.ErrUnauthorized},
		{name: "suspended account", req: dto.LoginRequest{Email: "late@garage.test", Password: "secret123"}, wantErr: apperrors.ErrAccountInactive},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res, err := svc.Login(ctx, tt.req)
			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				s.Nil(res)
				return
			}
			s.Require().NoError(err)
			s.Equal("a1", res.Account.AccountID)
		})
	}
}

func (s *AccountServiceTestSuite) TestGetProfile_RepositoryError() {
	ctx := context.Background()
	dbErr := errors.New("connection reset")
	s.mockRepo.On("FindAccountByID", ctx, "a1").Return(nil, dbErr).Once()

	_, err := services.NewAccountService(s.mockRepo, testTokens).GetProfile(ctx, "a1")

	s.ErrorIs(err, dbErr)
}

func TestPlanService(t *testing.T) {
	ctx := context.Background()
	repos := newMemoryRepos()
	svc := services.NewPlanService(repos.PlanRepo)

	plans, err := svc.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, len(domain.DefaultPlans()))

	plan, err := svc.GetPlan(ctx, " pro_plus ")
	require.NoError(t, err)
	assert.Equal(t, 200, plan.MonthlyOrderQuota)

	_, err = svc.GetPlan(ctx, "GOLD")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
