package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

// AccountRepository is the memory implementation of the account port.
type AccountRepository struct {
	baseRepository
}

var _ portsrepo.AccountRepositoryWithTx = (*AccountRepository)(nil)

func (r *AccountRepository) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	var (
		acc domain.Account
		ok  bool
	)
	r.store.read(func(st *state) { acc, ok = st.accounts[accountID] })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &acc, nil
}

func (r *AccountRepository) FindAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var found *domain.Account
	r.store.read(func(st *state) {
		for _, acc := range st.accounts {
			if acc.Email == email {
				a := acc
				found = &a
				return
			}
		}
	})
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

func (r *AccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return r.store.autocommit(ctx, func(st *state) error {
		for _, existing := range st.accounts {
			if existing.Email == account.Email {
				return fmt.Errorf("%w: email %s is already registered", apperrors.ErrDuplicate, account.Email)
			}
		}
		if _, exists := st.accounts[account.AccountID]; exists {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
		}
		st.accounts[account.AccountID] = account
		return nil
	})
}

func (r *AccountRepository) FindAccountForUpdate(_ context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	var acc *domain.Account
	err := r.store.write(tx, func(st *state) error {
		a, ok := st.accounts[accountID]
		if !ok {
			return apperrors.ErrNotFound
		}
		acc = &a
		return nil
	})
	return acc, err
}

func (r *AccountRepository) UpdateAccountPlan(_ context.Context, tx pgx.Tx, accountID string, planCode string, isActive bool, updatedAt time.Time) error {
	return r.store.write(tx, func(st *state) error {
		acc, ok := st.accounts[accountID]
		if !ok {
			return apperrors.ErrNotFound
		}
		acc.PlanCode = planCode
		acc.IsActive = isActive
		acc.LastUpdatedAt = updatedAt
		acc.LastUpdatedBy = accountID
		st.accounts[accountID] = acc
		return nil
	})
}

func (r *AccountRepository) SetAccountActive(_ context.Context, tx pgx.Tx, accountID string, isActive bool, updatedAt time.Time) error {
	return r.store.write(tx, func(st *state) error {
		acc, ok := st.accounts[accountID]
		if !ok {
			return apperrors.ErrNotFound
		}
		acc.IsActive = isActive
		acc.LastUpdatedAt = updatedAt
		st.accounts[accountID] = acc
		return nil
	})
}

// PlanRepository serves the plan catalog seeded into the store.
type PlanRepository struct {
	store *Store
}

var _ portsrepo.PlanRepositoryFacade = (*PlanRepository)(nil)

func (r *PlanRepository) FindPlanByCode(_ context.Context, planCode string) (*domain.Plan, error) {
	var (
		p  domain.Plan
		ok bool
	)
	r.store.read(func(st *state) { p, ok = st.plans[strings.ToUpper(planCode)] })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (r *PlanRepository) ListPlans(_ context.Context, activeOnly bool) ([]domain.Plan, error) {
	var plans []domain.Plan
	r.store.read(func(st *state) {
		for _, p := range st.plans {
			if activeOnly && !p.IsActive {
				continue
			}
			plans = append(plans, p)
		}
	})
	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].Price.Equal(plans[j].Price) {
			return plans[i].Price.LessThan(plans[j].Price)
		}
		return plans[i].PlanCode < plans[j].PlanCode
	})
	return plans, nil
}
