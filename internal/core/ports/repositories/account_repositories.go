package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AccountReader defines read operations for shop accounts.
type AccountReader interface {
	// FindAccountByID retrieves an account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByEmail retrieves an account by its (lower-cased) email.
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// AccountWriter defines write operations for shop accounts.
type AccountWriter interface {
	// SaveAccount inserts a new account. Returns apperrors.ErrDuplicate when the email is taken.
	SaveAccount(ctx context.Context, account domain.Account) error

	// FindAccountForUpdate locks the account row within tx.
	FindAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error)

	// UpdateAccountPlan sets the plan code and active flag within tx.
	UpdateAccountPlan(ctx context.Context, tx pgx.Tx, accountID string, planCode string, isActive bool, updatedAt time.Time) error

	// SetAccountActive toggles the active flag within tx.
	SetAccountActive(ctx context.Context, tx pgx.Tx, accountID string, isActive bool, updatedAt time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}

// AccountRepositoryWithTx extends AccountRepositoryFacade with transaction capabilities
type AccountRepositoryWithTx interface {
	AccountRepositoryFacade
	TransactionManager
}
