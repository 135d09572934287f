package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FinanceReader defines read operations for ledger data.
type FinanceReader interface {
	// FindTransactionByID retrieves a transaction regardless of owner.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.FinancialTransaction, error)

	// ListTransactions returns a page ordered by effective date desc, created_at desc, id desc,
	// and a token for the next page when more rows exist. filter.From is inclusive and
	// filter.To exclusive.
	ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter) ([]domain.FinancialTransaction, *string, error)

	// ListCashFlow returns rollup rows with from <= date <= to, ascending.
	ListCashFlow(ctx context.Context, accountID string, from, to time.Time) ([]domain.DailyCashFlow, error)

	// GetSummary aggregates totals for the account; month totals cover [monthStart, monthEnd).
	GetSummary(ctx context.Context, accountID string, monthStart, monthEnd time.Time) (*domain.FinancialSummary, error)
}

// FinanceWriter defines write operations. Everything here runs inside the caller's tx.
type FinanceWriter interface {
	// LockAccountLedger serialises ledger writes of one account until tx ends.
	LockAccountLedger(ctx context.Context, tx pgx.Tx, accountID string) error

	// SaveTransaction inserts an immutable ledger row. A second non-reversal ORDER
	// posting for the same origin fails with apperrors.ErrDuplicate.
	SaveTransaction(ctx context.Context, tx pgx.Tx, txn domain.FinancialTransaction) error

	// FindTransactionForUpdate locks a ledger row.
	FindTransactionForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.FinancialTransaction, error)

	// IsReversed reports whether a reversal row pointing at transactionID exists.
	IsReversed(ctx context.Context, tx pgx.Tx, transactionID string) (bool, error)

	// HasOriginPosting reports whether a non-reversal row with the given origin exists.
	HasOriginPosting(ctx context.Context, tx pgx.Tx, accountID string, kind domain.OriginKind, originID string) (bool, error)

	// SumDay totals IN and OUT amounts with effective date on day.
	SumDay(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) (decimal.Decimal, decimal.Decimal, error)

	// FindPriorCashFlow returns the most recent rollup row strictly before day, or nil.
	FindPriorCashFlow(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) (*domain.DailyCashFlow, error)

	// ListCashFlowAfter returns rollup rows strictly after day, ascending, locked for update.
	ListCashFlowAfter(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) ([]domain.DailyCashFlow, error)

	// UpsertCashFlow inserts or replaces the rollup row for (account, date).
	UpsertCashFlow(ctx context.Context, tx pgx.Tx, row domain.DailyCashFlow) error
}

// CategoryRepositoryFacade holds the category catalog operations.
type CategoryRepositoryFacade interface {
	// FindCategoryByID retrieves a category.
	FindCategoryByID(ctx context.Context, categoryID string) (*domain.FinancialCategory, error)

	// ListCategories returns system categories plus the account's own, ordered by name.
	ListCategories(ctx context.Context, accountID string) ([]domain.FinancialCategory, error)

	// CategoryNameExists reports whether the account already owns a category named name (case-insensitive).
	CategoryNameExists(ctx context.Context, accountID, name string) (bool, error)

	// SaveCategory inserts an account-owned category.
	SaveCategory(ctx context.Context, category domain.FinancialCategory) error

	// DeleteCategory removes an account-owned category. Returns apperrors.ErrConflict while
	// transactions still reference it.
	DeleteCategory(ctx context.Context, categoryID string) error
}

// FinanceRepositoryFacade combines all ledger-related repository interfaces
type FinanceRepositoryFacade interface {
	FinanceReader
	FinanceWriter
	CategoryRepositoryFacade
}

// FinanceRepositoryWithTx extends FinanceRepositoryFacade with transaction capabilities
type FinanceRepositoryWithTx interface {
	FinanceRepositoryFacade
	TransactionManager
}
