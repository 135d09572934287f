package services

import (
	"context"
	"io"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/SscSPs/workshop_backend/internal/dto"
)

// LedgerReaderSvc defines read operations for the financial ledger.
type LedgerReaderSvc interface {
	GetTransaction(ctx context.Context, accountID, transactionID string) (*domain.FinancialTransaction, error)
	ListTransactions(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
	GetSummary(ctx context.Context, accountID string) (*domain.FinancialSummary, error)
	GetCashFlow(ctx context.Context, accountID string, from, to time.Time) ([]domain.DailyCashFlow, error)

	// ExportCashFlow writes the rollup between from and to as an XLSX workbook.
	ExportCashFlow(ctx context.Context, accountID string, from, to time.Time, w io.Writer) error
}

// LedgerWriterSvc defines write operations for the financial ledger.
type LedgerWriterSvc interface {
	// Post records a manual transaction and refreshes the daily rollup.
	Post(ctx context.Context, accountID string, req dto.CreateTransactionRequest) (*domain.FinancialTransaction, error)

	// Reverse creates the compensating row for an existing transaction.
	Reverse(ctx context.Context, accountID, transactionID string) (*domain.FinancialTransaction, error)

	// RecomputeDailyRollup rebuilds the rollup row for day and every later day.
	RecomputeDailyRollup(ctx context.Context, accountID string, day time.Time) error
}

// RevenuePosterSvc is the idempotent path used by the order workflow.
type RevenuePosterSvc interface {
	// PostOrderRevenue posts the order's value once. It returns nil, false when a
	// posting for the order already exists.
	PostOrderRevenue(ctx context.Context, order domain.Order) (*domain.FinancialTransaction, bool, error)
}

// FinanceSvcFacade combines all ledger-related service interfaces
type FinanceSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	RevenuePosterSvc
}

// CategorySvcFacade manages financial categories.
type CategorySvcFacade interface {
	CreateCategory(ctx context.Context, accountID string, req dto.CreateCategoryRequest) (*domain.FinancialCategory, error)
	ListCategories(ctx context.Context, accountID string) ([]domain.FinancialCategory, error)
	DeleteCategory(ctx context.Context, accountID, categoryID string) error
}
