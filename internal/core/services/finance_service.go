package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/workshop_backend/internal/core/ports/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/SscSPs/workshop_backend/internal/reports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// financeService is the append-only ledger. Rows are never updated or deleted;
// corrections are reversals.
type financeService struct {
	BaseService
	financeRepo portsrepo.FinanceRepositoryWithTx
}

// NewFinanceService creates the financial ledger service.
func NewFinanceService(financeRepo portsrepo.FinanceRepositoryWithTx, options ...ServiceOption) portssvc.FinanceSvcFacade {
	return &financeService{
		BaseService: newBaseService(options...),
		financeRepo: financeRepo,
	}
}

var _ portssvc.FinanceSvcFacade = (*financeService)(nil)

func (s *financeService) Post(ctx context.Context, accountID string, req dto.CreateTransactionRequest) (*domain.FinancialTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrValidation)
	}
	if !req.Direction.IsValid() {
		return nil, fmt.Errorf("%w: direction must be IN or OUT", apperrors.ErrValidation)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.MethodCash
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment method %s", apperrors.ErrValidation, method)
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, accountID, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	effective := now
	if req.EffectiveDate != nil {
		effective = req.EffectiveDate.UTC()
	}

	txn := domain.FinancialTransaction{
		TransactionID: uuid.NewString(),
		AccountID:     accountID,
		Direction:     req.Direction,
		CategoryID:    req.CategoryID,
		Description:   description,
		Amount:        req.Amount,
		OriginKind:    domain.OriginManual,
		PaymentMethod: method,
		EffectiveDate: effective,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
		CreatedBy:     accountID,
	}

	err := s.inTx(ctx, s.financeRepo, func(tx pgx.Tx) error {
		if err := s.financeRepo.LockAccountLedger(ctx, tx, accountID); err != nil {
			return err
		}
		return s.postTx(ctx, tx, txn)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to post transaction", slog.String("account_id", accountID))
		return nil, err
	}

	s.LogInfo(ctx, "Transaction posted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("direction", string(txn.Direction)),
		slog.String("amount", txn.Amount.String()))
	return &txn, nil
}

// checkCategory accepts system categories and the account's own.
func (s *financeService) checkCategory(ctx context.Context, accountID, categoryID string) error {
	category, err := s.financeRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: category %s does not exist", apperrors.ErrValidation, categoryID)
		}
		return err
	}
	if !category.VisibleTo(accountID) {
		return fmt.Errorf("%w: category %s is not available to this account", apperrors.ErrValidation, categoryID)
	}
	return nil
}

// postTx appends txn and refreshes the rollup of its effective day. The caller
// holds the account ledger lock.
func (s *financeService) postTx(ctx context.Context, tx pgx.Tx, txn domain.FinancialTransaction) error {
	if err := s.financeRepo.SaveTransaction(ctx, tx, txn); err != nil {
		return err
	}
	return s.recomputeTx(ctx, tx, txn.AccountID, txn.EffectiveDate)
}

func (s *financeService) PostOrderRevenue(ctx context.Context, order domain.Order) (*domain.FinancialTransaction, bool, error) {
	if !order.Value.IsPositive() {
		return nil, false, fmt.Errorf("%w: order %s has no value to post", apperrors.ErrValidation, order.OrderID)
	}

	now := s.now()
	orderID := order.OrderID
	categoryID := domain.OrderServiceCategoryID
	txn := domain.FinancialTransaction{
		TransactionID: uuid.NewString(),
		AccountID:     order.AccountID,
		Direction:     domain.DirectionIn,
		CategoryID:    &categoryID,
		Description:   fmt.Sprintf("Order #%s - %s (%s)", orderID, order.CustomerName, order.Plate),
		Amount:        order.Value,
		OriginKind:    domain.OriginOrder,
		OriginID:      &orderID,
		PaymentMethod: domain.MethodCash,
		EffectiveDate: now,
		CreatedAt:     now,
		CreatedBy:     order.AccountID,
	}

	posted := false
	err := s.inTx(ctx, s.financeRepo, func(tx pgx.Tx) error {
		if err := s.financeRepo.LockAccountLedger(ctx, tx, order.AccountID); err != nil {
			return err
		}
		exists, err := s.financeRepo.HasOriginPosting(ctx, tx, order.AccountID, domain.OriginOrder, orderID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := s.postTx(ctx, tx, txn); err != nil {
			return err
		}
		posted = true
		return nil
	})
	if errors.Is(err, apperrors.ErrDuplicate) {
		err = nil
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to post order revenue", slog.String("order_id", orderID))
		return nil, false, err
	}
	if !posted {
		s.LogDebug(ctx, "Order revenue already posted", slog.String("order_id", orderID))
		return nil, false, nil
	}

	s.LogInfo(ctx, "Order revenue posted", slog.String("order_id", orderID), slog.String("transaction_id", txn.TransactionID))
	return &txn, true, nil
}

func (s *financeService) Reverse(ctx context.Context, accountID, transactionID string) (*domain.FinancialTransaction, error) {
	var reversal domain.FinancialTransaction
	err := s.inTx(ctx, s.financeRepo, func(tx pgx.Tx) error {
		if err := s.financeRepo.LockAccountLedger(ctx, tx, accountID); err != nil {
			return err
		}
		original, err := s.financeRepo.FindTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if original.AccountID != accountID {
			return apperrors.ErrNotFound
		}
		if original.IsReversal {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrCannotReverseReversal, transactionID)
		}
		reversed, err := s.financeRepo.IsReversed(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if reversed {
			return fmt.Errorf("%w: transaction %s has already been reversed", apperrors.ErrConflict, transactionID)
		}

		now := s.now()
		originalID := original.TransactionID
		reversal = domain.FinancialTransaction{
			TransactionID:         uuid.NewString(),
			AccountID:             accountID,
			Direction:             original.Direction.Opposite(),
			CategoryID:            original.CategoryID,
			Description:           "REVERSAL: " + original.Description,
			Amount:                original.Amount,
			OriginKind:            domain.OriginReversal,
			OriginID:              &originalID,
			PaymentMethod:         original.PaymentMethod,
			EffectiveDate:         now,
			IsReversal:            true,
			ReversedTransactionID: &originalID,
			CreatedAt:             now,
			CreatedBy:             accountID,
		}
		return s.postTx(ctx, tx, reversal)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrConflict) &&
			!errors.Is(err, apperrors.ErrCannotReverseReversal) {
			s.LogError(ctx, err, "Failed to reverse transaction", slog.String("transaction_id", transactionID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Transaction reversed",
		slog.String("transaction_id", transactionID),
		slog.String("reversal_id", reversal.TransactionID))
	return &reversal, nil
}

func (s *financeService) RecomputeDailyRollup(ctx context.Context, accountID string, day time.Time) error {
	return s.inTx(ctx, s.financeRepo, func(tx pgx.Tx) error {
		if err := s.financeRepo.LockAccountLedger(ctx, tx, accountID); err != nil {
			return err
		}
		return s.recomputeTx(ctx, tx, accountID, day)
	})
}

// recomputeTx rebuilds the rollup row of day from the ledger, then carries the
// running balance forward through every later row.
func (s *financeService) recomputeTx(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) error {
	day = domain.DateOf(day)
	totalIn, totalOut, err := s.financeRepo.SumDay(ctx, tx, accountID, day)
	if err != nil {
		return err
	}
	prior, err := s.financeRepo.FindPriorCashFlow(ctx, tx, accountID, day)
	if err != nil {
		return err
	}
	running := decimal.Zero
	if prior != nil {
		running = prior.RunningBalance
	}

	now := s.now()
	daily := totalIn.Sub(totalOut)
	running = running.Add(daily)
	row := domain.DailyCashFlow{
		AccountID:      accountID,
		Date:           day,
		TotalIn:        totalIn,
		TotalOut:       totalOut,
		DailyBalance:   daily,
		RunningBalance: running,
		UpdatedAt:      now,
	}
	if err := s.financeRepo.UpsertCashFlow(ctx, tx, row); err != nil {
		return err
	}

	later, err := s.financeRepo.ListCashFlowAfter(ctx, tx, accountID, day)
	if err != nil {
		return err
	}
	for _, next := range later {
		running = running.Add(next.DailyBalance)
		if next.RunningBalance.Equal(running) {
			continue
		}
		next.RunningBalance = running
		next.UpdatedAt = now
		if err := s.financeRepo.UpsertCashFlow(ctx, tx, next); err != nil {
			return err
		}
	}
	return nil
}

func (s *financeService) GetTransaction(ctx context.Context, accountID, transactionID string) (*domain.FinancialTransaction, error) {
	txn, err := s.financeRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.AccountID != accountID {
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

func parseDay(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be formatted YYYY-MM-DD", apperrors.ErrValidation, field)
	}
	return &t, nil
}

func (s *financeService) ListTransactions(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	from, err := parseDay(params.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := parseDay(params.To, "to")
	if err != nil {
		return nil, err
	}
	if to != nil {
		// the query bound is exclusive, the parameter is not
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}

	filter := domain.TransactionFilter{From: from, To: to, Limit: params.Limit, NextToken: params.NextToken}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if params.Direction != "" {
		d := domain.Direction(params.Direction)
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: direction must be IN or OUT", apperrors.ErrValidation)
		}
		filter.Direction = &d
	}

	txns, nextToken, err := s.financeRepo.ListTransactions(ctx, accountID, filter)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list transactions")
		}
		return nil, err
	}

	s.LogDebug(ctx, "Transactions listed", slog.Int("count", len(txns)))
	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

func (s *financeService) GetSummary(ctx context.Context, accountID string) (*domain.FinancialSummary, error) {
	monthStart, monthEnd := domain.MonthBounds(s.now())
	summary, err := s.financeRepo.GetSummary(ctx, accountID, monthStart, monthEnd)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute summary")
		return nil, err
	}
	return summary, nil
}

func (s *financeService) GetCashFlow(ctx context.Context, accountID string, from, to time.Time) ([]domain.DailyCashFlow, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: from must not be after to", apperrors.ErrValidation)
	}
	return s.financeRepo.ListCashFlow(ctx, accountID, from, to)
}

func (s *financeService) ExportCashFlow(ctx context.Context, accountID string, from, to time.Time, w io.Writer) error {
	rows, err := s.GetCashFlow(ctx, accountID, from, to)
	if err != nil {
		return err
	}
	if err := reports.WriteCashFlow(w, rows); err != nil {
		s.LogError(ctx, err, "Failed to render cash flow workbook")
		return fmt.Errorf("failed to render cash flow export: %w", err)
	}
	return nil
}

type categoryService struct {
	BaseService
	financeRepo portsrepo.FinanceRepositoryWithTx
}

// NewCategoryService creates the financial category service.
func NewCategoryService(financeRepo portsrepo.FinanceRepositoryWithTx, options ...ServiceOption) portssvc.CategorySvcFacade {
	return &categoryService{BaseService: newBaseService(options...), financeRepo: financeRepo}
}

func (s *categoryService) CreateCategory(ctx context.Context, accountID string, req dto.CreateCategoryRequest) (*domain.FinancialCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", apperrors.ErrValidation)
	}
	if !req.Direction.IsValid() {
		return nil, fmt.Errorf("%w: direction must be IN or OUT", apperrors.ErrValidation)
	}
	exists, err := s.financeRepo.CategoryNameExists(ctx, accountID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: category %s already exists", apperrors.ErrDuplicate, name)
	}

	owner := accountID
	category := domain.FinancialCategory{
		CategoryID:     uuid.NewString(),
		OwnerAccountID: &owner,
		Name:           name,
		Direction:      req.Direction,
		CreatedAt:      s.now(),
	}
	if err := s.financeRepo.SaveCategory(ctx, category); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save category")
		}
		return nil, err
	}
	s.LogInfo(ctx, "Category created", slog.String("category_id", category.CategoryID))
	return &category, nil
}

func (s *categoryService) ListCategories(ctx context.Context, accountID string) ([]domain.FinancialCategory, error) {
	return s.financeRepo.ListCategories(ctx, accountID)
}

func (s *categoryService) DeleteCategory(ctx context.Context, accountID, categoryID string) error {
	category, err := s.financeRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if category.IsSystem() {
		return fmt.Errorf("%w: system categories cannot be deleted", apperrors.ErrForbidden)
	}
	if *category.OwnerAccountID != accountID {
		return fmt.Errorf("%w: category belongs to another account", apperrors.ErrForbidden)
	}
	if err := s.financeRepo.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	s.LogInfo(ctx, "Category deleted", slog.String("category_id", categoryID))
	return nil
}
