package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/SscSPs/workshop_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxFinanceRepository struct {
	BaseRepository
}

const (
	uxOrderOrigin = "ux_financial_transactions_order_origin"
	uxReversed    = "ux_financial_transactions_reversed"
)

func newPgxFinanceRepository(pool *pgxpool.Pool) portsrepo.FinanceRepositoryWithTx {
	return &PgxFinanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FinanceRepositoryWithTx = (*PgxFinanceRepository)(nil)

const transactionColumns = `transaction_id, account_id, direction, category_id, description, amount, origin_kind,
	origin_id, payment_method, effective_date, notes, is_reversal, reversed_transaction_id, created_at, created_by`

func scanTransaction(row pgx.Row) (*domain.FinancialTransaction, error) {
	var t domain.FinancialTransaction
	err := row.Scan(
		&t.TransactionID, &t.AccountID, &t.Direction, &t.CategoryID, &t.Description, &t.Amount, &t.OriginKind,
		&t.OriginID, &t.PaymentMethod, &t.EffectiveDate, &t.Notes, &t.IsReversal, &t.ReversedTransactionID,
		&t.CreatedAt, &t.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const cashFlowColumns = `account_id, flow_date, total_in, total_out, daily_balance, running_balance, updated_at`

func scanCashFlow(row pgx.Row) (*domain.DailyCashFlow, error) {
	var c domain.DailyCashFlow
	if err := row.Scan(&c.AccountID, &c.Date, &c.TotalIn, &c.TotalOut, &c.DailyBalance, &c.RunningBalance, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCashFlow(rows pgx.Rows) ([]domain.DailyCashFlow, error) {
	defer rows.Close()
	out := []domain.DailyCashFlow{}
	for rows.Next() {
		c, err := scanCashFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash flow row: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *PgxFinanceRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.FinancialTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM financial_transactions WHERE transaction_id = $1;`
	t, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return t, nil
}

func (r *PgxFinanceRepository) ListTransactions(ctx context.Context, accountID string, filter domain.TransactionFilter) ([]domain.FinancialTransaction, *string, error) {
	var (
		afterDate, afterCreated *time.Time
		afterID                 *string
	)
	if filter.NextToken != nil && *filter.NextToken != "" {
		c, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		afterDate, afterCreated, afterID = &c.EffectiveDate, &c.CreatedAt, &c.ID
	}
	var direction *string
	if filter.Direction != nil {
		d := string(*filter.Direction)
		direction = &d
	}

	query := `SELECT ` + transactionColumns + ` FROM financial_transactions
		WHERE account_id = $1
		  AND ($2::timestamptz IS NULL OR effective_date >= $2)
		  AND ($3::timestamptz IS NULL OR effective_date < $3)
		  AND ($4::text IS NULL OR direction = $4)
		  AND ($5::timestamptz IS NULL OR (effective_date, created_at, transaction_id) < ($5, $6::timestamptz, $7::uuid))
		ORDER BY effective_date DESC, created_at DESC, transaction_id DESC
		LIMIT $8;`
	rows, err := r.Pool.Query(ctx, query, accountID, filter.From, filter.To, direction,
		afterDate, afterCreated, afterID, filter.Limit+1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.FinancialTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *string
	if len(txns) > filter.Limit {
		txns = txns[:filter.Limit]
		last := txns[len(txns)-1]
		token := pagination.EncodeToken(pagination.Cursor{EffectiveDate: last.EffectiveDate, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		next = &token
	}
	return txns, next, nil
}

func (r *PgxFinanceRepository) ListCashFlow(ctx context.Context, accountID string, from, to time.Time) ([]domain.DailyCashFlow, error) {
	query := `SELECT ` + cashFlowColumns + ` FROM daily_cash_flow
		WHERE account_id = $1 AND flow_date BETWEEN $2::date AND $3::date
		ORDER BY flow_date;`
	rows, err := r.Pool.Query(ctx, query, accountID, domain.DateOf(from), domain.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list cash flow: %w", err)
	}
	return collectCashFlow(rows)
}

func (r *PgxFinanceRepository) GetSummary(ctx context.Context, accountID string, monthStart, monthEnd time.Time) (*domain.FinancialSummary, error) {
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE direction = 'IN'), 0),
		COALESCE(SUM(amount) FILTER (WHERE direction = 'OUT'), 0),
		COALESCE(SUM(amount) FILTER (WHERE direction = 'IN' AND effective_date >= $2 AND effective_date < $3), 0),
		COALESCE(SUM(amount) FILTER (WHERE direction = 'OUT' AND effective_date >= $2 AND effective_date < $3), 0),
		COUNT(*) FILTER (WHERE effective_date >= $2 AND effective_date < $3),
		COUNT(*) FILTER (WHERE category_id IS NULL)
		FROM financial_transactions WHERE account_id = $1;`
	s := &domain.FinancialSummary{}
	err := r.Pool.QueryRow(ctx, query, accountID, monthStart, monthEnd).Scan(
		&s.TotalIn, &s.TotalOut, &s.MonthIn, &s.MonthOut, &s.TxCountMonth, &s.TxWithoutCategoryCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute financial summary: %w", err)
	}
	s.Profit = s.TotalIn.Sub(s.TotalOut)
	s.MonthProfit = s.MonthIn.Sub(s.MonthOut)
	s.CurrentBalance = s.Profit
	return s, nil
}

func (r *PgxFinanceRepository) LockAccountLedger(ctx context.Context, tx pgx.Tx, accountID string) error {
	if _, err := r.conn(tx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('ledger:' || $1));`, accountID); err != nil {
		return fmt.Errorf("failed to lock account ledger: %w", err)
	}
	return nil
}

func (r *PgxFinanceRepository) SaveTransaction(ctx context.Context, tx pgx.Tx, t domain.FinancialTransaction) error {
	query := `INSERT INTO financial_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`
	_, err := r.conn(tx).Exec(ctx, query,
		t.TransactionID, t.AccountID, t.Direction, t.CategoryID, t.Description, t.Amount, t.OriginKind,
		t.OriginID, t.PaymentMethod, t.EffectiveDate, t.Notes, t.IsReversal, t.ReversedTransactionID,
		t.CreatedAt, t.CreatedBy,
	)
	if err != nil {
		switch uniqueViolation(err) {
		case uxOrderOrigin:
			return fmt.Errorf("%w: order revenue already posted", apperrors.ErrDuplicate)
		case uxReversed:
			return fmt.Errorf("%w: transaction already reversed", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (r *PgxFinanceRepository) FindTransactionForUpdate(ctx context.Context, tx pgx.Tx, transactionID string) (*domain.FinancialTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM financial_transactions WHERE transaction_id = $1 FOR UPDATE;`
	t, err := scanTransaction(r.conn(tx).QueryRow(ctx, query, transactionID))
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return t, nil
}

func (r *PgxFinanceRepository) IsReversed(ctx context.Context, tx pgx.Tx, transactionID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM financial_transactions WHERE reversed_transaction_id = $1);`
	var reversed bool
	if err := r.conn(tx).QueryRow(ctx, query, transactionID).Scan(&reversed); err != nil {
		return false, fmt.Errorf("failed to check reversal: %w", err)
	}
	return reversed, nil
}

func (r *PgxFinanceRepository) HasOriginPosting(ctx context.Context, tx pgx.Tx, accountID string, kind domain.OriginKind, originID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM financial_transactions
		WHERE account_id = $1 AND origin_kind = $2 AND origin_id = $3 AND is_reversal = FALSE
	);`
	var exists bool
	if err := r.conn(tx).QueryRow(ctx, query, accountID, kind, originID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check origin posting: %w", err)
	}
	return exists, nil
}

func (r *PgxFinanceRepository) SumDay(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) (decimal.Decimal, decimal.Decimal, error) {
	start := domain.DateOf(day)
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE direction = 'IN'), 0),
		COALESCE(SUM(amount) FILTER (WHERE direction = 'OUT'), 0)
		FROM financial_transactions
		WHERE account_id = $1 AND effective_date >= $2 AND effective_date < $3;`
	var totalIn, totalOut decimal.Decimal
	if err := r.conn(tx).QueryRow(ctx, query, accountID, start, start.AddDate(0, 0, 1)).Scan(&totalIn, &totalOut); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum day: %w", err)
	}
	return totalIn, totalOut, nil
}

func (r *PgxFinanceRepository) FindPriorCashFlow(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) (*domain.DailyCashFlow, error) {
	query := `SELECT ` + cashFlowColumns + ` FROM daily_cash_flow
		WHERE account_id = $1 AND flow_date < $2::date
		ORDER BY flow_date DESC LIMIT 1;`
	c, err := scanCashFlow(r.conn(tx).QueryRow(ctx, query, accountID, domain.DateOf(day)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load prior cash flow: %w", err)
	}
	return c, nil
}

func (r *PgxFinanceRepository) ListCashFlowAfter(ctx context.Context, tx pgx.Tx, accountID string, day time.Time) ([]domain.DailyCashFlow, error) {
	query := `SELECT ` + cashFlowColumns + ` FROM daily_cash_flow
		WHERE account_id = $1 AND flow_date > $2::date
		ORDER BY flow_date
		FOR UPDATE;`
	rows, err := r.conn(tx).Query(ctx, query, accountID, domain.DateOf(day))
	if err != nil {
		return nil, fmt.Errorf("failed to list later cash flow: %w", err)
	}
	return collectCashFlow(rows)
}

func (r *PgxFinanceRepository) UpsertCashFlow(ctx context.Context, tx pgx.Tx, c domain.DailyCashFlow) error {
	query := `INSERT INTO daily_cash_flow (` + cashFlowColumns + `)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id, flow_date) DO UPDATE SET
			total_in = EXCLUDED.total_in,
			total_out = EXCLUDED.total_out,
			daily_balance = EXCLUDED.daily_balance,
			running_balance = EXCLUDED.running_balance,
			updated_at = EXCLUDED.updated_at;`
	_, err := r.conn(tx).Exec(ctx, query,
		c.AccountID, domain.DateOf(c.Date), c.TotalIn, c.TotalOut, c.DailyBalance, c.RunningBalance, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cash flow: %w", err)
	}
	return nil
}

const categoryColumns = `category_id, owner_account_id, name, direction, created_at`

func scanCategory(row pgx.Row) (*domain.FinancialCategory, error) {
	var c domain.FinancialCategory
	if err := row.Scan(&c.CategoryID, &c.OwnerAccountID, &c.Name, &c.Direction, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgxFinanceRepository) FindCategoryByID(ctx context.Context, categoryID string) (*domain.FinancialCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM financial_categories WHERE category_id = $1;`
	c, err := scanCategory(r.Pool.QueryRow(ctx, query, categoryID))
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (r *PgxFinanceRepository) ListCategories(ctx context.Context, accountID string) ([]domain.FinancialCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM financial_categories
		WHERE owner_account_id IS NULL OR owner_account_id = $1
		ORDER BY LOWER(name);`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.FinancialCategory{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *PgxFinanceRepository) CategoryNameExists(ctx context.Context, accountID, name string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM financial_categories WHERE owner_account_id = $1 AND LOWER(name) = LOWER($2)
	);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, accountID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return exists, nil
}

func (r *PgxFinanceRepository) SaveCategory(ctx context.Context, c domain.FinancialCategory) error {
	query := `INSERT INTO financial_categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5);`
	_, err := r.Pool.Exec(ctx, query, c.CategoryID, c.OwnerAccountID, c.Name, c.Direction, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %s already exists", apperrors.ErrDuplicate, c.Name)
		}
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (r *PgxFinanceRepository) DeleteCategory(ctx context.Context, categoryID string) error {
	var inUse bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM financial_transactions WHERE category_id = $1);`, categoryID).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if inUse {
		return fmt.Errorf("%w: category is referenced by transactions", apperrors.ErrConflict)
	}

	tag, err := r.Pool.Exec(ctx, `DELETE FROM financial_categories WHERE category_id = $1;`, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
