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
	"github.com/SscSPs/workshop_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FinanceRepository is the memory implementation of the ledger and category ports.
type FinanceRepository struct {
	baseRepository
}

var _ portsrepo.FinanceRepositoryWithTx = (*FinanceRepository)(nil)

func dayKey(t time.Time) string {
	return domain.DateOf(t).Format(time.DateOnly)
}

func (r *FinanceRepository) FindTransactionByID(_ context.Context, transactionID string) (*domain.FinancialTransaction, error) {
	var found *domain.FinancialTransaction
	r.store.read(func(st *state) { found = findTxn(st, transactionID) })
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

func findTxn(st *state, transactionID string) *domain.FinancialTransaction {
	for _, t := range st.transactions {
		if t.TransactionID == transactionID {
			txn := t
			return &txn
		}
	}
	return nil
}

func (r *FinanceRepository) ListTransactions(_ context.Context, accountID string, filter domain.TransactionFilter) ([]domain.FinancialTransaction, *string, error) {
	var cursor *pagination.Cursor
	if filter.NextToken != nil && *filter.NextToken != "" {
		c, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	var rows []domain.FinancialTransaction
	r.store.read(func(st *state) {
		for _, t := range st.transactions {
			if t.AccountID != accountID {
				continue
			}
			if filter.From != nil && t.EffectiveDate.Before(*filter.From) {
				continue
			}
			if filter.To != nil && !t.EffectiveDate.Before(*filter.To) {
				continue
			}
			if filter.Direction != nil && t.Direction != *filter.Direction {
				continue
			}
			if cursor != nil && !cursor.Before(t.EffectiveDate, t.CreatedAt, t.TransactionID) {
				continue
			}
			rows = append(rows, t)
		}
	})
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.After(b.EffectiveDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.TransactionID > b.TransactionID
	})

	var next *string
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
		last := rows[len(rows)-1]
		token := pagination.EncodeToken(pagination.Cursor{EffectiveDate: last.EffectiveDate, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		next = &token
	}
	if rows == nil {
		rows = []domain.FinancialTransaction{}
	}
	return rows, next, nil
}

func (r *FinanceRepository) ListCashFlow(_ context.Context, accountID string, from, to time.Time) ([]domain.DailyCashFlow, error) {
	from, to = domain.DateOf(from), domain.DateOf(to)
	rows := []domain.DailyCashFlow{}
	r.store.read(func(st *state) {
		for _, row := range st.cashFlow[accountID] {
			if row.Date.Before(from) || row.Date.After(to) {
				continue
			}
			rows = append(rows, row)
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

func (r *FinanceRepository) GetSummary(_ context.Context, accountID string, monthStart, monthEnd time.Time) (*domain.FinancialSummary, error) {
	s := &domain.FinancialSummary{}
	r.store.read(func(st *state) {
		for _, t := range st.transactions {
			if t.AccountID != accountID {
				continue
			}
			inMonth := !t.EffectiveDate.Before(monthStart) && t.EffectiveDate.Before(monthEnd)
			if t.Direction == domain.DirectionIn {
				s.TotalIn = s.TotalIn.Add(t.Amount)
				if inMonth {
					s.MonthIn = s.MonthIn.Add(t.Amount)
				}
			} else {
				s.TotalOut = s.TotalOut.Add(t.Amount)
				if inMonth {
					s.MonthOut = s.MonthOut.Add(t.Amount)
				}
			}
			if inMonth {
				s.TxCountMonth++
			}
			if t.CategoryID == nil {
				s.TxWithoutCategoryCount++
			}
		}
	})
	s.Profit = s.TotalIn.Sub(s.TotalOut)
	s.MonthProfit = s.MonthIn.Sub(s.MonthOut)
	s.CurrentBalance = s.Profit
	return s, nil
}

func (r *FinanceRepository) SaveTransaction(_ context.Context, tx pgx.Tx, txn domain.FinancialTransaction) error {
	return r.store.write(tx, func(st *state) error {
		if findTxn(st, txn.TransactionID) != nil {
			return apperrors.ErrDuplicate
		}
		if txn.OriginKind == domain.OriginOrder && !txn.IsReversal && txn.OriginID != nil &&
			hasOrigin(st, txn.AccountID, domain.OriginOrder, *txn.OriginID) {
			return fmt.Errorf("%w: order revenue already posted", apperrors.ErrDuplicate)
		}
		st.transactions = append(st.transactions, txn)
		return nil
	})
}

func (r *FinanceRepository) FindTransactionForUpdate(_ context.Context, tx pgx.Tx, transactionID string) (*domain.FinancialTransaction, error) {
	var found *domain.FinancialTransaction
	err := r.store.write(tx, func(st *state) error {
		found = findTxn(st, transactionID)
		if found == nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	return found, err
}

func (r *FinanceRepository) IsReversed(_ context.Context, tx pgx.Tx, transactionID string) (bool, error) {
	reversed := false
	err := r.store.write(tx, func(st *state) error {
		for _, t := range st.transactions {
			if t.IsReversal && t.ReversedTransactionID != nil && *t.ReversedTransactionID == transactionID {
				reversed = true
				break
			}
		}
		return nil
	})
	return reversed, err
}

func hasOrigin(st *state, accountID string, kind domain.OriginKind, originID string) bool {
	for _, t := range st.transactions {
		if t.AccountID == accountID && !t.IsReversal && t.OriginKind == kind &&
			t.OriginID != nil && *t.OriginID == originID {
			return true
		}
	}
	return false
}

func (r *FinanceRepository) HasOriginPosting(_ context.Context, tx pgx.Tx, accountID string, kind domain.OriginKind, originID string) (bool, error) {
	exists := false
	err := r.store.write(tx, func(st *state) error {
		exists = hasOrigin(st, accountID, kind, originID)
		return nil
	})
	return exists, err
}

// LockAccountLedger only checks tx: the store already admits one writer at a time.
func (r *FinanceRepository) LockAccountLedger(_ context.Context, tx pgx.Tx, _ string) error {
	return r.store.write(tx, func(*state) error { return nil })
}

func (r *FinanceRepository) SumDay(_ context.Context, tx pgx.Tx, accountID string, day time.Time) (decimal.Decimal, decimal.Decimal, error) {
	totalIn, totalOut := decimal.Zero, decimal.Zero
	key := dayKey(day)
	err := r.store.write(tx, func(st *state) error {
		for _, t := range st.transactions {
			if t.AccountID != accountID || dayKey(t.EffectiveDate) != key {
				continue
			}
			if t.Direction == domain.DirectionIn {
				totalIn = totalIn.Add(t.Amount)
			} else {
				totalOut = totalOut.Add(t.Amount)
			}
		}
		return nil
	})
	return totalIn, totalOut, err
}

func (r *FinanceRepository) FindPriorCashFlow(_ context.Context, tx pgx.Tx, accountID string, day time.Time) (*domain.DailyCashFlow, error) {
	day = domain.DateOf(day)
	var prior *domain.DailyCashFlow
	err := r.store.write(tx, func(st *state) error {
		for _, row := range st.cashFlow[accountID] {
			if !row.Date.Before(day) {
				continue
			}
			if prior == nil || row.Date.After(prior.Date) {
				rw := row
				prior = &rw
			}
		}
		return nil
	})
	return prior, err
}

func (r *FinanceRepository) ListCashFlowAfter(_ context.Context, tx pgx.Tx, accountID string, day time.Time) ([]domain.DailyCashFlow, error) {
	day = domain.DateOf(day)
	var rows []domain.DailyCashFlow
	err := r.store.write(tx, func(st *state) error {
		for _, row := range st.cashFlow[accountID] {
			if row.Date.After(day) {
				rows = append(rows, row)
			}
		}
		return nil
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, err
}

func (r *FinanceRepository) UpsertCashFlow(_ context.Context, tx pgx.Tx, row domain.DailyCashFlow) error {
	row.Date = domain.DateOf(row.Date)
	return r.store.write(tx, func(st *state) error {
		days, ok := st.cashFlow[row.AccountID]
		if !ok {
			days = make(map[string]domain.DailyCashFlow)
			st.cashFlow[row.AccountID] = days
		}
		days[dayKey(row.Date)] = row
		return nil
	})
}

func (r *FinanceRepository) FindCategoryByID(_ context.Context, categoryID string) (*domain.FinancialCategory, error) {
	var (
		c  domain.FinancialCategory
		ok bool
	)
	r.store.read(func(st *state) { c, ok = st.categories[categoryID] })
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (r *FinanceRepository) ListCategories(_ context.Context, accountID string) ([]domain.FinancialCategory, error) {
	categories := []domain.FinancialCategory{}
	r.store.read(func(st *state) {
		for _, c := range st.categories {
			if c.VisibleTo(accountID) {
				categories = append(categories, c)
			}
		}
	})
	sort.Slice(categories, func(i, j int) bool {
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
	return categories, nil
}

func (r *FinanceRepository) CategoryNameExists(_ context.Context, accountID, name string) (bool, error) {
	exists := false
	r.store.read(func(st *state) {
		for _, c := range st.categories {
			if !c.IsSystem() && *c.OwnerAccountID == accountID && strings.EqualFold(c.Name, name) {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *FinanceRepository) SaveCategory(ctx context.Context, category domain.FinancialCategory) error {
	return r.store.autocommit(ctx, func(st *state) error {
		if _, exists := st.categories[category.CategoryID]; exists {
			return apperrors.ErrDuplicate
		}
		st.categories[category.CategoryID] = category
		return nil
	})
}

func (r *FinanceRepository) DeleteCategory(ctx context.Context, categoryID string) error {
	return r.store.autocommit(ctx, func(st *state) error {
		if _, ok := st.categories[categoryID]; !ok {
			return apperrors.ErrNotFound
		}
		for _, t := range st.transactions {
			if t.CategoryID != nil && *t.CategoryID == categoryID {
				return fmt.Errorf("%w: category is referenced by transactions", apperrors.ErrConflict)
			}
		}
		delete(st.categories, categoryID)
		return nil
	})
}
