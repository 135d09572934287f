package services_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SscSPs/workshop_backend/internal/apperrors"
	"github.com/SscSPs/workshop_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/workshop_backend/internal/core/ports/repositories"
	"github.com/SscSPs/workshop_backend/internal/core/services"
	"github.com/SscSPs/workshop_backend/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
)

// recordingFinanceRepo records ledger locks and can hide existing order postings,
// standing in for a concurrent writer that checked before the other one committed.
type recordingFinanceRepo struct {
	portsrepo.FinanceRepositoryWithTx
	hideOriginPostings bool
	locked             []string
}

func (r *recordingFinanceRepo) LockAccountLedger(ctx context.Context, tx pgx.Tx, accountID string) error {
	r.locked = append(r.locked, accountID)
	return r.FinanceRepositoryWithTx.LockAccountLedger(ctx, tx, accountID)
}

func (r *recordingFinanceRepo) HasOriginPosting(ctx context.Context, tx pgx.Tx, accountID string, kind domain.OriginKind, originID string) (bool, error) {
	if r.hideOriginPostings {
		return false, nil
	}
	return r.FinanceRepositoryWithTx.HasOriginPosting(ctx, tx, accountID, kind, originID)
}

type FinanceServiceTestSuite struct {
	ScenarioSuite
}

func TestFinanceService(t *testing.T) {
	suite.Run(t, new(FinanceServiceTestSuite))
}

func (s *FinanceServiceTestSuite) post(direction domain.Direction, amount string, effective *time.Time) *domain.FinancialTransaction {
	txn, err := s.svc.Finance.Post(s.ctx, s.accountID, dto.CreateTransactionRequest{
		Direction:     direction,
		Amount:        dec(amount),
		Description:   "manual " + string(direction),
		EffectiveDate: effective,
	})
	s.Require().NoError(err)
	return txn
}

func (s *FinanceServiceTestSuite) cashFlow(from, to time.Time) map[string]domain.DailyCashFlow {
	rows, err := s.svc.Finance.GetCashFlow(s.ctx, s.accountID, from, to)
	s.Require().NoError(err)
	byDay := make(map[string]domain.DailyCashFlow, len(rows))
	for _, r := range rows {
		byDay[r.Date.Format(time.DateOnly)] = r
	}
	return byDay
}

func (s *FinanceServiceTestSuite) TestPost_Validation() {
	_, err := s.svc.Finance.Post(s.ctx, s.accountID, dto.CreateTransactionRequest{
		Direction: domain.DirectionIn, Amount: dec("0"), Description: "nothing",
	})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Finance.Post(s.ctx, s.accountID, dto.CreateTransactionRequest{
		Direction: domain.DirectionIn, Amount: dec("10"), Description: "   ",
	})
	s.ErrorIs(err, apperrors.ErrValidation)

	missing := "00000000-0000-0000-0000-000000000000"
	_, err = s.svc.Finance.Post(s.ctx, s.accountID, dto.CreateTransactionRequest{
		Direction: domain.DirectionIn, Amount: dec("10"), Description: "x", CategoryID: &missing,
	})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *FinanceServiceTestSuite) TestPost_DefaultsAndRollup() {
	in := s.post(domain.DirectionIn, "100.00", nil)
	s.post(domain.DirectionOut, "30.50", nil)

	s.Equal(domain.MethodCash, in.PaymentMethod)
	s.Equal(domain.OriginManual, in.OriginKind)

	day := domain.DateOf(scenarioStart)
	rows := s.cashFlow(day, day)
	row := rows[day.Format(time.DateOnly)]
	s.True(row.TotalIn.Equal(dec("100.00")))
	s.True(row.TotalOut.Equal(dec("30.50")))
	s.True(row.DailyBalance.Equal(dec("69.50")))
	s.True(row.RunningBalance.Equal(dec("69.50")))
}

func (s *FinanceServiceTestSuite) TestPost_BackdatedEntryCascadesRunningBalance() {
	today := domain.DateOf(scenarioStart)
	yesterday := today.AddDate(0, 0, -1)
	threeDaysAgo := today.AddDate(0, 0, -3)

	s.post(domain.DirectionIn, "100", &yesterday)
	s.post(domain.DirectionIn, "50", nil)
	s.post(domain.DirectionOut, "40", &threeDaysAgo)

	rows := s.cashFlow(threeDaysAgo, today)
	s.Len(rows, 3)
	s.True(rows[threeDaysAgo.Format(time.DateOnly)].RunningBalance.Equal(dec("-40")))
	s.True(rows[yesterday.Format(time.DateOnly)].RunningBalance.Equal(dec("60")))
	s.True(rows[today.Format(time.DateOnly)].RunningBalance.Equal(dec("110")))
}

func (s *FinanceServiceTestSuite) TestReverse() {
	original := s.post(domain.DirectionIn, "100", nil)

	reversal, err := s.svc.Finance.Reverse(s.ctx, s.accountID, original.TransactionID)
	s.Require().NoError(err)
	s.Equal(domain.DirectionOut, reversal.Direction)
	s.True(reversal.Amount.Equal(original.Amount))
	s.True(reversal.IsReversal)
	s.Equal(domain.OriginReversal, reversal.OriginKind)
	s.Require().NotNil(reversal.ReversedTransactionID)
	s.Equal(original.TransactionID, *reversal.ReversedTransactionID)
	s.Equal("REVERSAL: "+original.Description, reversal.Description)

	day := domain.DateOf(scenarioStart)
	row := s.cashFlow(day, day)[day.Format(time.DateOnly)]
	s.True(row.RunningBalance.IsZero())

	_, err = s.svc.Finance.Reverse(s.ctx, s.accountID, original.TransactionID)
	s.ErrorIs(err, apperrors.ErrConflict)

	_, err = s.svc.Finance.Reverse(s.ctx, s.accountID, reversal.TransactionID)
	s.ErrorIs(err, apperrors.ErrCannotReverseReversal)
}

func (s *FinanceServiceTestSuite) TestReverse_ForeignTransactionIsNotFound() {
	original := s.post(domain.DirectionIn, "100", nil)
	other := s.registerAccount()

	_, err := s.svc.Finance.Reverse(s.ctx, other, original.TransactionID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Finance.GetTransaction(s.ctx, other, original.TransactionID)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *FinanceServiceTestSuite) TestReverse_BackdatedReversalLandsToday() {
	lastWeek := domain.DateOf(scenarioStart).AddDate(0, 0, -7)
	original := s.post(domain.DirectionOut, "20", &lastWeek)

	reversal, err := s.svc.Finance.Reverse(s.ctx, s.accountID, original.TransactionID)
	s.Require().NoError(err)
	s.Equal(domain.DateOf(scenarioStart), domain.DateOf(reversal.EffectiveDate))

	rows := s.cashFlow(lastWeek, domain.DateOf(scenarioStart))
	s.True(rows[lastWeek.Format(time.DateOnly)].RunningBalance.Equal(dec("-20")))
	s.True(rows[domain.DateOf(scenarioStart).Format(time.DateOnly)].RunningBalance.IsZero())
}

func (s *FinanceServiceTestSuite) TestPostOrderRevenue_Idempotent() {
	order := domain.Order{
		OrderID:      "order-1",
		AccountID:    s.accountID,
		CustomerName: "Maria",
		Plate:        "ABC1D23",
		Value:        dec("250.00"),
	}

	txn, posted, err := s.svc.Finance.PostOrderRevenue(s.ctx, order)
	s.Require().NoError(err)
	s.True(posted)
	s.Equal("Order #order-1 - Maria (ABC1D23)", txn.Description)
	s.Require().NotNil(txn.CategoryID)
	s.Equal(domain.OrderServiceCategoryID, *txn.CategoryID)

	again, posted, err := s.svc.Finance.PostOrderRevenue(s.ctx, order)
	s.Require().NoError(err)
	s.False(posted)
	s.Nil(again)
	s.Len(s.orderPostings(s.accountID, "order-1"), 1)

	order.Value = dec("0")
	_, _, err = s.svc.Finance.PostOrderRevenue(s.ctx, order)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *FinanceServiceTestSuite) TestPostOrderRevenue_SecondWriterHitsUniqueOrigin() {
	order := domain.Order{
		OrderID:      "order-2",
		AccountID:    s.accountID,
		CustomerName: "Joao",
		Plate:        "XYZ9K88",
		Value:        dec("180.00"),
	}
	_, posted, err := s.svc.Finance.PostOrderRevenue(s.ctx, order)
	s.Require().NoError(err)
	s.True(posted)

	repo := &recordingFinanceRepo{FinanceRepositoryWithTx: s.repos.FinanceRepo, hideOriginPostings: true}
	racing := services.NewFinanceService(repo, services.WithClock(s.clock))
	txn, posted, err := racing.PostOrderRevenue(s.ctx, order)
	s.Require().NoError(err)
	s.False(posted)
	s.Nil(txn)

	s.Len(s.orderPostings(s.accountID, "order-2"), 1)
	day := domain.DateOf(scenarioStart)
	row := s.cashFlow(day, day)[day.Format(time.DateOnly)]
	s.True(row.TotalIn.Equal(dec("180.00")), "rollup in: %s", row.TotalIn)
}

func (s *FinanceServiceTestSuite) TestLedgerWritesLockTheAccount() {
	repo := &recordingFinanceRepo{FinanceRepositoryWithTx: s.repos.FinanceRepo}
	ledger := services.NewFinanceService(repo, services.WithClock(s.clock))

	txn, err := ledger.Post(s.ctx, s.accountID, dto.CreateTransactionRequest{
		Direction: domain.DirectionOut, Amount: dec("42.00"), Description: "tyres",
	})
	s.Require().NoError(err)
	_, err = ledger.Reverse(s.ctx, s.accountID, txn.TransactionID)
	s.Require().NoError(err)
	_, _, err = ledger.PostOrderRevenue(s.ctx, domain.Order{
		OrderID: "order-3", AccountID: s.accountID, Value: dec("10.00"),
	})
	s.Require().NoError(err)
	s.Require().NoError(ledger.RecomputeDailyRollup(s.ctx, s.accountID, scenarioStart))

	s.Equal([]string{s.accountID, s.accountID, s.accountID, s.accountID}, repo.locked)
}

func (s *FinanceServiceTestSuite) TestListTransactions_InclusiveRangeAndPaging() {
	today := domain.DateOf(scenarioStart)
	yesterday := today.AddDate(0, 0, -1)
	s.post(domain.DirectionIn, "10", &yesterday)
	s.post(domain.DirectionIn, "20", nil)
	s.post(domain.DirectionOut, "5", nil)

	res, err := s.svc.Finance.ListTransactions(s.ctx, s.accountID, dto.ListTransactionsParams{
		From: yesterday.Format(time.DateOnly),
		To:   yesterday.Format(time.DateOnly),
	})
	s.Require().NoError(err)
	s.Len(res.Transactions, 1)

	page, err := s.svc.Finance.ListTransactions(s.ctx, s.accountID, dto.ListTransactionsParams{Limit: 2})
	s.Require().NoError(err)
	s.Len(page.Transactions, 2)
	s.Require().NotNil(page.NextToken)

	rest, err := s.svc.Finance.ListTransactions(s.ctx, s.accountID, dto.ListTransactionsParams{Limit: 2, NextToken: page.NextToken})
	s.Require().NoError(err)
	s.Len(rest.Transactions, 1)
	s.Nil(rest.NextToken)

	_, err = s.svc.Finance.ListTransactions(s.ctx, s.accountID, dto.ListTransactionsParams{
		From: today.Format(time.DateOnly),
		To:   yesterday.Format(time.DateOnly),
	})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *FinanceServiceTestSuite) TestGetSummary() {
	lastMonth := domain.DateOf(scenarioStart).AddDate(0, -1, 0)
	s.post(domain.DirectionIn, "300", &lastMonth)
	s.post(domain.DirectionIn, "100", nil)
	s.post(domain.DirectionOut, "40", nil)

	summary, err := s.svc.Finance.GetSummary(s.ctx, s.accountID)
	s.Require().NoError(err)
	s.True(summary.TotalIn.Equal(dec("400")))
	s.True(summary.Profit.Equal(dec("360")))
	s.True(summary.MonthIn.Equal(dec("100")))
	s.True(summary.MonthProfit.Equal(dec("60")))
	s.EqualValues(2, summary.TxCountMonth)
	s.EqualValues(3, summary.TxWithoutCategoryCount)
}

func (s *FinanceServiceTestSuite) TestExportCashFlow() {
	s.post(domain.DirectionIn, "100", nil)
	day := domain.DateOf(scenarioStart)

	var buf bytes.Buffer
	s.Require().NoError(s.svc.Finance.ExportCashFlow(s.ctx, s.accountID, day, day, &buf))

	f, err := excelize.OpenReader(&buf)
	s.Require().NoError(err)
	defer f.Close()
	rows, err := f.GetRows("Cash Flow")
	s.Require().NoError(err)
	s.Len(rows, 3) // heading, one day, total

	err = s.svc.Finance.ExportCashFlow(s.ctx, s.accountID, day, day.AddDate(0, 0, -1), &buf)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *FinanceServiceTestSuite) TestCategories() {
	created, err := s.svc.Category.CreateCategory(s.ctx, s.accountID, dto.CreateCategoryRequest{
		Name: "Tools", Direction: domain.DirectionOut,
	})
	s.Require().NoError(err)
	s.Require().NotNil(created.OwnerAccountID)

	_, err = s.svc.Category.CreateCategory(s.ctx, s.accountID, dto.CreateCategoryRequest{
		Name: "Tools", Direction: domain.DirectionOut,
	})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	categories, err := s.svc.Category.ListCategories(s.ctx, s.accountID)
	s.Require().NoError(err)
	s.Len(categories, len(domain.DefaultCategories())+1)

	other := s.registerAccount()
	s.ErrorIs(s.svc.Category.DeleteCategory(s.ctx, other, created.CategoryID), apperrors.ErrForbidden)
	s.ErrorIs(s.svc.Category.DeleteCategory(s.ctx, s.accountID, domain.OrderServiceCategoryID), apperrors.ErrForbidden)

	// other accounts may not post against a private category
	_, err = s.svc.Finance.Post(s.ctx, other, dto.CreateTransactionRequest{
		Direction: domain.DirectionOut, Amount: dec("5"), Description: "x", CategoryID: &created.CategoryID,
	})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Finance.Post(s.ctx, s.accountID, dto.CreateTransactionRequest{
		Direction: domain.DirectionOut, Amount: dec("5"), Description: "wrench", CategoryID: &created.CategoryID,
	})
	s.Require().NoError(err)
	s.ErrorIs(s.svc.Category.DeleteCategory(s.ctx, s.accountID, created.CategoryID), apperrors.ErrConflict)
}
