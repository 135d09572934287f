package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteCashFlow(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.DailyCashFlow{
		{Date: day, TotalIn: decimal.NewFromInt(100), TotalOut: decimal.NewFromInt(40),
			DailyBalance: decimal.NewFromInt(60), RunningBalance: decimal.NewFromInt(60)},
		{Date: day.AddDate(0, 0, 1), TotalIn: decimal.NewFromInt(10), TotalOut: decimal.Zero,
			DailyBalance: decimal.NewFromInt(10), RunningBalance: decimal.NewFromInt(70)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCashFlow(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(cashFlowSheet)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, cashFlowHeadings, got[0])
	assert.Equal(t, []string{"2025-03-01", "100", "40", "60", "60"}, got[1])
	assert.Equal(t, []string{"Total", "110", "40", "70", "70"}, got[3])
}

func TestWriteCashFlow_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCashFlow(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(cashFlowSheet)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Total", "0", "0", "0"}, got[1])
}

func TestCashFlowFilename(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "cash-flow_2025-01-01_2025-01-31.xlsx", CashFlowFilename(from, to))
}
