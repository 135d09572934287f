// Package reports renders ledger data as spreadsheets.
package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/SscSPs/workshop_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const cashFlowSheet = "Cash Flow"

// ContentTypeXLSX is the media type of the workbooks written here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var cashFlowHeadings = []string{"Date", "Total In", "Total Out", "Daily Balance", "Running Balance"}

// CashFlowFilename names the export for the given range.
func CashFlowFilename(from, to time.Time) string {
	return fmt.Sprintf("cash-flow_%s_%s.xlsx", from.Format(time.DateOnly), to.Format(time.DateOnly))
}

// WriteCashFlow writes one row per rollup day followed by a totals row.
func WriteCashFlow(w io.Writer, rows []domain.DailyCashFlow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", cashFlowSheet); err != nil {
		return err
	}

	for i, h := range cashFlowHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(cashFlowSheet, cell, h); err != nil {
			return err
		}
	}

	totalIn, totalOut := decimal.Zero, decimal.Zero
	for i, r := range rows {
		values := []any{
			r.Date.Format(time.DateOnly),
			r.TotalIn.InexactFloat64(),
			r.TotalOut.InexactFloat64(),
			r.DailyBalance.InexactFloat64(),
			r.RunningBalance.InexactFloat64(),
		}
		if err := setRow(f, i+2, values); err != nil {
			return err
		}
		totalIn = totalIn.Add(r.TotalIn)
		totalOut = totalOut.Add(r.TotalOut)
	}

	totals := []any{"Total", totalIn.InexactFloat64(), totalOut.InexactFloat64(), totalIn.Sub(totalOut).InexactFloat64()}
	if len(rows) > 0 {
		totals = append(totals, rows[len(rows)-1].RunningBalance.InexactFloat64())
	}
	if err := setRow(f, len(rows)+2, totals); err != nil {
		return err
	}

	if err := f.SetColWidth(cashFlowSheet, "A", "E", 18); err != nil {
		return err
	}
	return f.Write(w)
}

func setRow(f *excelize.File, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(cashFlowSheet, cell, &values)
}
