package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetTransactions = "Transactions"
	sheetSummary      = "Summary"
)

// WriteXLSX renders the month as a two-sheet workbook: the transaction
// ledger and the summary with totals, category breakdown and wallet
// balances.
func WriteXLSX(path string, data ExportData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}

	if err := writeTransactionSheet(f, data); err != nil {
		return err
	}
	if err := writeSummarySheet(f, data); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeTransactionSheet(f *excelize.File, data ExportData) error {
	headers := []string{"Date", "Wallet", "Category", "Kind", "Amount", "Note"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetTransactions, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for row, t := range data.Transactions {
		values := []any{
			t.Date.Format("2006-01-02"),
			data.walletName(t.WalletID),
			data.categoryName(t.CategoryID),
			string(t.Kind),
			t.Amount.Units(),
			t.Note,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetTransactions, cell, v); err != nil {
				return fmt.Errorf("write transaction row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetTransactions, "A", "A", 12); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetTransactions, "B", "D", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetTransactions, "F", "F", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, data ExportData) error {
	rows := [][]any{
		{data.Title()},
		{},
		{"Income", data.Summary.IncomeTotal.Units()},
		{"Expenses", data.Summary.ExpenseTotal.Units()},
		{"Net", data.Summary.Net().Units()},
		{},
		{"Expenses by category"},
	}
	for _, ca := range data.Summary.ByCategory {
		rows = append(rows, []any{ca.Name, ca.Amount.Units()})
	}
	rows = append(rows, []any{}, []any{"Wallet balances"})
	for _, wb := range data.Summary.Wallets {
		rows = append(rows, []any{fmt.Sprintf("%s (%s)", wb.Name, wb.Currency), wb.Balance.Units()})
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetSummary, cell, v); err != nil {
				return fmt.Errorf("write summary row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetSummary, "A", "A", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}
