package report

import (
	"fmt"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders the month as a printable statement: totals, category
// breakdown, wallet balances and the transaction ledger.
func WritePDF(path string, data ExportData) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(data.Title(), true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, data.Title(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	writeTotal(pdf, "Income", data.Summary.IncomeTotal.Format())
	writeTotal(pdf, "Expenses", data.Summary.ExpenseTotal.Format())
	writeTotal(pdf, "Net", data.Summary.Net().Format())
	pdf.Ln(6)

	if len(data.Summary.ByCategory) > 0 {
		writeHeading(pdf, "Expenses by category")
		for _, ca := range data.Summary.ByCategory {
			writeTotal(pdf, ca.Name, ca.Amount.Format())
		}
		pdf.Ln(6)
	}

	if len(data.Summary.Wallets) > 0 {
		writeHeading(pdf, "Wallet balances")
		for _, wb := range data.Summary.Wallets {
			writeTotal(pdf, fmt.Sprintf("%s (%s)", wb.Name, wb.Currency), wb.Balance.Format())
		}
		pdf.Ln(6)
	}

	if len(data.Transactions) > 0 {
		writeHeading(pdf, "Transactions")
		writeLedger(pdf, data)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func writeTotal(pdf *fpdf.Fpdf, label, amount string) {
	pdf.CellFormat(90, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, amount, "", 1, "R", false, 0, "")
}

func writeLedger(pdf *fpdf.Fpdf, data ExportData) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(22, 6, "Date", "B", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Wallet", "B", 0, "L", false, 0, "")
	pdf.CellFormat(34, 6, "Category", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "Kind", "B", 0, "L", false, 0, "")
	pdf.CellFormat(24, 6, "Amount", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Note", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range data.Transactions {
		pdf.CellFormat(22, 6, t.Date.Format("2006-01-02"), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, data.walletName(t.WalletID), "", 0, "L", false, 0, "")
		pdf.CellFormat(34, 6, data.categoryName(t.CategoryID), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, string(t.Kind), "", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, t.Amount.Format(), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, t.Note, "", 1, "L", false, 0, "")
	}
}
