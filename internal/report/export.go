// Package report renders monthly exports: an XLSX workbook and a PDF
// statement, both fed from the same export data.
package report

import (
	"fmt"
	"time"

	"hearth/internal/core"
)

// ExportData is everything a renderer needs for one family's month.
type ExportData struct {
	Family        core.Family
	Summary       core.MonthSummary
	Transactions  []core.Transaction
	CategoryNames map[int64]string
	WalletNames   map[int64]string
}

// Title returns the human heading for the export, e.g. "Rossi - March 2026".
func (d ExportData) Title() string {
	return fmt.Sprintf("%s - %s %d", d.Family.Name, time.Month(d.Summary.Month), d.Summary.Year)
}

func (d ExportData) categoryName(id int64) string {
	if name, ok := d.CategoryNames[id]; ok {
		return name
	}
	return fmt.Sprintf("category %d", id)
}

func (d ExportData) walletName(id int64) string {
	if name, ok := d.WalletNames[id]; ok {
		return name
	}
	return fmt.Sprintf("wallet %d", id)
}
