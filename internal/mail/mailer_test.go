package mail

import (
	"strings"
	"testing"

	"hearth/internal/core"
)

func TestRenderDigest(t *testing.T) {
	family := core.Family{Name: "Rossi"}
	summary := core.MonthSummary{
		Year:         2025,
		Month:        3,
		IncomeTotal:  core.Money{Cents: 250000},
		ExpenseTotal: core.Money{Cents: 180050},
		ByCategory: []core.CategoryAmount{
			{Name: "Groceries", Amount: core.Money{Cents: 45000}},
			{Name: "Rent", Amount: core.Money{Cents: 90000}},
		},
		Wallets: []core.WalletBalance{
			{Name: "Checking", Currency: "EUR", Balance: core.Money{Cents: 69950}},
		},
	}

	body, err := RenderDigest(family, summary)
	if err != nil {
		t.Fatalf("RenderDigest() error = %v", err)
	}

	for _, want := range []string{
		"March 2025",
		"Rossi",
		"Income:   2500.00",
		"Expenses: 1800.50",
		"Net:      699.50",
		"Groceries: 450.00",
		"Rent: 900.00",
		"Checking (EUR): 699.50",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("digest body missing %q\n%s", want, body)
		}
	}
}

func TestRenderDigestEmptyMonth(t *testing.T) {
	body, err := RenderDigest(core.Family{Name: "Rossi"}, core.MonthSummary{Year: 2025, Month: 1})
	if err != nil {
		t.Fatalf("RenderDigest() error = %v", err)
	}
	if strings.Contains(body, "Expenses by category") {
		t.Errorf("empty month should omit category section\n%s", body)
	}
	if !strings.Contains(body, "Net:      0.00") {
		t.Errorf("expected zero net\n%s", body)
	}
}
