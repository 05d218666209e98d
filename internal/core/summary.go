package core

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// WalletBalance is a wallet's balance snapshot for reporting.
type WalletBalance struct {
	Name     string
	Currency string
	Balance  Money
}

// MonthSummary is the compact report for a family's year+month.
type MonthSummary struct {
	FamilyID     int64
	Year         int
	Month        int // 1-12
	IncomeTotal  Money
	ExpenseTotal Money
	ByCategory   []CategoryAmount
	Wallets      []WalletBalance
}

// Net returns income minus expenses for the month.
func (s MonthSummary) Net() Money {
	return Money{Cents: s.IncomeTotal.Cents - s.ExpenseTotal.Cents}
}
