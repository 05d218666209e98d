package http

import (
	"time"

	"hearth/internal/core"
	"hearth/internal/services"
	"hearth/internal/storage"
)

// View structs shape the JSON the API returns. Money always travels as
// cents plus a formatted decimal string.

type moneyView struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

func viewMoney(m core.Money) moneyView {
	return moneyView{Cents: m.Cents, Formatted: m.Format()}
}

type userView struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	FamilyID int64  `json:"family_id,omitempty"`
	Role     string `json:"role"`
}

func viewUser(u core.User) userView {
	return userView{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		FamilyID: u.FamilyID,
		Role:     string(u.Role),
	}
}

type familyView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func viewFamily(f core.Family) familyView {
	return familyView{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt}
}

type inviteView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

func viewInvite(inv core.Invite, now time.Time) inviteView {
	return inviteView{
		ID:        inv.ID,
		Email:     inv.Email,
		Token:     inv.Token,
		ExpiresAt: inv.ExpiresAt,
		Expired:   inv.Expired(now),
	}
}

type walletView struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
	Balance  moneyView `json:"balance"`
}

func viewWallet(w core.Wallet) walletView {
	return walletView{
		ID:       w.ID,
		Name:     w.Name,
		Currency: w.Currency,
		Balance:  viewMoney(w.Balance),
	}
}

type categoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func viewCategory(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Kind: string(c.Kind)}
}

type transactionView struct {
	ID          int64     `json:"id"`
	WalletID    int64     `json:"wallet_id"`
	CategoryID  int64     `json:"category_id"`
	UserID      int64     `json:"user_id,omitempty"`
	Kind        string    `json:"kind"`
	Amount      moneyView `json:"amount"`
	Date        string    `json:"date"`
	Note        string    `json:"note,omitempty"`
	RecurringID int64     `json:"recurring_id,omitempty"`
	GoalID      int64     `json:"goal_id,omitempty"`
}

func viewTransaction(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		WalletID:    t.WalletID,
		CategoryID:  t.CategoryID,
		UserID:      t.UserID,
		Kind:        string(t.Kind),
		Amount:      viewMoney(t.Amount),
		Date:        t.Date.Format("2006-01-02"),
		Note:        t.Note,
		RecurringID: t.RecurringID,
		GoalID:      t.GoalID,
	}
}

func viewTransactions(txs []core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, viewTransaction(t))
	}
	return views
}

type budgetView struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Limit      moneyView `json:"limit"`
}

func viewBudget(b core.Budget) budgetView {
	return budgetView{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Year:       b.Year,
		Month:      b.Month,
		Limit:      viewMoney(b.Limit),
	}
}

type budgetStatusView struct {
	Budget    budgetView `json:"budget"`
	Spent     moneyView  `json:"spent"`
	Remaining moneyView  `json:"remaining"`
	Over      bool       `json:"over"`
}

func viewBudgetStatus(st services.BudgetStatus) budgetStatusView {
	return budgetStatusView{
		Budget:    viewBudget(st.Budget),
		Spent:     viewMoney(st.Spent),
		Remaining: viewMoney(st.Remaining),
		Over:      st.Over,
	}
}

type recurringView struct {
	ID         int64     `json:"id"`
	WalletID   int64     `json:"wallet_id"`
	CategoryID int64     `json:"category_id"`
	Kind       string    `json:"kind"`
	Amount     moneyView `json:"amount"`
	Note       string    `json:"note"`
	Frequency  string    `json:"frequency"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date,omitempty"`
	LastRunAt  string    `json:"last_run_at,omitempty"`
	Active     bool      `json:"active"`
}

func viewRecurring(rt core.RecurringTransaction) recurringView {
	v := recurringView{
		ID:         rt.ID,
		WalletID:   rt.WalletID,
		CategoryID: rt.CategoryID,
		Kind:       string(rt.Kind),
		Amount:     viewMoney(rt.Amount),
		Note:       rt.Note,
		Frequency:  string(rt.Frequency),
		StartDate:  rt.StartDate.Format("2006-01-02"),
		Active:     rt.Active,
	}
	if !rt.EndDate.IsZero() {
		v.EndDate = rt.EndDate.Format("2006-01-02")
	}
	if !rt.LastRunAt.IsZero() {
		v.LastRunAt = rt.LastRunAt.Format(time.RFC3339)
	}
	return v
}

type goalView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Target    moneyView `json:"target"`
	Saved     moneyView `json:"saved"`
	Remaining moneyView `json:"remaining"`
	Deadline  string    `json:"deadline,omitempty"`
	Achieved  bool      `json:"achieved"`
}

func viewGoal(g core.Goal) goalView {
	v := goalView{
		ID:        g.ID,
		Name:      g.Name,
		Target:    viewMoney(g.Target),
		Saved:     viewMoney(g.Saved),
		Remaining: viewMoney(g.Remaining()),
		Achieved:  g.Achieved,
	}
	if !g.Deadline.IsZero() {
		v.Deadline = g.Deadline.Format("2006-01-02")
	}
	return v
}

type categoryAmountView struct {
	Name   string    `json:"name"`
	Amount moneyView `json:"amount"`
}

type walletBalanceView struct {
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
	Balance  moneyView `json:"balance"`
}

type summaryView struct {
	Year         int                  `json:"year"`
	Month        int                  `json:"month"`
	IncomeTotal  moneyView            `json:"income_total"`
	ExpenseTotal moneyView            `json:"expense_total"`
	Net          moneyView            `json:"net"`
	ByCategory   []categoryAmountView `json:"by_category"`
	Wallets      []walletBalanceView  `json:"wallets"`
}

func viewSummary(s core.MonthSummary) summaryView {
	v := summaryView{
		Year:         s.Year,
		Month:        s.Month,
		IncomeTotal:  viewMoney(s.IncomeTotal),
		ExpenseTotal: viewMoney(s.ExpenseTotal),
		Net:          viewMoney(s.Net()),
	}
	for _, ca := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, categoryAmountView{Name: ca.Name, Amount: viewMoney(ca.Amount)})
	}
	for _, wb := range s.Wallets {
		v.Wallets = append(v.Wallets, walletBalanceView{
			Name:     wb.Name,
			Currency: wb.Currency,
			Balance:  viewMoney(wb.Balance),
		})
	}
	return v
}

type exportJobView struct {
	ID          string    `json:"id"`
	Format      string    `json:"format"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt string    `json:"completed_at,omitempty"`
}

func viewExportJob(job storage.ExportJob) exportJobView {
	v := exportJobView{
		ID:        job.ID,
		Format:    job.Format,
		Year:      job.Year,
		Month:     job.Month,
		Status:    job.Status,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
	}
	if !job.CompletedAt.IsZero() {
		v.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return v
}
