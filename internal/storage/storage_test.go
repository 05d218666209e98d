package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hearth/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedFamily creates a user, a family owned by them, a wallet and an
// expense category, returning their ids.
func seedFamily(t *testing.T, s *Store) (userID, familyID, walletID, categoryID int64) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	userID, err := s.CreateUser(ctx, core.User{
		Email:        "anna@example.com",
		Name:         "Anna",
		PasswordHash: "hash",
		Role:         core.RoleMember,
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	familyID, err = s.CreateFamilyWithOwner(ctx, "Rossi", userID, now)
	if err != nil {
		t.Fatalf("CreateFamilyWithOwner() error = %v", err)
	}

	walletID, err = s.CreateWallet(ctx, core.Wallet{
		FamilyID: familyID,
		Name:     "Checking",
		Currency: "EUR",
	}, now)
	if err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}

	categoryID, err = s.CreateCategory(ctx, core.Category{
		FamilyID: familyID,
		Name:     "Groceries",
		Kind:     core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return userID, familyID, walletID, categoryID
}

func mustBalance(t *testing.T, s *Store, familyID, walletID int64) int64 {
	t.Helper()
	w, err := s.GetWallet(context.Background(), familyID, walletID)
	if err != nil {
		t.Fatalf("GetWallet() error = %v", err)
	}
	return w.Balance.Cents
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFamily(t, s)

	_, err := s.CreateUser(ctx, core.User{
		Email:        "anna@example.com",
		Name:         "Other Anna",
		PasswordHash: "hash",
		Role:         core.RoleMember,
		CreatedAt:    time.Now(),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, _, _ := seedFamily(t, s)

	u, err := s.GetUserByEmail(ctx, "anna@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if u.ID != userID || u.FamilyID != familyID || u.Role != core.RoleOwner {
		t.Errorf("unexpected user %+v", u)
	}

	byID, err := s.GetUserByID(ctx, userID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Email != "anna@example.com" {
		t.Errorf("Email = %q, want anna@example.com", byID.Email)
	}

	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateFamilyPromotesOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, _, _ := seedFamily(t, s)

	f, err := s.GetFamily(ctx, familyID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if f.Name != "Rossi" {
		t.Errorf("Name = %q, want Rossi", f.Name)
	}

	// Creating a second family for the same user must fail.
	if _, err := s.CreateFamilyWithOwner(ctx, "Second", userID, time.Now()); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	members, err := s.ListFamilyMembers(ctx, familyID)
	if err != nil {
		t.Fatalf("ListFamilyMembers() error = %v", err)
	}
	if len(members) != 1 || members[0].Role != core.RoleOwner {
		t.Errorf("unexpected members %+v", members)
	}
}

func TestInviteLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, familyID, _, _ := seedFamily(t, s)
	now := time.Now()

	joinerID, err := s.CreateUser(ctx, core.User{
		Email:        "ben@example.com",
		Name:         "Ben",
		PasswordHash: "hash",
		Role:         core.RoleMember,
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	inviteID, err := s.CreateInvite(ctx, core.Invite{
		FamilyID:  familyID,
		Email:     "ben@example.com",
		Token:     "tok-1",
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	inv, err := s.GetInviteByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetInviteByToken() error = %v", err)
	}
	if inv.ID != inviteID || inv.Email != "ben@example.com" {
		t.Errorf("unexpected invite %+v", inv)
	}

	pending, err := s.ListPendingInvites(ctx, familyID)
	if err != nil {
		t.Fatalf("ListPendingInvites() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invite, got %d", len(pending))
	}

	if err := s.AcceptInvite(ctx, inviteID, joinerID, now); err != nil {
		t.Fatalf("AcceptInvite() error = %v", err)
	}

	joined, err := s.GetUserByID(ctx, joinerID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if joined.FamilyID != familyID || joined.Role != core.RoleMember {
		t.Errorf("unexpected joined user %+v", joined)
	}

	// Single use: a second accept must fail.
	if err := s.AcceptInvite(ctx, inviteID, joinerID, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second accept, got %v", err)
	}

	pending, err = s.ListPendingInvites(ctx, familyID)
	if err != nil {
		t.Fatalf("ListPendingInvites() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending invites, got %d", len(pending))
	}
}

func TestRevokeInvite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, familyID, _, _ := seedFamily(t, s)
	now := time.Now()

	inviteID, err := s.CreateInvite(ctx, core.Invite{
		FamilyID:  familyID,
		Email:     "ben@example.com",
		Token:     "tok-2",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	if err := s.RevokeInvite(ctx, inviteID, familyID, now); err != nil {
		t.Fatalf("RevokeInvite() error = %v", err)
	}
	if err := s.RevokeInvite(ctx, inviteID, familyID, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second revoke, got %v", err)
	}
}

func TestWalletDuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, familyID, _, _ := seedFamily(t, s)

	_, err := s.CreateWallet(ctx, core.Wallet{
		FamilyID: familyID,
		Name:     "Checking",
		Currency: "EUR",
	}, time.Now())
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteWalletInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	_, err := s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2025, 3, 10),
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := s.DeleteWallet(ctx, familyID, walletID); !errors.Is(err, ErrWalletInUse) {
		t.Fatalf("expected ErrWalletInUse, got %v", err)
	}
}

func TestDeleteWalletWithRecurringTemplate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, familyID, walletID, categoryID := seedFamily(t, s)

	_, err := s.CreateRecurring(ctx, core.RecurringTransaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 999},
		Note:       "streaming",
		Frequency:  core.Monthly,
		StartDate:  core.NewDate(2025, 1, 15),
		Active:     true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	if err := s.DeleteWallet(ctx, familyID, walletID); !errors.Is(err, ErrWalletInUse) {
		t.Fatalf("expected ErrWalletInUse, got %v", err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	_, err := s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2025, 3, 10),
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := s.DeleteCategory(ctx, familyID, categoryID); !errors.Is(err, ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
}

func TestTransactionMovesWalletBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	incomeCat, err := s.CreateCategory(ctx, core.Category{
		FamilyID: familyID,
		Name:     "Salary",
		Kind:     core.Income,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	_, err = s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: incomeCat,
		UserID:     userID,
		Kind:       core.Income,
		Amount:     core.Money{Cents: 200000},
		Date:       core.NewDate(2025, 3, 1),
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if got := mustBalance(t, s, familyID, walletID); got != 200000 {
		t.Fatalf("balance after income = %d, want 200000", got)
	}

	txID, err := s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 4550},
		Date:       core.NewDate(2025, 3, 10),
		Note:       "weekly shop",
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if got := mustBalance(t, s, familyID, walletID); got != 195450 {
		t.Fatalf("balance after expense = %d, want 195450", got)
	}

	// Update amount: old delta is reversed, new one applied.
	tx, err := s.GetTransaction(ctx, familyID, txID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	tx.Amount = core.Money{Cents: 5000}
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if got := mustBalance(t, s, familyID, walletID); got != 195000 {
		t.Fatalf("balance after update = %d, want 195000", got)
	}

	if err := s.DeleteTransaction(ctx, familyID, txID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if got := mustBalance(t, s, familyID, walletID); got != 200000 {
		t.Fatalf("balance after delete = %d, want 200000", got)
	}
}

func TestGoalBoundTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	goalID, err := s.CreateGoal(ctx, core.Goal{
		FamilyID: familyID,
		Name:     "Vacation",
		Target:   core.Money{Cents: 10000},
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	txID, err := s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 6000},
		Date:       core.NewDate(2025, 3, 10),
		GoalID:     goalID,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	g, err := s.GetGoal(ctx, familyID, goalID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if g.Saved.Cents != 6000 || g.Achieved {
		t.Fatalf("goal after first contribution = %+v", g)
	}

	_, err = s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 4000},
		Date:       core.NewDate(2025, 4, 2),
		GoalID:     goalID,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	g, err = s.GetGoal(ctx, familyID, goalID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if g.Saved.Cents != 10000 || !g.Achieved {
		t.Fatalf("goal after reaching target = %+v", g)
	}

	// Deleting a contribution rolls back saved cents and the flag.
	if err := s.DeleteTransaction(ctx, familyID, txID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	g, err = s.GetGoal(ctx, familyID, goalID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if g.Saved.Cents != 4000 || g.Achieved {
		t.Fatalf("goal after deleting contribution = %+v", g)
	}
}

func TestDeleteGoalDetachesTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	goalID, err := s.CreateGoal(ctx, core.Goal{
		FamilyID: familyID,
		Name:     "Vacation",
		Target:   core.Money{Cents: 10000},
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	txID, err := s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 2000},
		Date:       core.NewDate(2025, 3, 10),
		GoalID:     goalID,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := s.DeleteGoal(ctx, familyID, goalID); err != nil {
		t.Fatalf("DeleteGoal() error = %v", err)
	}

	tx, err := s.GetTransaction(ctx, familyID, txID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if tx.GoalID != 0 {
		t.Errorf("GoalID = %d, want 0 after goal deletion", tx.GoalID)
	}
}

func TestListTransactionsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	dates := []core.Date{
		core.NewDate(2025, 2, 20),
		core.NewDate(2025, 3, 5),
		core.NewDate(2025, 3, 25),
	}
	for _, d := range dates {
		_, err := s.CreateTransaction(ctx, core.Transaction{
			FamilyID:   familyID,
			WalletID:   walletID,
			CategoryID: categoryID,
			UserID:     userID,
			Kind:       core.Expense,
			Amount:     core.Money{Cents: 100},
			Date:       d,
		}, time.Now())
		if err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	march, err := s.ListTransactions(ctx, familyID, TxFilter{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(march) != 2 {
		t.Errorf("march transactions = %d, want 2", len(march))
	}

	all, err := s.ListTransactions(ctx, familyID, TxFilter{Year: 2025})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("2025 transactions = %d, want 3", len(all))
	}

	limited, err := s.ListTransactions(ctx, familyID, TxFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited transactions = %d, want 1", len(limited))
	}

	// Newest first.
	if len(all) == 3 && !all[0].Date.Time.After(all[2].Date.Time) {
		t.Errorf("expected descending date order, got %v first", all[0].Date)
	}
}

func TestMonthSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	incomeCat, err := s.CreateCategory(ctx, core.Category{
		FamilyID: familyID,
		Name:     "Salary",
		Kind:     core.Income,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	rows := []core.Transaction{
		{CategoryID: incomeCat, Kind: core.Income, Amount: core.Money{Cents: 250000}, Date: core.NewDate(2025, 3, 1)},
		{CategoryID: categoryID, Kind: core.Expense, Amount: core.Money{Cents: 12000}, Date: core.NewDate(2025, 3, 8)},
		{CategoryID: categoryID, Kind: core.Expense, Amount: core.Money{Cents: 8000}, Date: core.NewDate(2025, 3, 15)},
		// Outside the month, must not count.
		{CategoryID: categoryID, Kind: core.Expense, Amount: core.Money{Cents: 9999}, Date: core.NewDate(2025, 4, 1)},
	}
	for _, tx := range rows {
		tx.FamilyID = familyID
		tx.WalletID = walletID
		tx.UserID = userID
		if _, err := s.CreateTransaction(ctx, tx, time.Now()); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	summary, err := s.MonthSummary(ctx, familyID, 2025, 3)
	if err != nil {
		t.Fatalf("MonthSummary() error = %v", err)
	}
	if summary.IncomeTotal.Cents != 250000 {
		t.Errorf("IncomeTotal = %d, want 250000", summary.IncomeTotal.Cents)
	}
	if summary.ExpenseTotal.Cents != 20000 {
		t.Errorf("ExpenseTotal = %d, want 20000", summary.ExpenseTotal.Cents)
	}
	if len(summary.ByCategory) != 1 || summary.ByCategory[0].Name != "Groceries" || summary.ByCategory[0].Amount.Cents != 20000 {
		t.Errorf("unexpected ByCategory %+v", summary.ByCategory)
	}
	if len(summary.Wallets) != 1 {
		t.Errorf("expected 1 wallet snapshot, got %d", len(summary.Wallets))
	}
}

func TestSpentInCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	for _, cents := range []int64{1000, 2500} {
		_, err := s.CreateTransaction(ctx, core.Transaction{
			FamilyID:   familyID,
			WalletID:   walletID,
			CategoryID: categoryID,
			UserID:     userID,
			Kind:       core.Expense,
			Amount:     core.Money{Cents: cents},
			Date:       core.NewDate(2025, 5, 10),
		}, time.Now())
		if err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	spent, err := s.SpentInCategory(ctx, familyID, categoryID, 2025, 5)
	if err != nil {
		t.Fatalf("SpentInCategory() error = %v", err)
	}
	if spent.Cents != 3500 {
		t.Errorf("spent = %d, want 3500", spent.Cents)
	}

	empty, err := s.SpentInCategory(ctx, familyID, categoryID, 2025, 6)
	if err != nil {
		t.Fatalf("SpentInCategory() error = %v", err)
	}
	if empty.Cents != 0 {
		t.Errorf("spent in empty month = %d, want 0", empty.Cents)
	}
}

func TestBudgetDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, familyID, _, categoryID := seedFamily(t, s)

	b := core.Budget{
		FamilyID:   familyID,
		CategoryID: categoryID,
		Year:       2025,
		Month:      3,
		Limit:      core.Money{Cents: 30000},
	}
	if _, err := s.CreateBudget(ctx, b); err != nil {
		t.Fatalf("CreateBudget() error = %v", err)
	}
	if _, err := s.CreateBudget(ctx, b); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestRecurringLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, familyID, walletID, categoryID := seedFamily(t, s)
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	id, err := s.CreateRecurring(ctx, core.RecurringTransaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 999},
		Note:       "streaming",
		Frequency:  core.Monthly,
		StartDate:  core.NewDate(2025, 1, 15),
		Active:     true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	active, err := s.ListActiveRecurring(ctx, now)
	if err != nil {
		t.Fatalf("ListActiveRecurring() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != id {
		t.Fatalf("unexpected active templates %+v", active)
	}

	if err := s.MarkRecurringRun(ctx, id, now); err != nil {
		t.Fatalf("MarkRecurringRun() error = %v", err)
	}
	rt, err := s.GetRecurring(ctx, familyID, id)
	if err != nil {
		t.Fatalf("GetRecurring() error = %v", err)
	}
	if rt.LastRunAt.IsZero() {
		t.Error("LastRunAt not set after MarkRecurringRun")
	}

	if err := s.DeactivateRecurring(ctx, id); err != nil {
		t.Fatalf("DeactivateRecurring() error = %v", err)
	}
	active, err = s.ListActiveRecurring(ctx, now)
	if err != nil {
		t.Fatalf("ListActiveRecurring() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active templates, got %d", len(active))
	}
}

func TestDeleteRecurringDetachesInstances(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	rtID, err := s.CreateRecurring(ctx, core.RecurringTransaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 999},
		Note:       "streaming",
		Frequency:  core.Monthly,
		StartDate:  core.NewDate(2025, 1, 15),
		Active:     true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	txID, err := s.CreateTransaction(ctx, core.Transaction{
		FamilyID:    familyID,
		WalletID:    walletID,
		CategoryID:  categoryID,
		UserID:      userID,
		Kind:        core.Expense,
		Amount:      core.Money{Cents: 999},
		Date:        core.NewDate(2025, 2, 15),
		RecurringID: rtID,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := s.DeleteRecurring(ctx, familyID, rtID); err != nil {
		t.Fatalf("DeleteRecurring() error = %v", err)
	}

	tx, err := s.GetTransaction(ctx, familyID, txID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if tx.RecurringID != 0 {
		t.Errorf("RecurringID = %d, want 0 after template deletion", tx.RecurringID)
	}
}

func TestUpdateGoalRefreshesAchieved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, familyID, walletID, categoryID := seedFamily(t, s)

	goalID, err := s.CreateGoal(ctx, core.Goal{
		FamilyID: familyID,
		Name:     "Bike",
		Target:   core.Money{Cents: 50000},
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	_, err = s.CreateTransaction(ctx, core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 30000},
		Date:       core.NewDate(2025, 3, 1),
		GoalID:     goalID,
	}, time.Now())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	// Lowering the target below what is already saved flips achieved.
	g, err := s.GetGoal(ctx, familyID, goalID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	g.Target = core.Money{Cents: 25000}
	if err := s.UpdateGoal(ctx, g); err != nil {
		t.Fatalf("UpdateGoal() error = %v", err)
	}
	g, err = s.GetGoal(ctx, familyID, goalID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if !g.Achieved {
		t.Error("expected achieved after lowering target below saved")
	}
}

func TestExportJobLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, familyID, _, _ := seedFamily(t, s)
	now := time.Now()

	job := ExportJob{
		ID:        "job-1",
		FamilyID:  familyID,
		Format:    "xlsx",
		Year:      2025,
		Month:     3,
		CreatedAt: now,
	}
	if err := s.CreateExportJob(ctx, job); err != nil {
		t.Fatalf("CreateExportJob() error = %v", err)
	}

	got, err := s.GetExportJob(ctx, familyID, "job-1")
	if err != nil {
		t.Fatalf("GetExportJob() error = %v", err)
	}
	if got.Status != ExportPending {
		t.Errorf("Status = %q, want %q", got.Status, ExportPending)
	}

	if err := s.MarkExportDone(ctx, "job-1", "/tmp/2025-03.xlsx", now); err != nil {
		t.Fatalf("MarkExportDone() error = %v", err)
	}
	got, err = s.GetExportJob(ctx, familyID, "job-1")
	if err != nil {
		t.Fatalf("GetExportJob() error = %v", err)
	}
	if got.Status != ExportDone || got.FilePath != "/tmp/2025-03.xlsx" || got.CompletedAt.IsZero() {
		t.Errorf("unexpected job after done %+v", got)
	}

	failing := ExportJob{ID: "job-2", FamilyID: familyID, Format: "pdf", Year: 2025, Month: 3, CreatedAt: now}
	if err := s.CreateExportJob(ctx, failing); err != nil {
		t.Fatalf("CreateExportJob() error = %v", err)
	}
	if err := s.MarkExportFailed(ctx, "job-2", "render error", now); err != nil {
		t.Fatalf("MarkExportFailed() error = %v", err)
	}
	got, err = s.GetExportJob(ctx, familyID, "job-2")
	if err != nil {
		t.Fatalf("GetExportJob() error = %v", err)
	}
	if got.Status != ExportFailed || got.Error != "render error" {
		t.Errorf("unexpected job after failure %+v", got)
	}

	jobs, err := s.ListExportJobs(ctx, familyID, 0)
	if err != nil {
		t.Fatalf("ListExportJobs() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}

	// Scoped to the owning family.
	if _, err := s.GetExportJob(ctx, familyID+1, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign family, got %v", err)
	}
}

func TestValidExportFormat(t *testing.T) {
	cases := []struct {
		format string
		want   bool
	}{
		{"xlsx", true},
		{"pdf", true},
		{"csv", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidExportFormat(tc.format); got != tc.want {
			t.Errorf("ValidExportFormat(%q) = %v, want %v", tc.format, got, tc.want)
		}
	}
}
