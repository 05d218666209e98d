package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"hearth/internal/core"
	"hearth/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fixture is a family with a user, a wallet and one category per kind.
type fixture struct {
	store      *storage.Store
	userID     int64
	familyID   int64
	walletID   int64
	expenseCat int64
	incomeCat  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newTestStore(t)
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
	familyID, err := s.CreateFamilyWithOwner(ctx, "Rossi", userID, now)
	if err != nil {
		t.Fatalf("CreateFamilyWithOwner() error = %v", err)
	}
	walletID, err := s.CreateWallet(ctx, core.Wallet{FamilyID: familyID, Name: "Checking", Currency: "EUR"}, now)
	if err != nil {
		t.Fatalf("CreateWallet() error = %v", err)
	}
	expenseCat, err := s.CreateCategory(ctx, core.Category{FamilyID: familyID, Name: "Groceries", Kind: core.Expense})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	incomeCat, err := s.CreateCategory(ctx, core.Category{FamilyID: familyID, Name: "Salary", Kind: core.Income})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	return &fixture{
		store:      s,
		userID:     userID,
		familyID:   familyID,
		walletID:   walletID,
		expenseCat: expenseCat,
		incomeCat:  incomeCat,
	}
}

func TestTransactionServiceRejectsKindMismatch(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil)

	_, err := svc.Create(context.Background(), core.Transaction{
		FamilyID:   f.familyID,
		WalletID:   f.walletID,
		CategoryID: f.expenseCat,
		UserID:     f.userID,
		Kind:       core.Income, // expense category
		Amount:     core.Money{Cents: 100},
		Date:       core.NewDate(2025, 3, 10),
	})
	if err == nil {
		t.Fatal("expected error for kind mismatch")
	}
}

func TestTransactionServiceCreateAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewTransactionService(f.store, nil)
	ctx := context.Background()

	id, err := svc.Create(ctx, core.Transaction{
		FamilyID:   f.familyID,
		WalletID:   f.walletID,
		CategoryID: f.expenseCat,
		UserID:     f.userID,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 2500},
		Date:       core.NewDate(2025, 3, 10),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tx, err := svc.Get(ctx, f.familyID, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tx.Amount.Cents != 2500 {
		t.Errorf("Amount = %d, want 2500", tx.Amount.Cents)
	}

	if err := svc.Delete(ctx, f.familyID, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, f.familyID, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRecurringProcessorCreatesDueTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	transactions := NewTransactionService(f.store, nil)
	processor := NewRecurringProcessor(f.store, transactions)

	_, err := f.store.CreateRecurring(ctx, core.RecurringTransaction{
		FamilyID:   f.familyID,
		WalletID:   f.walletID,
		CategoryID: f.expenseCat,
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

	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	count, err := processor.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("processed = %d, want 1", count)
	}

	txs, err := f.store.ListTransactions(ctx, f.familyID, storage.TxFilter{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].RecurringID == 0 || txs[0].Note != "streaming" || txs[0].Amount.Cents != 999 {
		t.Errorf("unexpected transaction %+v", txs[0])
	}

	// A second run the same day creates nothing.
	count, err = processor.ProcessDue(ctx, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if count != 0 {
		t.Errorf("second run processed = %d, want 0", count)
	}
}

func TestRecurringProcessorDeactivatesEndedTemplates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	transactions := NewTransactionService(f.store, nil)
	processor := NewRecurringProcessor(f.store, transactions)

	id, err := f.store.CreateRecurring(ctx, core.RecurringTransaction{
		FamilyID:   f.familyID,
		WalletID:   f.walletID,
		CategoryID: f.expenseCat,
		Kind:       core.Expense,
		Amount:     core.Money{Cents: 999},
		Note:       "ended subscription",
		Frequency:  core.Monthly,
		StartDate:  core.NewDate(2024, 1, 15),
		EndDate:    core.NewDate(2024, 12, 31),
		Active:     true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	count, err := processor.ProcessDue(ctx, now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if count != 0 {
		t.Errorf("processed = %d, want 0", count)
	}

	rt, err := f.store.GetRecurring(ctx, f.familyID, id)
	if err != nil {
		t.Fatalf("GetRecurring() error = %v", err)
	}
	if rt.Active {
		t.Error("expected template deactivated after its end date")
	}
}

func TestFamilyServiceInviteFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewFamilyService(f.store)

	joinerID, err := f.store.CreateUser(ctx, core.User{
		Email:        "ben@example.com",
		Name:         "Ben",
		PasswordHash: "hash",
		Role:         core.RoleMember,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	// Members cannot invite.
	if _, err := svc.Invite(ctx, f.familyID, core.RoleMember, "ben@example.com"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	inv, err := svc.Invite(ctx, f.familyID, core.RoleOwner, "Ben@Example.com")
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	if inv.Email != "ben@example.com" {
		t.Errorf("Email = %q, want lowercased", inv.Email)
	}

	// A different user cannot accept the token.
	stranger := core.User{ID: joinerID, Email: "carla@example.com"}
	if _, err := svc.Accept(ctx, inv.Token, stranger); !errors.Is(err, ErrWrongInvitee) {
		t.Fatalf("expected ErrWrongInvitee, got %v", err)
	}

	joiner, err := f.store.GetUserByID(ctx, joinerID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	fam, err := svc.Accept(ctx, inv.Token, joiner)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if fam.ID != f.familyID {
		t.Errorf("joined family = %d, want %d", fam.ID, f.familyID)
	}

	// Second accept fails: token consumed.
	if _, err := svc.Accept(ctx, inv.Token, joiner); !errors.Is(err, ErrInviteConsumed) {
		t.Fatalf("expected ErrInviteConsumed, got %v", err)
	}
}

func TestFamilyServiceRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewFamilyService(f.store)

	joinerID, err := f.store.CreateUser(ctx, core.User{
		Email:        "ben@example.com",
		Name:         "Ben",
		PasswordHash: "hash",
		Role:         core.RoleMember,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	inv, err := svc.Invite(ctx, f.familyID, core.RoleOwner, "ben@example.com")
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	joiner, err := f.store.GetUserByID(ctx, joinerID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if _, err := svc.Accept(ctx, inv.Token, joiner); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	// The owner cannot be removed.
	if err := svc.RemoveMember(ctx, f.familyID, f.userID, core.RoleOwner); !errors.Is(err, ErrOwnerImmovable) {
		t.Fatalf("expected ErrOwnerImmovable, got %v", err)
	}
	// Members cannot remove anyone.
	if err := svc.RemoveMember(ctx, f.familyID, joinerID, core.RoleMember); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if err := svc.RemoveMember(ctx, f.familyID, joinerID, core.RoleOwner); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	removed, err := f.store.GetUserByID(ctx, joinerID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if removed.FamilyID != 0 {
		t.Errorf("FamilyID = %d, want 0 after removal", removed.FamilyID)
	}
}

func TestBudgetServiceStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	budgets := NewBudgetService(f.store)
	transactions := NewTransactionService(f.store, nil)

	// Budgets only attach to expense categories.
	if _, err := budgets.Create(ctx, core.Budget{
		FamilyID:   f.familyID,
		CategoryID: f.incomeCat,
		Year:       2025,
		Month:      3,
		Limit:      core.Money{Cents: 30000},
	}); err == nil {
		t.Fatal("expected error for income category budget")
	}

	budgetID, err := budgets.Create(ctx, core.Budget{
		FamilyID:   f.familyID,
		CategoryID: f.expenseCat,
		Year:       2025,
		Month:      3,
		Limit:      core.Money{Cents: 30000},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, cents := range []int64{20000, 15000} {
		if _, err := transactions.Create(ctx, core.Transaction{
			FamilyID:   f.familyID,
			WalletID:   f.walletID,
			CategoryID: f.expenseCat,
			UserID:     f.userID,
			Kind:       core.Expense,
			Amount:     core.Money{Cents: cents},
			Date:       core.NewDate(2025, 3, 10),
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	st, err := budgets.Status(ctx, f.familyID, budgetID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Spent.Cents != 35000 {
		t.Errorf("Spent = %d, want 35000", st.Spent.Cents)
	}
	if st.Remaining.Cents != 0 {
		t.Errorf("Remaining = %d, want 0 when over budget", st.Remaining.Cents)
	}
	if !st.Over {
		t.Error("expected Over = true")
	}

	all, err := budgets.StatusForMonth(ctx, f.familyID, 2025, 3)
	if err != nil {
		t.Fatalf("StatusForMonth() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 status, got %d", len(all))
	}

	if _, err := budgets.StatusForMonth(ctx, f.familyID, 2025, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestGoalServiceContribute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	transactions := NewTransactionService(f.store, nil)
	goals := NewGoalService(f.store, transactions)

	goalID, err := goals.Create(ctx, core.Goal{
		FamilyID: f.familyID,
		Name:     "Vacation",
		Target:   core.Money{Cents: 10000},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	txID, err := goals.Contribute(ctx, f.familyID, goalID, f.walletID, f.expenseCat,
		f.userID, core.Money{Cents: 10000}, core.NewDate(2025, 3, 10), "")
	if err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}

	g, err := goals.Get(ctx, f.familyID, goalID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if g.Saved.Cents != 10000 || !g.Achieved {
		t.Errorf("goal after contribution = %+v", g)
	}

	tx, err := transactions.Get(ctx, f.familyID, txID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tx.GoalID != goalID || tx.Kind != core.Expense {
		t.Errorf("unexpected transaction %+v", tx)
	}
	if tx.Note != "Contribution to Vacation" {
		t.Errorf("Note = %q, want default contribution note", tx.Note)
	}

	// The wallet paid for the contribution.
	w, err := f.store.GetWallet(ctx, f.familyID, f.walletID)
	if err != nil {
		t.Fatalf("GetWallet() error = %v", err)
	}
	if w.Balance.Cents != -10000 {
		t.Errorf("Balance = %d, want -10000", w.Balance.Cents)
	}
}

func TestGoalBoundTransactionsMustBeExpenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	transactions := NewTransactionService(f.store, nil)
	goals := NewGoalService(f.store, transactions)

	goalID, err := goals.Create(ctx, core.Goal{
		FamilyID: f.familyID,
		Name:     "Vacation",
		Target:   core.Money{Cents: 10000},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// An income crediting the wallet while raising the goal would count
	// the same money twice.
	_, err = transactions.Create(ctx, core.Transaction{
		FamilyID:   f.familyID,
		WalletID:   f.walletID,
		CategoryID: f.incomeCat,
		UserID:     f.userID,
		Kind:       core.Income,
		Amount:     core.Money{Cents: 5000},
		Date:       core.NewDate(2025, 3, 10),
		GoalID:     goalID,
	})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	g, err := goals.Get(ctx, f.familyID, goalID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if g.Saved.Cents != 0 {
		t.Errorf("Saved = %d, want 0 after rejected income", g.Saved.Cents)
	}
	w, err := f.store.GetWallet(ctx, f.familyID, f.walletID)
	if err != nil {
		t.Fatalf("GetWallet() error = %v", err)
	}
	if w.Balance.Cents != 0 {
		t.Errorf("Balance = %d, want 0 after rejected income", w.Balance.Cents)
	}

	// Updates cannot attach a goal to an income either.
	txID, err := transactions.Create(ctx, core.Transaction{
		FamilyID:   f.familyID,
		WalletID:   f.walletID,
		CategoryID: f.incomeCat,
		UserID:     f.userID,
		Kind:       core.Income,
		Amount:     core.Money{Cents: 5000},
		Date:       core.NewDate(2025, 3, 10),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err = transactions.Update(ctx, core.Transaction{
		ID:         txID,
		FamilyID:   f.familyID,
		WalletID:   f.walletID,
		CategoryID: f.incomeCat,
		UserID:     f.userID,
		Kind:       core.Income,
		Amount:     core.Money{Cents: 5000},
		Date:       core.NewDate(2025, 3, 10),
		GoalID:     goalID,
	})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind on update, got %v", err)
	}
}
