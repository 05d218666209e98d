package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hearth/internal/core"
	"hearth/internal/storage"
)

// TransactionService orchestrates transaction writes: validation, the
// storage write with its balance deltas, and summary cache invalidation.
type TransactionService struct {
	store   *storage.Store
	reports *ReportService
}

func NewTransactionService(store *storage.Store, reports *ReportService) *TransactionService {
	return &TransactionService{
		store:   store,
		reports: reports,
	}
}

// Create validates and saves a transaction. The category must belong to
// the family and match the transaction's kind.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	if err := checkGoalBinding(t); err != nil {
		return 0, err
	}
	if err := s.checkCategory(ctx, t); err != nil {
		return 0, err
	}

	id, err := s.store.CreateTransaction(ctx, t, time.Now())
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.invalidate(t)
	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"family_id", t.FamilyID,
		"wallet_id", t.WalletID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)
	return id, nil
}

// Update rewrites a transaction; the old month's summary is invalidated
// too in case the date moved.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := checkGoalBinding(t); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, t); err != nil {
		return err
	}

	old, err := s.store.GetTransaction(ctx, t.FamilyID, t.ID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.invalidate(old)
	s.invalidate(t)
	return nil
}

// Delete removes a transaction, reversing its wallet and goal deltas.
func (s *TransactionService) Delete(ctx context.Context, familyID, id int64) error {
	old, err := s.store.GetTransaction(ctx, familyID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, familyID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidate(old)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, familyID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, familyID, id)
}

func (s *TransactionService) List(ctx context.Context, familyID int64, f storage.TxFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, familyID, f)
}

// checkGoalBinding rejects goal-bound rows that are not expenses. An
// income crediting the wallet while raising the goal's saved counter
// would count the same money twice.
func checkGoalBinding(t core.Transaction) error {
	if t.GoalID != 0 && t.Kind != core.Expense {
		return fmt.Errorf("%w: only expense transactions can fund a goal", core.ErrInvalidKind)
	}
	return nil
}

func (s *TransactionService) checkCategory(ctx context.Context, t core.Transaction) error {
	cat, err := s.store.GetCategory(ctx, t.FamilyID, t.CategoryID)
	if err != nil {
		return err
	}
	if cat.Kind != t.Kind {
		return fmt.Errorf("category %q is for %s transactions", cat.Name, cat.Kind)
	}
	return nil
}

func (s *TransactionService) invalidate(t core.Transaction) {
	if s.reports == nil {
		return
	}
	s.reports.Invalidate(t.FamilyID, t.Date.Year(), t.Date.Month())
}
