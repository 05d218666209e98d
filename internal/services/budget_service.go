package services

import (
	"context"
	"fmt"

	"hearth/internal/core"
	"hearth/internal/storage"
)

// BudgetStatus is a budget with the month's actual spending against it.
type BudgetStatus struct {
	Budget    core.Budget
	Spent     core.Money
	Remaining core.Money
	Over      bool
}

// BudgetService manages per-category monthly budgets.
type BudgetService struct {
	store *storage.Store
}

func NewBudgetService(store *storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

// Create validates and saves a budget. The category must exist, belong
// to the family and be an expense category.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	cat, err := s.store.GetCategory(ctx, b.FamilyID, b.CategoryID)
	if err != nil {
		return 0, err
	}
	if cat.Kind != core.Expense {
		return 0, fmt.Errorf("%w: category %q is not an expense category", core.ErrInvalidKind, cat.Name)
	}
	return s.store.CreateBudget(ctx, b)
}

func (s *BudgetService) Get(ctx context.Context, familyID, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, familyID, id)
}

func (s *BudgetService) List(ctx context.Context, familyID int64, year, month int) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, familyID, year, month)
}

// UpdateLimit changes a budget's limit; period and category are fixed.
func (s *BudgetService) UpdateLimit(ctx context.Context, b core.Budget) error {
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	return s.store.UpdateBudget(ctx, b)
}

func (s *BudgetService) Delete(ctx context.Context, familyID, id int64) error {
	return s.store.DeleteBudget(ctx, familyID, id)
}

// Status reports one budget against the month's actual expenses.
func (s *BudgetService) Status(ctx context.Context, familyID, id int64) (BudgetStatus, error) {
	b, err := s.store.GetBudget(ctx, familyID, id)
	if err != nil {
		return BudgetStatus{}, err
	}
	return s.status(ctx, b)
}

// StatusForMonth reports all of a month's budgets with their spending.
func (s *BudgetService) StatusForMonth(ctx context.Context, familyID int64, year, month int) ([]BudgetStatus, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}
	budgets, err := s.store.ListBudgets(ctx, familyID, year, month)
	if err != nil {
		return nil, err
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.status(ctx, b)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (s *BudgetService) status(ctx context.Context, b core.Budget) (BudgetStatus, error) {
	spent, err := s.store.SpentInCategory(ctx, b.FamilyID, b.CategoryID, b.Year, b.Month)
	if err != nil {
		return BudgetStatus{}, err
	}

	remaining := b.Limit.Cents - spent.Cents
	if remaining < 0 {
		remaining = 0
	}
	return BudgetStatus{
		Budget:    b,
		Spent:     spent,
		Remaining: core.Money{Cents: remaining},
		Over:      spent.Cents > b.Limit.Cents,
	}, nil
}
