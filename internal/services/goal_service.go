package services

import (
	"context"
	"fmt"
	"log/slog"

	"hearth/internal/core"
	"hearth/internal/storage"
)

// GoalService manages savings goals. Money only enters a goal through
// contribution transactions, so wallet balances and saved amounts always
// agree.
type GoalService struct {
	store        *storage.Store
	transactions *TransactionService
}

func NewGoalService(store *storage.Store, transactions *TransactionService) *GoalService {
	return &GoalService{
		store:        store,
		transactions: transactions,
	}
}

func (s *GoalService) Create(ctx context.Context, g core.Goal) (int64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	g.Saved = core.Money{}
	g.Achieved = false
	return s.store.CreateGoal(ctx, g)
}

func (s *GoalService) Get(ctx context.Context, familyID, id int64) (core.Goal, error) {
	return s.store.GetGoal(ctx, familyID, id)
}

func (s *GoalService) List(ctx context.Context, familyID int64) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, familyID)
}

// Update changes a goal's name, target or deadline. Saved amounts only
// move through contributions.
func (s *GoalService) Update(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return s.store.UpdateGoal(ctx, g)
}

func (s *GoalService) Delete(ctx context.Context, familyID, id int64) error {
	return s.store.DeleteGoal(ctx, familyID, id)
}

// Contribute books an expense transaction bound to the goal: the amount
// leaves the wallet and raises the goal's saved counter, flipping the
// achieved flag once the target is reached. Deleting the transaction
// withdraws the contribution.
func (s *GoalService) Contribute(ctx context.Context, familyID, goalID, walletID, categoryID, userID int64, amount core.Money, date core.Date, note string) (int64, error) {
	goal, err := s.store.GetGoal(ctx, familyID, goalID)
	if err != nil {
		return 0, err
	}
	if note == "" {
		note = fmt.Sprintf("Contribution to %s", goal.Name)
	}

	tx := core.Transaction{
		FamilyID:   familyID,
		WalletID:   walletID,
		CategoryID: categoryID,
		UserID:     userID,
		Kind:       core.Expense,
		Amount:     amount,
		Date:       date,
		Note:       note,
		GoalID:     goalID,
	}

	id, err := s.transactions.Create(ctx, tx)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Goal contribution booked",
		"goal_id", goalID,
		"transaction_id", id,
		"amount_cents", amount.Cents)
	return id, nil
}
