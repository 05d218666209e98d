package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hearth/internal/core"
	"hearth/internal/storage"
)

// RecurringProcessor turns due recurring templates into real transactions.
type RecurringProcessor struct {
	store        *storage.Store
	transactions *TransactionService
}

func NewRecurringProcessor(store *storage.Store, transactions *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		store:        store,
		transactions: transactions,
	}
}

// ProcessDue scans active templates and executes every due one: it creates
// the concrete transaction, advances LastRunAt and deactivates templates
// whose end date has passed. Returns the number of transactions created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.store.ListActiveRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0

	for _, rt := range templates {
		if !rt.EndDate.IsZero() && now.After(endOfDay(rt.EndDate)) {
			if err := p.store.DeactivateRecurring(ctx, rt.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to deactivate completed template",
					"recurring_id", rt.ID,
					"error", err)
			} else {
				slog.InfoContext(ctx, "Recurring template completed",
					"recurring_id", rt.ID,
					"end_date", rt.EndDate.Format("2006-01-02"))
			}
			continue
		}

		checker, err := GetDuenessChecker(rt.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping template with unknown frequency",
				"recurring_id", rt.ID,
				"frequency", rt.Frequency)
			continue
		}
		if !checker.IsDue(rt.LastRunAt, now, rt.StartDate) {
			continue
		}

		tx := core.Transaction{
			FamilyID:    rt.FamilyID,
			WalletID:    rt.WalletID,
			CategoryID:  rt.CategoryID,
			Kind:        rt.Kind,
			Amount:      rt.Amount,
			Date:        core.Date{Time: now},
			Note:        rt.Note,
			RecurringID: rt.ID,
		}

		id, err := p.transactions.Create(ctx, tx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from template",
				"recurring_id", rt.ID,
				"note", rt.Note,
				"error", err)
			continue
		}

		if err := p.store.MarkRecurringRun(ctx, rt.ID, now); err != nil {
			// The transaction exists; the template will look due again on
			// the next tick, so this needs an operator's eye.
			slog.ErrorContext(ctx, "Failed to advance last run time",
				"recurring_id", rt.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"transaction_id", id,
			"recurring_id", rt.ID,
			"amount_cents", rt.Amount.Cents,
			"frequency", rt.Frequency)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}

// endOfDay returns the last instant of the date's day, so templates stay
// executable through their whole end date.
func endOfDay(d core.Date) time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 23, 59, 59, 0, d.Location())
}
