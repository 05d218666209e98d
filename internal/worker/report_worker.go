// Package worker implements the report worker: it consumes export jobs
// and digest requests from AMQP, renders files and sends email.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"hearth/internal/amqp"
	"hearth/internal/core"
	"hearth/internal/mail"
	"hearth/internal/report"
	"hearth/internal/storage"
)

// DigestSender is satisfied by mail.Mailer; kept narrow for tests.
type DigestSender interface {
	SendDigest(ctx context.Context, recipients []string, family core.Family, summary core.MonthSummary) error
}

// ReportWorker renders month exports to the export directory and mails
// digests to family members.
type ReportWorker struct {
	store     *storage.Store
	mailer    DigestSender
	exportDir string

	mu             sync.Mutex
	lastDigestTick time.Time
}

func NewReportWorker(store *storage.Store, mailer DigestSender, exportDir string) *ReportWorker {
	return &ReportWorker{
		store:     store,
		mailer:    mailer,
		exportDir: exportDir,
	}
}

// HandleExport renders one export job. Render failures mark the job
// failed and are not requeued; storage failures are, so transient
// database trouble retries.
func (w *ReportWorker) HandleExport(ctx context.Context, msg *amqp.ExportJobMessage) error {
	job, err := w.store.GetExportJob(ctx, msg.FamilyID, msg.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Dropping export for unknown job", "job_id", msg.JobID)
			return nil
		}
		return fmt.Errorf("load export job: %w", err)
	}
	if job.Status != storage.ExportPending {
		slog.InfoContext(ctx, "Export job already handled",
			"job_id", job.ID, "status", job.Status)
		return nil
	}

	data, err := w.exportData(ctx, job.FamilyID, job.Year, job.Month)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%d-%02d-%s.%s", job.Year, job.Month, shortID(job.ID), job.Format)
	path := filepath.Join(w.exportDir, filename)

	switch job.Format {
	case "xlsx":
		err = report.WriteXLSX(path, data)
	case "pdf":
		err = report.WritePDF(path, data)
	default:
		err = fmt.Errorf("unsupported format %q", job.Format)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Export render failed",
			"job_id", job.ID, "format", job.Format, "error", err)
		if markErr := w.store.MarkExportFailed(ctx, job.ID, err.Error(), time.Now()); markErr != nil {
			return fmt.Errorf("mark export failed: %w", markErr)
		}
		return nil
	}

	if err := w.store.MarkExportDone(ctx, job.ID, path, time.Now()); err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}

	slog.InfoContext(ctx, "Export rendered",
		"job_id", job.ID,
		"family_id", job.FamilyID,
		"format", job.Format,
		"path", path)
	return nil
}

// HandleDigest mails a family's month summary to all its members.
func (w *ReportWorker) HandleDigest(ctx context.Context, msg *amqp.DigestMessage) error {
	if w.mailer == nil {
		slog.WarnContext(ctx, "Mailer not configured, dropping digest",
			"family_id", msg.FamilyID)
		return nil
	}

	family, err := w.store.GetFamily(ctx, msg.FamilyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Dropping digest for unknown family", "family_id", msg.FamilyID)
			return nil
		}
		return fmt.Errorf("load family: %w", err)
	}

	summary, err := w.store.MonthSummary(ctx, msg.FamilyID, msg.Year, msg.Month)
	if err != nil {
		return fmt.Errorf("month summary: %w", err)
	}

	members, err := w.store.ListFamilyMembers(ctx, msg.FamilyID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	recipients := make([]string, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, m.Email)
	}

	if err := w.mailer.SendDigest(ctx, recipients, family, summary); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Digest sent",
		"family_id", msg.FamilyID,
		"year", msg.Year,
		"month", msg.Month,
		"recipients", len(recipients))
	return nil
}

// EnqueueMonthlyDigests publishes a previous-month digest for every
// family when now falls on the configured day of month. At most one
// fanout per calendar month.
func (w *ReportWorker) EnqueueMonthlyDigests(ctx context.Context, client *amqp.Client, digestDay int, now time.Time) error {
	if now.Day() != digestDay {
		return nil
	}

	w.mu.Lock()
	already := w.lastDigestTick.Year() == now.Year() && w.lastDigestTick.Month() == now.Month()
	if !already {
		w.lastDigestTick = now
	}
	w.mu.Unlock()
	if already {
		return nil
	}

	prev := now.AddDate(0, -1, 0)
	families, err := w.store.ListFamilies(ctx)
	if err != nil {
		return fmt.Errorf("list families: %w", err)
	}

	for _, f := range families {
		msg := amqp.NewDigestMessage(f.ID, prev.Year(), int(prev.Month()))
		if err := client.PublishDigest(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to enqueue digest",
				"family_id", f.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Monthly digests enqueued",
		"families", len(families),
		"year", prev.Year(),
		"month", int(prev.Month()))
	return nil
}

func (w *ReportWorker) exportData(ctx context.Context, familyID int64, year, month int) (report.ExportData, error) {
	family, err := w.store.GetFamily(ctx, familyID)
	if err != nil {
		return report.ExportData{}, fmt.Errorf("load family: %w", err)
	}
	summary, err := w.store.MonthSummary(ctx, familyID, year, month)
	if err != nil {
		return report.ExportData{}, fmt.Errorf("month summary: %w", err)
	}
	txs, err := w.store.ListTransactions(ctx, familyID, storage.TxFilter{Year: year, Month: month})
	if err != nil {
		return report.ExportData{}, fmt.Errorf("list transactions: %w", err)
	}

	cats, err := w.store.ListCategories(ctx, familyID)
	if err != nil {
		return report.ExportData{}, fmt.Errorf("list categories: %w", err)
	}
	catNames := make(map[int64]string, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
	}

	wallets, err := w.store.ListWallets(ctx, familyID)
	if err != nil {
		return report.ExportData{}, fmt.Errorf("list wallets: %w", err)
	}
	walletNames := make(map[int64]string, len(wallets))
	for _, wl := range wallets {
		walletNames[wl.ID] = wl.Name
	}

	return report.ExportData{
		Family:        family,
		Summary:       summary,
		Transactions:  txs,
		CategoryNames: catNames,
		WalletNames:   walletNames,
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var _ DigestSender = (*mail.Mailer)(nil)
