package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hearth/internal/amqp"
	"hearth/internal/cache"
	"hearth/internal/core"
	"hearth/internal/storage"
)

// ReportService serves month summaries through an LRU cache and hands
// export and digest work to the report worker over AMQP.
type ReportService struct {
	store      *storage.Store
	amqpClient *amqp.Client
	summaries  *cache.LRUCache[core.MonthSummary]
}

func NewReportService(store *storage.Store, amqpClient *amqp.Client, cacheSize int, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		store:      store,
		amqpClient: amqpClient,
		summaries:  cache.NewLRUCache[core.MonthSummary](cacheSize, cacheTTL),
	}
}

// MonthSummary returns the cached summary for a family's month, computing
// it from storage on a miss.
func (s *ReportService) MonthSummary(ctx context.Context, familyID int64, year, month int) (core.MonthSummary, error) {
	if month < 1 || month > 12 {
		return core.MonthSummary{}, core.ErrInvalidMonth
	}

	key := summaryKey(familyID, year, month)
	if summary, ok := s.summaries.Get(key); ok {
		return summary, nil
	}

	summary, err := s.store.MonthSummary(ctx, familyID, year, month)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("compute month summary: %w", err)
	}

	s.summaries.Set(key, summary)
	return summary, nil
}

// Invalidate drops the cached summary for a family's month. Transaction
// writes call this so summaries never serve stale totals past the TTL.
func (s *ReportService) Invalidate(familyID int64, year, month int) {
	s.summaries.Delete(summaryKey(familyID, year, month))
}

// CleanExpired evicts expired cache entries, returning the count removed.
func (s *ReportService) CleanExpired() int {
	return s.summaries.CleanExpired()
}

// EnqueueExport records a pending export job and publishes it for the
// report worker. Returns the job ID clients poll with.
func (s *ReportService) EnqueueExport(ctx context.Context, familyID int64, format string, year, month int) (string, error) {
	if !storage.ValidExportFormat(format) {
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if month < 1 || month > 12 {
		return "", core.ErrInvalidMonth
	}
	if s.amqpClient == nil {
		return "", fmt.Errorf("export queue unavailable")
	}

	job := storage.ExportJob{
		ID:        uuid.NewString(),
		FamilyID:  familyID,
		Format:    format,
		Year:      year,
		Month:     month,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateExportJob(ctx, job); err != nil {
		return "", fmt.Errorf("record export job: %w", err)
	}

	msg := amqp.NewExportJobMessage(job.ID, familyID, format, year, month)
	if err := s.amqpClient.PublishExport(ctx, msg); err != nil {
		// The job row stays pending; a failed publish is surfaced so the
		// client can retry.
		if markErr := s.store.MarkExportFailed(ctx, job.ID, "publish failed", time.Now()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export job failed",
				"job_id", job.ID, "error", markErr)
		}
		return "", fmt.Errorf("enqueue export: %w", err)
	}

	return job.ID, nil
}

// ExportJob returns one of the family's export jobs.
func (s *ReportService) ExportJob(ctx context.Context, familyID int64, jobID string) (storage.ExportJob, error) {
	return s.store.GetExportJob(ctx, familyID, jobID)
}

// ListExportJobs returns the family's most recent export jobs.
func (s *ReportService) ListExportJobs(ctx context.Context, familyID int64, limit int) ([]storage.ExportJob, error) {
	return s.store.ListExportJobs(ctx, familyID, limit)
}

// EnqueueDigest asks the report worker to email a family's month summary
// to its members.
func (s *ReportService) EnqueueDigest(ctx context.Context, familyID int64, year, month int) error {
	if month < 1 || month > 12 {
		return core.ErrInvalidMonth
	}
	if s.amqpClient == nil {
		return fmt.Errorf("digest queue unavailable")
	}
	return s.amqpClient.PublishDigest(ctx, amqp.NewDigestMessage(familyID, year, month))
}

func summaryKey(familyID int64, year, month int) string {
	return fmt.Sprintf("summary:%d:%d-%02d", familyID, year, month)
}
