package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ExportJob tracks an asynchronous report export from enqueue to file.
type ExportJob struct {
	ID          string
	FamilyID    int64
	Format      string
	Year        int
	Month       int
	Status      string
	FilePath    string
	Error       string
	CreatedAt   time.Time
	CompletedAt time.Time
}

const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportFailed  = "failed"
)

func (s *Store) CreateExportJob(ctx context.Context, job ExportJob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO export_jobs (id, family_id, format, year, month, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.FamilyID, job.Format, job.Year, job.Month, ExportPending, encodeTime(job.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	return nil
}

func (s *Store) GetExportJob(ctx context.Context, familyID int64, id string) (ExportJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, family_id, format, year, month, status, file_path, error, created_at, completed_at
		 FROM export_jobs WHERE id = ? AND family_id = ?`, id, familyID)
	return scanExportJob(row)
}

func (s *Store) ListExportJobs(ctx context.Context, familyID int64, limit int) ([]ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, family_id, format, year, month, status, file_path, error, created_at, completed_at
		 FROM export_jobs WHERE family_id = ? ORDER BY created_at DESC LIMIT ?`, familyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ExportJob
	for rows.Next() {
		job, err := scanExportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *Store) MarkExportDone(ctx context.Context, id, filePath string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = ?, file_path = ?, completed_at = ? WHERE id = ?`,
		ExportDone, filePath, encodeTime(completedAt), id)
	if err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Store) MarkExportFailed(ctx context.Context, id, reason string, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_jobs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		ExportFailed, reason, encodeTime(completedAt), id)
	if err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return requireRowAffected(res)
}

func scanExportJob(row rowScanner) (ExportJob, error) {
	var (
		job       ExportJob
		filePath  sql.NullString
		errText   sql.NullString
		created   string
		completed sql.NullString
	)
	err := row.Scan(&job.ID, &job.FamilyID, &job.Format, &job.Year, &job.Month,
		&job.Status, &filePath, &errText, &created, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportJob{}, fmt.Errorf("export job: %w", ErrNotFound)
	}
	if err != nil {
		return ExportJob{}, fmt.Errorf("scan export job: %w", err)
	}
	job.FilePath = filePath.String
	job.Error = errText.String
	if job.CreatedAt, err = decodeTime(created); err != nil {
		return ExportJob{}, fmt.Errorf("decode export created_at: %w", err)
	}
	if job.CompletedAt, err = scanNullTime(completed); err != nil {
		return ExportJob{}, fmt.Errorf("decode export completed_at: %w", err)
	}
	return job, nil
}

// ValidExportFormat reports whether format names a supported export type.
func ValidExportFormat(format string) bool {
	return format == "xlsx" || format == "pdf"
}
