package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/youthmultiply/welcoming-college/internal/models"
)

const exportJobColumns = `id, format, filename, status, row_count, result_url, error_message, created_at, finished_at`

// UpdateExportJobParams lists the mutable job fields; nil fields are kept.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	RowCount     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// ExportJobRepository persists export jobs in PostgreSQL.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a job, filling id, status and creation time when unset.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	prepareJob(job)
	const query = `INSERT INTO export_jobs (` + exportJobColumns + `)
VALUES (:id, :format, :filename, :status, :row_count, :result_url, :error_message, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID returns a job. A missing row yields sql.ErrNoRows.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return &job, nil
}

// Update applies the non-nil fields of params.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Status != nil {
		add("status", *params.Status)
	}
	if params.RowCount != nil {
		add("row_count", *params.RowCount)
	}
	if params.ResultURL != nil {
		add("result_url", *params.ResultURL)
	}
	if params.ErrorMessage != nil {
		add("error_message", *params.ErrorMessage)
	}
	if params.FinishedAt != nil {
		add("finished_at", *params.FinishedAt)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE export_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update export job: %w", sql.ErrNoRows)
	}
	return nil
}

// ListUnfinished returns the oldest jobs that are still queued or processing.
func (r *ExportJobRepository) ListUnfinished(ctx context.Context, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list unfinished export jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs older than cutoff.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT ` + exportJobColumns + ` FROM export_jobs WHERE status = 'FINISHED' AND finished_at IS NOT NULL AND finished_at < $1 ORDER BY finished_at ASC LIMIT $2`
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished export jobs: %w", err)
	}
	return jobs, nil
}

// MemoryExportJobRepository keeps jobs in process memory when no database
// is configured. It mirrors ExportJobRepository, including sql.ErrNoRows.
type MemoryExportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewMemoryExportJobRepository constructs an empty store.
func NewMemoryExportJobRepository() *MemoryExportJobRepository {
	return &MemoryExportJobRepository{jobs: make(map[string]models.ExportJob)}
}

func (r *MemoryExportJobRepository) Create(_ context.Context, job *models.ExportJob) error {
	prepareJob(job)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("create export job: duplicate id %s", job.ID)
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryExportJobRepository) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get export job: %w", sql.ErrNoRows)
	}
	return &job, nil
}

func (r *MemoryExportJobRepository) Update(_ context.Context, id string, params UpdateExportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("update export job: %w", sql.ErrNoRows)
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.RowCount != nil {
		job.RowCount = *params.RowCount
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		job.FinishedAt = &at
	}
	r.jobs[id] = job
	return nil
}

func (r *MemoryExportJobRepository) ListUnfinished(_ context.Context, limit int) ([]models.ExportJob, error) {
	return r.filter(limit, func(j models.ExportJob) bool {
		return j.Status == models.ExportStatusQueued || j.Status == models.ExportStatusProcessing
	}, func(j models.ExportJob) time.Time { return j.CreatedAt }), nil
}

func (r *MemoryExportJobRepository) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return r.filter(limit, func(j models.ExportJob) bool {
		return j.Status == models.ExportStatusFinished && j.FinishedAt != nil && j.FinishedAt.Before(cutoff)
	}, func(j models.ExportJob) time.Time { return *j.FinishedAt }), nil
}

func (r *MemoryExportJobRepository) filter(limit int, keep func(models.ExportJob) bool, key func(models.ExportJob) time.Time) []models.ExportJob {
	r.mu.RLock()
	out := make([]models.ExportJob, 0)
	for _, job := range r.jobs {
		if keep(job) {
			out = append(out, job)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return key(out[i]).Before(key(out[j])) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func prepareJob(job *models.ExportJob) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
}
