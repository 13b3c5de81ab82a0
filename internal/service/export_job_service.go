package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/repository"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/jobs"
	"github.com/youthmultiply/welcoming-college/pkg/storage"
)

// JobTypeParticipantExport tags export jobs on the worker queue.
const JobTypeParticipantExport = "participant_export"

const (
	interruptedMessage  = "export interrupted by restart"
	failureWriteTimeout = 5 * time.Second
)

// ExportJobStore persists export job records.
type ExportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListUnfinished(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, int64, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type artifactBuilder interface {
	Build(ctx context.Context, token string, format models.ExportFormat, filename, mode string) (*Artifact, error)
}

// ExportJobConfig governs download URLs and cleanup.
type ExportJobConfig struct {
	DownloadPrefix  string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is an opened export file ready for streaming.
type ExportDownload struct {
	File        *os.File
	Size        int64
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService manages the lifecycle of asynchronous exports.
type ExportJobService struct {
	repo      ExportJobStore
	queue     jobDispatcher
	storage   fileStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobConfig
}

// NewExportJobService constructs the service.
func NewExportJobService(repo ExportJobStore, queue jobDispatcher, store fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.DownloadPrefix == "" {
		cfg.DownloadPrefix = "/exports"
	}
	return &ExportJobService{
		repo:      repo,
		queue:     queue,
		storage:   store,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob validates the request, records the job and enqueues it. The
// backend token only travels with the queued job and is never persisted.
func (s *ExportJobService) CreateJob(ctx context.Context, req models.ExportRequest, token string) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be one of xlsx, pdf, csv")
	}
	job := &models.ExportJob{
		Format:   req.Format,
		Filename: ExportFilename(req.Format, req.Filename),
		Status:   models.ExportStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeParticipantExport, Payload: token}); err != nil {
		s.markFailed(ctx, job.ID, "failed to enqueue job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.logger.Info("export job queued", zap.String("job_id", job.ID), zap.String("format", string(job.Format)))
	return job, nil
}

// GetStatus returns the job record.
func (s *ExportJobService) GetStatus(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	claims, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	job, err := s.GetStatus(ctx, claims.JobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || extractToken(*job.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, size, err := s.storage.Open(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}
	return &ExportDownload{
		File:        file,
		Size:        size,
		Filename:    job.Filename,
		ContentType: job.Format.ContentType(),
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// RecoverPendingJobs fails jobs a previous process left queued or
// processing. Their backend token died with that process, so they cannot be
// resumed.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListUnfinished(ctx, 100)
	if err != nil {
		s.logger.Warn("failed to list unfinished export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		s.markFailed(ctx, job.ID, interruptedMessage)
	}
	if len(pending) > 0 {
		s.logger.Info("failed interrupted export jobs", zap.Int("count", len(pending)))
	}
}

// StartCleanup purges expired export files periodically until ctx is done.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes files of finished jobs older than the result TTL
// and any stray files past the TTL.
func (s *ExportJobService) CleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	finished, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range finished {
		if job.ResultURL == nil {
			continue
		}
		claims, err := s.signer.Parse(extractToken(*job.ResultURL), true)
		if err != nil {
			continue
		}
		if err := s.storage.Delete(claims.Path); err != nil {
			s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

func (s *ExportJobService) markFailed(ctx context.Context, id, msg string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	failed := models.ExportStatusFailed
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
}

func extractToken(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

// ExportWorker runs queued export jobs.
type ExportWorker struct {
	repo     ExportJobStore
	exporter artifactBuilder
	storage  fileStorage
	signer   *storage.SignedURLSigner
	prefix   string
	logger   *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo ExportJobStore, exporter artifactBuilder, store fileStorage, signer *storage.SignedURLSigner, downloadPrefix string, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if downloadPrefix == "" {
		downloadPrefix = "/exports"
	}
	return &ExportWorker{
		repo:     repo,
		exporter: exporter,
		storage:  store,
		signer:   signer,
		prefix:   strings.TrimRight(downloadPrefix, "/"),
		logger:   logger,
	}
}

// Handle processes one queue job. Failures are recorded on the job and
// returned to the queue, which does not retry exports.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return err
	}

	token, _ := job.Payload.(string)
	artifact, err := w.exporter.Build(ctx, token, record.Format, record.Filename, ExportModeAsync)
	if err == nil {
		err = w.publish(ctx, record, artifact)
	}
	if err != nil {
		w.fail(ctx, job.ID, err)
		return err
	}
	return nil
}

func (w *ExportWorker) publish(ctx context.Context, record *models.ExportJob, artifact *Artifact) error {
	relPath, err := w.storage.Save(path.Join(record.ID, artifact.Filename), artifact.Data)
	if err != nil {
		return err
	}
	token, _, err := w.signer.Generate(record.ID, relPath)
	if err != nil {
		return err
	}
	finished := models.ExportStatusFinished
	url := w.prefix + "/" + token
	rows := artifact.Rows
	now := time.Now().UTC()
	if err := w.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		RowCount:   &rows,
		ResultURL:  &url,
		FinishedAt: &now,
	}); err != nil {
		w.logger.Warn("failed to mark export job finished", zap.String("job_id", record.ID), zap.Error(err))
		return err
	}
	return nil
}

// fail records the failure even when ctx was cancelled by a queue shutdown.
func (w *ExportWorker) fail(ctx context.Context, id string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	msg := appErrors.FromError(cause).Message
	failed := models.ExportStatusFailed
	now := time.Now().UTC()
	if err := w.repo.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
}
