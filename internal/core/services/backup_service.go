package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
)

const uploadTimeout = 30 * time.Second

// BackupPolicy tunes the backup worker.
type BackupPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	PollInterval time.Duration
	BatchSize    int
	// StaleAfter is how long a claimed job may stay running before another
	// worker may take it over.
	StaleAfter time.Duration
}

// DefaultBackupPolicy is used for any zero field of a configured policy.
var DefaultBackupPolicy = BackupPolicy{
	MaxAttempts:  5,
	BaseDelay:    30 * time.Second,
	MaxDelay:     30 * time.Minute,
	PollInterval: 15 * time.Second,
	BatchSize:    10,
	StaleAfter:   10 * time.Minute,
}

func (p BackupPolicy) withDefaults() BackupPolicy {
	d := DefaultBackupPolicy
	if p.MaxAttempts > 0 {
		d.MaxAttempts = p.MaxAttempts
	}
	if p.BaseDelay > 0 {
		d.BaseDelay = p.BaseDelay
	}
	if p.MaxDelay > 0 {
		d.MaxDelay = p.MaxDelay
	}
	if p.PollInterval > 0 {
		d.PollInterval = p.PollInterval
	}
	if p.BatchSize > 0 {
		d.BatchSize = p.BatchSize
	}
	if p.StaleAfter > 0 {
		d.StaleAfter = p.StaleAfter
	}
	return d
}

// Backoff returns the delay before retry number attempt (1-based), without jitter.
func (p BackupPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay || delay <= 0 {
			return p.MaxDelay
		}
	}
	return min(delay, p.MaxDelay)
}

// backupService owns the snapshot upload queue.
type backupService struct {
	BaseService
	repo     portsrepo.BackupJobRepositoryFacade
	uploader portssvc.BackupUploader
	policy   BackupPolicy
	wake     chan struct{}
	now      func() time.Time
	jitter   func(time.Duration) time.Duration
}

// BackupOption configures the backup service.
type BackupOption func(*backupService)

// WithBackupUploader sets the external store. Without one the queue is disabled.
func WithBackupUploader(uploader portssvc.BackupUploader) BackupOption {
	return func(s *backupService) {
		s.uploader = uploader
	}
}

func WithBackupPolicy(policy BackupPolicy) BackupOption {
	return func(s *backupService) {
		s.policy = policy.withDefaults()
	}
}

func WithBackupClock(now func() time.Time) BackupOption {
	return func(s *backupService) {
		s.now = now
	}
}

// WithBackupJitter replaces the random jitter added to retry delays.
func WithBackupJitter(jitter func(time.Duration) time.Duration) BackupOption {
	return func(s *backupService) {
		s.jitter = jitter
	}
}

// NewBackupService creates the backup queue service.
func NewBackupService(repo portsrepo.BackupJobRepositoryFacade, options ...BackupOption) portssvc.BackupSvcFacade {
	svc := &backupService{
		repo:   repo,
		policy: DefaultBackupPolicy,
		wake:   make(chan struct{}, 1),
		now:    time.Now,
		jitter: halfJitter,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BackupSvcFacade = (*backupService)(nil)

// halfJitter adds up to half of d.
func halfJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d / 2)))
}

func (s *backupService) Enabled() bool {
	return s.uploader != nil
}

func (s *backupService) NewJob(memo domain.Memo) (domain.BackupJob, error) {
	return domain.NewBackupJob(memo, s.policy.MaxAttempts, s.now())
}

func (s *backupService) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *backupService) Run(ctx context.Context) error {
	if !s.Enabled() {
		s.LogInfo(ctx, "Backup worker disabled: no uploader configured")
		return nil
	}
	s.LogInfo(ctx, "Backup worker started", slog.Duration("poll_interval", s.policy.PollInterval))

	ticker := time.NewTicker(s.policy.PollInterval)
	defer ticker.Stop()
	for {
		if released, err := s.repo.ReleaseStaleBackupJobs(ctx, s.now().Add(-s.policy.StaleAfter)); err != nil {
			if ctx.Err() == nil {
				s.LogError(ctx, err, "Failed to release stale backup jobs")
			}
		} else if released > 0 {
			s.LogWarn(ctx, "Released stale backup jobs", slog.Int64("count", released))
		}

		// Drain full batches before waiting again.
		for {
			n, err := s.ProcessDue(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.LogError(ctx, err, "Backup batch failed")
				}
				break
			}
			if n < s.policy.BatchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			s.LogInfo(ctx, "Backup worker stopped")
			return nil
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

func (s *backupService) ProcessDue(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	jobs, err := s.repo.ClaimDueBackupJobs(ctx, s.now(), s.policy.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to claim backup jobs: %w", err)
	}
	for _, job := range jobs {
		if err := s.attempt(ctx, job); err != nil {
			return len(jobs), err
		}
	}
	return len(jobs), nil
}

// attempt uploads one claimed job and records the outcome. Upload failures
// are not errors of attempt; only failing to record the outcome is.
func (s *backupService) attempt(ctx context.Context, job domain.BackupJob) error {
	logger := s.GetLogger(ctx).With(slog.String("job_id", job.JobID), slog.String("memo_id", job.MemoID))
	attempts := job.Attempts + 1

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	externalID, uploadErr := s.uploader.Upload(uploadCtx, job.ObjectName(), job.Snapshot)
	cancel()
	now := s.now()

	if uploadErr == nil {
		if err := s.repo.MarkBackupJobDone(ctx, job.JobID, externalID, now); err != nil {
			return fmt.Errorf("failed to mark backup job %s done: %w", job.JobID, err)
		}
		logger.Info("Memo snapshot backed up", slog.String("external_id", externalID), slog.Int("attempt", attempts))
		return nil
	}

	if attempts >= job.MaxAttempts {
		if err := s.repo.MarkBackupJobFailed(ctx, job.JobID, attempts, uploadErr.Error(), now); err != nil {
			return fmt.Errorf("failed to mark backup job %s failed: %w", job.JobID, err)
		}
		logger.Error("Memo snapshot backup gave up",
			slog.String("error", uploadErr.Error()),
			slog.Int("attempts", attempts))
		return nil
	}

	delay := s.policy.Backoff(attempts)
	delay += s.jitter(delay)
	next := now.Add(delay)
	if err := s.repo.RescheduleBackupJob(ctx, job.JobID, attempts, next, uploadErr.Error()); err != nil {
		return fmt.Errorf("failed to reschedule backup job %s: %w", job.JobID, err)
	}
	logger.Warn("Memo snapshot backup failed, will retry",
		slog.String("error", uploadErr.Error()),
		slog.Int("attempt", attempts),
		slog.Time("next_attempt_at", next))
	return nil
}

func (s *backupService) ListJobs(ctx context.Context, status *domain.BackupJobStatus, limit int) ([]domain.BackupJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs, err := s.repo.ListBackupJobs(ctx, status, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list backup jobs")
		return nil, fmt.Errorf("failed to list backup jobs: %w", err)
	}
	return jobs, nil
}

// RetryJob puts a failed job back in the queue with a fresh attempt budget.
func (s *backupService) RetryJob(ctx context.Context, jobID string) (*domain.BackupJob, error) {
	job, err := s.repo.FindBackupJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("backup job " + jobID)
		}
		return nil, fmt.Errorf("failed to load backup job: %w", err)
	}
	if job.Status != domain.BackupFailed {
		return nil, apperrors.NewConflictError(fmt.Sprintf("backup job is %s, only failed jobs can be retried", job.Status))
	}
	if err := s.repo.RequeueBackupJob(ctx, jobID, s.now()); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to requeue backup job: %w", err)
	}
	job, err = s.repo.FindBackupJobByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload backup job: %w", err)
	}
	s.Wake()
	s.LogInfo(ctx, "Backup job requeued", slog.String("job_id", jobID))
	return job, nil
}
