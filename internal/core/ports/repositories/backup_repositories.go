package repositories

import (
	"context"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// BackupJobWriter is the part of the backup queue usable inside a memo transaction.
type BackupJobWriter interface {
	EnqueueBackupJob(ctx context.Context, job domain.BackupJob) error
}

// BackupJobQueue is used by the backup worker.
type BackupJobQueue interface {
	// ClaimDueBackupJobs moves up to limit pending jobs that are due at now to
	// running and returns them. Concurrent callers never receive the same job.
	ClaimDueBackupJobs(ctx context.Context, now time.Time, limit int) ([]domain.BackupJob, error)

	MarkBackupJobDone(ctx context.Context, jobID string, externalID string, at time.Time) error

	// RescheduleBackupJob records a failed attempt and returns the job to pending.
	RescheduleBackupJob(ctx context.Context, jobID string, attempts int, nextAttemptAt time.Time, lastError string) error

	// MarkBackupJobFailed records the final failed attempt.
	MarkBackupJobFailed(ctx context.Context, jobID string, attempts int, lastError string, at time.Time) error

	// ReleaseStaleBackupJobs returns running jobs claimed before the cutoff to pending.
	ReleaseStaleBackupJobs(ctx context.Context, claimedBefore time.Time) (int64, error)
}

// BackupJobReader is used by the admin surface.
type BackupJobReader interface {
	FindBackupJobByID(ctx context.Context, jobID string) (*domain.BackupJob, error)
	ListBackupJobs(ctx context.Context, status *domain.BackupJobStatus, limit int) ([]domain.BackupJob, error)
}

// BackupJobAdmin holds manual interventions.
type BackupJobAdmin interface {
	// RequeueBackupJob resets a failed job to pending with a fresh attempt budget.
	// It returns a conflict when the job is no longer failed.
	RequeueBackupJob(ctx context.Context, jobID string, at time.Time) error
}

// BackupJobRepositoryFacade combines all backup job interfaces
type BackupJobRepositoryFacade interface {
	BackupJobWriter
	BackupJobQueue
	BackupJobReader
	BackupJobAdmin
}
