package services

import (
	"context"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// BackupUploader stores a memo snapshot outside the primary database.
type BackupUploader interface {
	// Upload stores snapshot under name and returns the external object id.
	Upload(ctx context.Context, name string, snapshot []byte) (string, error)
}

// BackupSchedulerSvc is what the workflow needs to enqueue snapshots.
type BackupSchedulerSvc interface {
	// Enabled is false when no uploader is configured; nothing is queued then.
	Enabled() bool
	NewJob(memo domain.Memo) (domain.BackupJob, error)
	// Wake asks the worker to look for due jobs now. It never blocks.
	Wake()
}

// BackupWorkerSvc drains the queue.
type BackupWorkerSvc interface {
	// Run processes due jobs until ctx is cancelled.
	Run(ctx context.Context) error
	// ProcessDue handles one batch of due jobs and returns how many were attempted.
	ProcessDue(ctx context.Context) (int, error)
}

// BackupAdminSvc supports inspection and manual retries.
type BackupAdminSvc interface {
	ListJobs(ctx context.Context, status *domain.BackupJobStatus, limit int) ([]domain.BackupJob, error)
	RetryJob(ctx context.Context, jobID string) (*domain.BackupJob, error)
}

// BackupSvcFacade combines all backup interfaces
type BackupSvcFacade interface {
	BackupSchedulerSvc
	BackupWorkerSvc
	BackupAdminSvc
}
