package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

type backupJobRepository struct {
	store *Store
	undo  *undoLog
}

var _ portsrepo.BackupJobRepositoryFacade = (*backupJobRepository)(nil)

func (r *backupJobRepository) EnqueueBackupJob(ctx context.Context, job domain.BackupJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.jobs[job.JobID]; ok {
		return apperrors.NewDuplicateError("backup job " + job.JobID + " already exists")
	}
	r.undo.recordJob(r.store.jobs, job.JobID)
	job.Snapshot = slices.Clone(job.Snapshot)
	r.store.jobs[job.JobID] = job
	return nil
}

func (r *backupJobRepository) ClaimDueBackupJobs(ctx context.Context, now time.Time, limit int) ([]domain.BackupJob, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	due := make([]domain.BackupJob, 0)
	for _, j := range r.store.jobs {
		if j.Status == domain.BackupPending && !j.NextAttemptAt.After(now) {
			due = append(due, j)
		}
	}
	slices.SortFunc(due, func(a, b domain.BackupJob) int { return a.NextAttemptAt.Compare(b.NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for i := range due {
		due[i].Status = domain.BackupRunning
		due[i].UpdatedAt = now
		r.undo.recordJob(r.store.jobs, due[i].JobID)
		r.store.jobs[due[i].JobID] = due[i]
	}
	return due, nil
}

// update applies fn to a stored job. Callers must not hold the lock.
func (r *backupJobRepository) update(jobID string, fn func(j *domain.BackupJob)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	j, ok := r.store.jobs[jobID]
	if !ok {
		return fmt.Errorf("backup job %s: %w", jobID, apperrors.ErrNotFound)
	}
	r.undo.recordJob(r.store.jobs, jobID)
	fn(&j)
	r.store.jobs[jobID] = j
	return nil
}

func (r *backupJobRepository) MarkBackupJobDone(ctx context.Context, jobID string, externalID string, at time.Time) error {
	return r.update(jobID, func(j *domain.BackupJob) {
		j.Status = domain.BackupDone
		j.Attempts++
		j.ExternalID = &externalID
		j.UpdatedAt = at
	})
}

func (r *backupJobRepository) RescheduleBackupJob(ctx context.Context, jobID string, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.update(jobID, func(j *domain.BackupJob) {
		j.Status = domain.BackupPending
		j.Attempts = attempts
		j.NextAttemptAt = nextAttemptAt
		j.LastError = &lastError
		j.UpdatedAt = time.Now().UTC()
	})
}

func (r *backupJobRepository) MarkBackupJobFailed(ctx context.Context, jobID string, attempts int, lastError string, at time.Time) error {
	return r.update(jobID, func(j *domain.BackupJob) {
		j.Status = domain.BackupFailed
		j.Attempts = attempts
		j.LastError = &lastError
		j.UpdatedAt = at
	})
}

func (r *backupJobRepository) ReleaseStaleBackupJobs(ctx context.Context, claimedBefore time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for id, j := range r.store.jobs {
		if j.Status == domain.BackupRunning && j.UpdatedAt.Before(claimedBefore) {
			r.undo.recordJob(r.store.jobs, id)
			j.Status = domain.BackupPending
			r.store.jobs[id] = j
			n++
		}
	}
	return n, nil
}

func (r *backupJobRepository) FindBackupJobByID(ctx context.Context, jobID string) (*domain.BackupJob, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	j, ok := r.store.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("backup job %s: %w", jobID, apperrors.ErrNotFound)
	}
	return &j, nil
}

func (r *backupJobRepository) ListBackupJobs(ctx context.Context, status *domain.BackupJobStatus, limit int) ([]domain.BackupJob, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.BackupJob, 0)
	for _, j := range r.store.jobs {
		if status == nil || j.Status == *status {
			out = append(out, j)
		}
	}
	slices.SortFunc(out, func(a, b domain.BackupJob) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *backupJobRepository) RequeueBackupJob(ctx context.Context, jobID string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	j, ok := r.store.jobs[jobID]
	if !ok {
		return fmt.Errorf("backup job %s: %w", jobID, apperrors.ErrNotFound)
	}
	if j.Status != domain.BackupFailed {
		return apperrors.NewConflictError("backup job " + jobID + " is not failed")
	}
	r.undo.recordJob(r.store.jobs, jobID)
	j.Status = domain.BackupPending
	j.Attempts = 0
	j.NextAttemptAt = at
	j.UpdatedAt = at
	r.store.jobs[jobID] = j
	return nil
}
