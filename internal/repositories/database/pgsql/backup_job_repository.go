package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

type PgxBackupJobRepository struct {
	db querier
}

func newPgxBackupJobRepository(db querier) portsrepo.BackupJobRepositoryFacade {
	return &PgxBackupJobRepository{db: db}
}

var _ portsrepo.BackupJobRepositoryFacade = (*PgxBackupJobRepository)(nil)

const backupJobColumns = `job_id, memo_id, snapshot, status, attempts, max_attempts, next_attempt_at, last_error, external_id, created_at, updated_at`

func (r *PgxBackupJobRepository) collect(rows pgx.Rows, err error) ([]domain.BackupJob, error) {
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query backup jobs", err)
	}
	defer rows.Close()
	jobs, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.BackupJob])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect backup job rows", err)
	}
	return jobs, nil
}

func (r *PgxBackupJobRepository) EnqueueBackupJob(ctx context.Context, job domain.BackupJob) error {
	query := `
		INSERT INTO backup_jobs (` + backupJobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.Exec(ctx, query,
		job.JobID,
		job.MemoID,
		job.Snapshot,
		job.Status,
		job.Attempts,
		job.MaxAttempts,
		job.NextAttemptAt,
		job.LastError,
		job.ExternalID,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return apperrors.NewDuplicateError("backup job " + job.JobID + " already exists")
		}
		return apperrors.NewAppError(500, "failed to enqueue backup job for memo "+job.MemoID, err)
	}
	return nil
}

func (r *PgxBackupJobRepository) ClaimDueBackupJobs(ctx context.Context, now time.Time, limit int) ([]domain.BackupJob, error) {
	// SKIP LOCKED lets several workers drain the queue without handing out the same row.
	query := `
		UPDATE backup_jobs
		SET status = 'running', updated_at = $1
		WHERE job_id IN (
			SELECT job_id FROM backup_jobs
			WHERE status = 'pending' AND next_attempt_at <= $1
			ORDER BY next_attempt_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + backupJobColumns + `;
	`
	return r.collect(r.db.Query(ctx, query, now, limit))
}

func (r *PgxBackupJobRepository) exec(ctx context.Context, jobID, query string, args ...any) error {
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update backup job "+jobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("backup job %s: %w", jobID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxBackupJobRepository) MarkBackupJobDone(ctx context.Context, jobID string, externalID string, at time.Time) error {
	return r.exec(ctx, jobID, `
		UPDATE backup_jobs
		SET status = 'done', attempts = attempts + 1, external_id = $1, last_error = NULL, updated_at = $2
		WHERE job_id = $3;
	`, externalID, at, jobID)
}

func (r *PgxBackupJobRepository) RescheduleBackupJob(ctx context.Context, jobID string, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.exec(ctx, jobID, `
		UPDATE backup_jobs
		SET status = 'pending', attempts = $1, next_attempt_at = $2, last_error = $3, updated_at = now()
		WHERE job_id = $4;
	`, attempts, nextAttemptAt, lastError, jobID)
}

func (r *PgxBackupJobRepository) MarkBackupJobFailed(ctx context.Context, jobID string, attempts int, lastError string, at time.Time) error {
	return r.exec(ctx, jobID, `
		UPDATE backup_jobs
		SET status = 'failed', attempts = $1, last_error = $2, updated_at = $3
		WHERE job_id = $4;
	`, attempts, lastError, at, jobID)
}

func (r *PgxBackupJobRepository) ReleaseStaleBackupJobs(ctx context.Context, claimedBefore time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE backup_jobs SET status = 'pending'
		WHERE status = 'running' AND updated_at < $1;
	`, claimedBefore)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to release stale backup jobs", err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *PgxBackupJobRepository) FindBackupJobByID(ctx context.Context, jobID string) (*domain.BackupJob, error) {
	jobs, err := r.collect(r.db.Query(ctx, `SELECT `+backupJobColumns+` FROM backup_jobs WHERE job_id = $1`, jobID))
	if err != nil {
		if pgErrorCode(err) == pgInvalidText {
			return nil, fmt.Errorf("backup job %s: %w", jobID, apperrors.ErrNotFound)
		}
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("backup job %s: %w", jobID, apperrors.ErrNotFound)
	}
	return &jobs[0], nil
}

func (r *PgxBackupJobRepository) ListBackupJobs(ctx context.Context, status *domain.BackupJobStatus, limit int) ([]domain.BackupJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var st *string
	if status != nil {
		s := string(*status)
		st = &s
	}
	query := `SELECT ` + backupJobColumns + ` FROM backup_jobs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, job_id DESC
		LIMIT $2`
	return r.collect(r.db.Query(ctx, query, st, limit))
}

func (r *PgxBackupJobRepository) RequeueBackupJob(ctx context.Context, jobID string, at time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE backup_jobs
		SET status = 'pending', attempts = 0, next_attempt_at = $1, updated_at = $1
		WHERE job_id = $2 AND status = 'failed';
	`, at, jobID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to requeue backup job "+jobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("backup job " + jobID + " is not failed")
	}
	return nil
}
