package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BackupJobStatus is the state of a queued snapshot upload.
type BackupJobStatus string

const (
	BackupPending BackupJobStatus = "pending"
	BackupRunning BackupJobStatus = "running"
	BackupDone    BackupJobStatus = "done"
	BackupFailed  BackupJobStatus = "failed"
)

func ParseBackupJobStatus(s string) (BackupJobStatus, error) {
	switch st := BackupJobStatus(s); st {
	case BackupPending, BackupRunning, BackupDone, BackupFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown backup job status %q", s)
	}
}

// BackupJob is an outbox row: written with the approval, drained by the backup worker.
type BackupJob struct {
	JobID         string          `json:"jobID" db:"job_id"`
	MemoID        string          `json:"memoID" db:"memo_id"`
	Snapshot      json.RawMessage `json:"snapshot" db:"snapshot"`
	Status        BackupJobStatus `json:"status" db:"status"`
	Attempts      int             `json:"attempts" db:"attempts"`
	MaxAttempts   int             `json:"maxAttempts" db:"max_attempts"`
	NextAttemptAt time.Time       `json:"nextAttemptAt" db:"next_attempt_at"`
	LastError     *string         `json:"lastError,omitempty" db:"last_error"`
	ExternalID    *string         `json:"externalID,omitempty" db:"external_id"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// NewBackupJob snapshots memo as JSON and schedules it for immediate upload.
func NewBackupJob(memo Memo, maxAttempts int, now time.Time) (BackupJob, error) {
	snapshot, err := json.Marshal(memo)
	if err != nil {
		return BackupJob{}, fmt.Errorf("snapshotting memo %s: %w", memo.MemoID, err)
	}
	now = now.UTC()
	return BackupJob{
		JobID:         uuid.NewString(),
		MemoID:        memo.MemoID,
		Snapshot:      snapshot,
		Status:        BackupPending,
		MaxAttempts:   maxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ObjectName is the file name used in the external store.
func (j BackupJob) ObjectName() string {
	return fmt.Sprintf("memo-%s-%s.json", j.MemoID, j.CreatedAt.UTC().Format("20060102T150405Z"))
}
