package dto

import (
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// ListBackupJobsParams filters the backup queue view.
type ListBackupJobsParams struct {
	Status string `form:"status" binding:"omitempty,oneof=pending running done failed"`
	Limit  int    `form:"limit,default=50" binding:"min=1,max=500"`
}

// BackupJobResponse omits the snapshot body.
type BackupJobResponse struct {
	JobID         string                 `json:"jobID"`
	MemoID        string                 `json:"memoID"`
	Status        domain.BackupJobStatus `json:"status"`
	Attempts      int                    `json:"attempts"`
	MaxAttempts   int                    `json:"maxAttempts"`
	NextAttemptAt time.Time              `json:"nextAttemptAt"`
	LastError     *string                `json:"lastError,omitempty"`
	ExternalID    *string                `json:"externalID,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

func ToBackupJobResponse(j domain.BackupJob) BackupJobResponse {
	return BackupJobResponse{
		JobID:         j.JobID,
		MemoID:        j.MemoID,
		Status:        j.Status,
		Attempts:      j.Attempts,
		MaxAttempts:   j.MaxAttempts,
		NextAttemptAt: j.NextAttemptAt,
		LastError:     j.LastError,
		ExternalID:    j.ExternalID,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

// ListBackupJobsResponse wraps the queue view.
type ListBackupJobsResponse struct {
	Jobs []BackupJobResponse `json:"jobs"`
}
