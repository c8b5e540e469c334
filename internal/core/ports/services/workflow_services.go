package services

import (
	"context"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
)

// WorkflowSvcFacade drives a submission through admin review to delivery.
type WorkflowSvcFacade interface {
	// CreateBySecretary stores a pending submission and alerts every active admin.
	CreateBySecretary(ctx context.Context, secretary domain.User, req dto.SubmitMemoRequest) (*domain.Memo, error)

	// Approve delivers a pending submission to its recipients.
	Approve(ctx context.Context, memoID string, admin domain.User) (*domain.Memo, error)

	// Reject tells the sender the submission was turned down.
	Reject(ctx context.Context, memoID string, admin domain.User, reason string) (*domain.Memo, error)
}
