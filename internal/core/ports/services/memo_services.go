package services

import (
	"context"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
)

// MemoReaderSvc serves folder listings and details.
type MemoReaderSvc interface {
	ListMemos(ctx context.Context, user domain.User, params dto.ListMemosParams) (*dto.ListMemosResponse, error)
	GetMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error)
	NotificationSummary(ctx context.Context, user domain.User) (*dto.NotificationSummaryResponse, error)
}

// MemoMailboxSvc holds the addressee and sender side actions.
type MemoMailboxSvc interface {
	MarkRead(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error)
	ArchiveMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error)
	TrashMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error)
}

// MemoSvcFacade combines all memo mailbox interfaces
type MemoSvcFacade interface {
	MemoReaderSvc
	MemoMailboxSvc
}
