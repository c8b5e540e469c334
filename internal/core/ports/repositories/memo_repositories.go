package repositories

import (
	"context"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// MemoListFilter selects one folder of one user, newest first.
type MemoListFilter struct {
	UserID string
	Folder domain.Folder
	Limit  int
	// Cursor continues after the given (created_at, memo_id) pair.
	Cursor *MemoCursor
}

// MemoCursor is the keyset position of a memo listing.
type MemoCursor struct {
	CreatedAt time.Time
	MemoID    string
}

// NotificationArchive selects the notifications archived after a decision.
type NotificationArchive struct {
	RelatedMemoID string
	EventType     domain.EventType
	ArchivedBy    string
	ArchivedAt    time.Time
}

// MemoReader defines read operations for memos
type MemoReader interface {
	FindMemoByID(ctx context.Context, memoID string) (*domain.Memo, error)

	// FindMemoByIDForUpdate loads a memo and locks it until the surrounding
	// transaction ends. Outside a transaction it behaves like FindMemoByID.
	FindMemoByIDForUpdate(ctx context.Context, memoID string) (*domain.Memo, error)

	// ListMemos returns one page of a folder. The second value is the cursor
	// of the next page, nil on the last page.
	ListMemos(ctx context.Context, filter MemoListFilter) ([]domain.Memo, *MemoCursor, error)

	// FindNotificationsByRelatedMemo lists notifications that point at memoID.
	FindNotificationsByRelatedMemo(ctx context.Context, memoID string) ([]domain.Memo, error)

	// CountUnreadNotifications counts delivered, unread notifications addressed to userID by event type.
	CountUnreadNotifications(ctx context.Context, userID string) (map[domain.EventType]int, error)
}

// MemoWriter defines write operations for memos
type MemoWriter interface {
	// SaveMemo inserts a new memo.
	SaveMemo(ctx context.Context, memo domain.Memo) error

	// UpdateMemo writes memo if its version still matches the stored one and
	// advances memo.Version. A stale version yields apperrors.ErrConflict.
	UpdateMemo(ctx context.Context, memo *domain.Memo) error

	// DeleteMemo physically removes a memo.
	DeleteMemo(ctx context.Context, memoID string) error

	// ArchiveNotifications archives every not yet archived notification matching
	// the selector and returns how many rows changed.
	ArchiveNotifications(ctx context.Context, sel NotificationArchive) (int64, error)
}

// MemoRepositoryFacade combines all memo-related repository interfaces
type MemoRepositoryFacade interface {
	MemoReader
	MemoWriter
}
