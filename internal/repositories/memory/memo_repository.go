package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

type memoRepository struct {
	store *Store
	undo  *undoLog
}

var _ portsrepo.MemoRepositoryFacade = (*memoRepository)(nil)

// cloneMemo detaches m from any caller-owned slices and maps.
func cloneMemo(m domain.Memo) domain.Memo {
	m.Recipients = slices.Clone(m.Recipients)
	m.Metadata = m.Metadata.Clone()
	if m.RecipientID != nil {
		id := *m.RecipientID
		m.RecipientID = &id
	}
	return m
}

// newestFirst orders by created_at, then memo_id, both descending.
func newestFirst(a, b domain.Memo) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(b.MemoID, a.MemoID)
}

func (r *memoRepository) SaveMemo(ctx context.Context, memo domain.Memo) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.memos[memo.MemoID]; ok {
		return apperrors.NewDuplicateError("memo " + memo.MemoID + " already exists")
	}
	r.undo.recordMemo(r.store.memos, memo.MemoID)
	r.store.memos[memo.MemoID] = cloneMemo(memo)
	return nil
}

func (r *memoRepository) FindMemoByID(ctx context.Context, memoID string) (*domain.Memo, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.memos[memoID]
	if !ok {
		return nil, fmt.Errorf("memo %s: %w", memoID, apperrors.ErrNotFound)
	}
	out := cloneMemo(m)
	return &out, nil
}

func (r *memoRepository) FindMemoByIDForUpdate(ctx context.Context, memoID string) (*domain.Memo, error) {
	return r.FindMemoByID(ctx, memoID)
}

func (r *memoRepository) ListMemos(ctx context.Context, filter portsrepo.MemoListFilter) ([]domain.Memo, *portsrepo.MemoCursor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]domain.Memo, 0)
	for _, m := range r.store.memos {
		if m.VisibleInFolder(filter.UserID, filter.Folder) {
			matched = append(matched, m)
		}
	}
	slices.SortFunc(matched, newestFirst)

	if c := filter.Cursor; c != nil {
		pos := domain.Memo{MemoID: c.MemoID}
		pos.CreatedAt = c.CreatedAt
		start, _ := slices.BinarySearchFunc(matched, pos, newestFirst)
		for start < len(matched) && newestFirst(matched[start], pos) <= 0 {
			start++
		}
		matched = matched[start:]
	}

	var next *portsrepo.MemoCursor
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
		last := matched[len(matched)-1]
		next = &portsrepo.MemoCursor{CreatedAt: last.CreatedAt, MemoID: last.MemoID}
	}

	out := make([]domain.Memo, len(matched))
	for i, m := range matched {
		out[i] = cloneMemo(m)
	}
	return out, next, nil
}

func (r *memoRepository) FindNotificationsByRelatedMemo(ctx context.Context, memoID string) ([]domain.Memo, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Memo, 0)
	for _, m := range r.store.memos {
		if m.ActivityType == domain.ActivitySystemNotification && m.Metadata.RelatedMemoID == memoID {
			out = append(out, cloneMemo(m))
		}
	}
	slices.SortFunc(out, func(a, b domain.Memo) int { return newestFirst(b, a) })
	return out, nil
}

func (r *memoRepository) CountUnreadNotifications(ctx context.Context, userID string) (map[domain.EventType]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := make(map[domain.EventType]int)
	for _, m := range r.store.memos {
		if m.ActivityType != domain.ActivitySystemNotification || m.Status != domain.MemoStatusSent || m.Folder != domain.FolderInbox {
			continue
		}
		if m.RecipientID != nil && *m.RecipientID == userID {
			counts[m.Metadata.EventType]++
		}
	}
	return counts, nil
}

func (r *memoRepository) UpdateMemo(ctx context.Context, memo *domain.Memo) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.memos[memo.MemoID]
	if !ok {
		return fmt.Errorf("memo %s: %w", memo.MemoID, apperrors.ErrNotFound)
	}
	if stored.Version != memo.Version {
		return apperrors.NewConflictError("optimistic locking failed: memo " + memo.MemoID)
	}
	r.undo.recordMemo(r.store.memos, memo.MemoID)
	memo.Version++
	r.store.memos[memo.MemoID] = cloneMemo(*memo)
	return nil
}

func (r *memoRepository) DeleteMemo(ctx context.Context, memoID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.memos[memoID]; !ok {
		return fmt.Errorf("memo %s: %w", memoID, apperrors.ErrNotFound)
	}
	r.undo.recordMemo(r.store.memos, memoID)
	delete(r.store.memos, memoID)
	return nil
}

func (r *memoRepository) ArchiveNotifications(ctx context.Context, sel portsrepo.NotificationArchive) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for id, m := range r.store.memos {
		if m.ActivityType != domain.ActivitySystemNotification ||
			m.Metadata.EventType != sel.EventType ||
			m.Metadata.RelatedMemoID != sel.RelatedMemoID ||
			m.Folder == domain.FolderArchived {
			continue
		}
		r.undo.recordMemo(r.store.memos, id)
		m.Status = domain.MemoStatusArchived
		m.Folder = domain.FolderArchived
		m.LastUpdatedAt = sel.ArchivedAt
		m.LastUpdatedBy = sel.ArchivedBy
		m.Version++
		r.store.memos[id] = m
		n++
	}
	return n, nil
}
