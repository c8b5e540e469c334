package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/utils/pagination"
)

// memoService serves the mailbox: folder listings, details and the
// addressee/sender actions that do not involve a review.
type memoService struct {
	BaseService
	memoRepo portsrepo.MemoRepositoryFacade
	now      func() time.Time
}

// NewMemoService creates a new MemoService.
func NewMemoService(memoRepo portsrepo.MemoRepositoryFacade) portssvc.MemoSvcFacade {
	return &memoService{memoRepo: memoRepo, now: time.Now}
}

var _ portssvc.MemoSvcFacade = (*memoService)(nil)

func (s *memoService) ListMemos(ctx context.Context, user domain.User, params dto.ListMemosParams) (*dto.ListMemosResponse, error) {
	folder, err := domain.ParseFolder(params.Folder)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := portsrepo.MemoListFilter{UserID: user.UserID, Folder: folder, Limit: limit}
	if params.NextToken != nil && *params.NextToken != "" {
		createdAt, memoID, err := pagination.DecodeCursor(*params.NextToken)
		if err != nil {
			s.LogDebug(ctx, "Rejected malformed memo cursor", slog.String("error", err.Error()))
			return nil, apperrors.NewBadRequestError("invalid nextToken")
		}
		filter.Cursor = &portsrepo.MemoCursor{CreatedAt: createdAt, MemoID: memoID}
	}

	memos, next, err := s.memoRepo.ListMemos(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list memos",
			slog.String("user_id", user.UserID),
			slog.String("folder", string(folder)))
		return nil, fmt.Errorf("failed to list memos: %w", err)
	}

	resp := &dto.ListMemosResponse{Memos: make([]dto.MemoResponse, 0, len(memos))}
	for _, m := range memos {
		c, err := domain.Classify(m)
		if err != nil {
			// A malformed record must not hide the rest of the folder.
			s.LogError(ctx, err, "Skipping unclassifiable memo", slog.String("memo_id", m.MemoID))
			continue
		}
		resp.Memos = append(resp.Memos, dto.ToMemoResponse(c))
	}
	if next != nil {
		token := pagination.EncodeCursor(next.CreatedAt, next.MemoID)
		resp.NextToken = &token
	}
	return resp, nil
}

func (s *memoService) GetMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	memo, err := s.memoRepo.FindMemoByID(ctx, memoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("memo " + memoID)
		}
		s.LogError(ctx, err, "Failed to get memo", slog.String("memo_id", memoID))
		return nil, fmt.Errorf("failed to get memo: %w", err)
	}
	if !memo.VisibleTo(user) {
		// Same answer as a missing memo so ids cannot be probed.
		return nil, apperrors.NewNotFoundError("memo " + memoID)
	}
	return memo, nil
}

func (s *memoService) NotificationSummary(ctx context.Context, user domain.User) (*dto.NotificationSummaryResponse, error) {
	counts, err := s.memoRepo.CountUnreadNotifications(ctx, user.UserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to count notifications", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	resp := &dto.NotificationSummaryResponse{
		PendingReview:  counts[domain.EventMemoPendingReview],
		ReviewDecision: counts[domain.EventMemoReviewDecision],
	}
	resp.Total = resp.PendingReview + resp.ReviewDecision
	return resp, nil
}

// MarkRead moves a delivered memo or notification from sent to read.
// Marking an already read memo again is a no-op.
func (s *memoService) MarkRead(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	memo, err := s.GetMemo(ctx, memoID, user)
	if err != nil {
		return nil, err
	}
	if !memo.DeliveredTo(user.UserID) {
		return nil, apperrors.NewForbiddenError("only the addressee can mark a memo as read")
	}
	if memo.Status != domain.MemoStatusSent {
		return memo, nil
	}

	now := s.now().UTC()
	updated := domain.AppendHistory(*memo, user.Actor(), domain.HistoryRead, "", now)
	updated.Status = domain.MemoStatusRead
	touch(&updated, user.UserID, now)
	if err := s.memoRepo.UpdateMemo(ctx, &updated); err != nil {
		s.LogError(ctx, err, "Failed to mark memo read", slog.String("memo_id", memoID))
		return nil, fmt.Errorf("failed to mark memo read: %w", err)
	}
	return &updated, nil
}

func (s *memoService) ArchiveMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	return s.moveToFolder(ctx, memoID, user, domain.FolderArchived)
}

// TrashMemo moves the memo to the deleted folder. Rows are never removed here.
func (s *memoService) TrashMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	return s.moveToFolder(ctx, memoID, user, domain.FolderDeleted)
}

func (s *memoService) moveToFolder(ctx context.Context, memoID string, user domain.User, folder domain.Folder) (*domain.Memo, error) {
	memo, err := s.GetMemo(ctx, memoID, user)
	if err != nil {
		return nil, err
	}
	if !memo.DeliveredTo(user.UserID) && !memo.OwnedBy(user.UserID) {
		return nil, apperrors.NewForbiddenError("memo is not in your mailbox")
	}
	if memo.Status == domain.MemoStatusPending {
		return nil, apperrors.NewConflictError("memo is awaiting review")
	}
	if memo.Folder == folder {
		return memo, nil
	}

	updated := *memo
	updated.Folder = folder
	touch(&updated, user.UserID, s.now().UTC())
	if err := s.memoRepo.UpdateMemo(ctx, &updated); err != nil {
		s.LogError(ctx, err, "Failed to move memo",
			slog.String("memo_id", memoID),
			slog.String("folder", string(folder)))
		return nil, fmt.Errorf("failed to move memo: %w", err)
	}
	s.LogDebug(ctx, "Memo moved", slog.String("memo_id", memoID), slog.String("folder", string(folder)))
	return &updated, nil
}
