package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

type PgxMemoRepository struct {
	db querier
}

// newPgxMemoRepository accepts the pool or an open transaction.
func newPgxMemoRepository(db querier) portsrepo.MemoRepositoryFacade {
	return &PgxMemoRepository{db: db}
}

var _ portsrepo.MemoRepositoryFacade = (*PgxMemoRepository)(nil)

const selectMemoQuery = `
SELECT
	memo_id, sender_id, recipient_id, recipients, subject, content, department, priority, status, folder,
	activity_type, metadata, created_at, created_by, last_updated_at, last_updated_by, version
FROM memos
`

// isCopyPredicate mirrors domain.Memo.IsCopy.
const isCopyPredicate = `COALESCE(metadata->>'originalMemoId', '') NOT IN ('', memo_id::text)`

// folderPredicates mirror domain.Memo.VisibleInFolder. $1 is the user.
var folderPredicates = map[domain.Folder]string{
	domain.FolderInbox: `recipient_id = $1 AND ` + isCopyPredicate +
		` AND status IN ('sent', 'read') AND folder = 'inbox'`,
	domain.FolderSent: `sender_id = $1 AND activity_type = '' AND ` + isCopyPredicate +
		` AND status IN ('sent', 'read')`,
	domain.FolderDrafts:   `sender_id = $1 AND activity_type = '' AND folder = 'drafts'`,
	domain.FolderArchived: `folder = 'archived' AND (` + ownedPredicate + `)`,
	domain.FolderDeleted:  `folder = 'deleted' AND (` + ownedPredicate + `)`,
}

// ownedPredicate matches records delivered to $1 or written by $1. It mirrors
// domain.Memo.DeliveredTo and domain.Memo.OwnedBy.
const ownedPredicate = `(recipient_id = $1 AND ` + isCopyPredicate + ` AND status <> 'pending') OR ` +
	`(sender_id = $1 AND activity_type = '' AND NOT (` + isCopyPredicate + `))`

func (r *PgxMemoRepository) getMemos(ctx context.Context, filterQuery string, args ...any) ([]domain.Memo, error) {
	rows, err := r.db.Query(ctx, selectMemoQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query memos", err)
	}
	defer rows.Close()
	memos, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Memo])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect memo rows", err)
	}
	return memos, nil
}

func (r *PgxMemoRepository) findOne(ctx context.Context, memoID, suffix string) (*domain.Memo, error) {
	memos, err := r.getMemos(ctx, `WHERE memo_id = $1`+suffix, memoID)
	if err != nil {
		if pgErrorCode(err) == pgInvalidText {
			return nil, fmt.Errorf("memo %s: %w", memoID, apperrors.ErrNotFound)
		}
		return nil, err
	}
	if len(memos) == 0 {
		return nil, fmt.Errorf("memo %s: %w", memoID, apperrors.ErrNotFound)
	}
	return &memos[0], nil
}

func (r *PgxMemoRepository) FindMemoByID(ctx context.Context, memoID string) (*domain.Memo, error) {
	return r.findOne(ctx, memoID, "")
}

func (r *PgxMemoRepository) FindMemoByIDForUpdate(ctx context.Context, memoID string) (*domain.Memo, error) {
	return r.findOne(ctx, memoID, " FOR UPDATE")
}

func (r *PgxMemoRepository) ListMemos(ctx context.Context, filter portsrepo.MemoListFilter) ([]domain.Memo, *portsrepo.MemoCursor, error) {
	predicate, ok := folderPredicates[filter.Folder]
	if !ok {
		return nil, nil, apperrors.NewValidationFailedError("unknown folder " + string(filter.Folder))
	}
	args := []any{filter.UserID}
	query := "WHERE " + predicate
	if c := filter.Cursor; c != nil {
		args = append(args, c.CreatedAt, c.MemoID)
		query += " AND (created_at, memo_id) < ($2::timestamptz, $3::uuid)"
	}
	query += " ORDER BY created_at DESC, memo_id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	memos, err := r.getMemos(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	var next *portsrepo.MemoCursor
	if filter.Limit > 0 && len(memos) > filter.Limit {
		memos = memos[:filter.Limit]
		last := memos[len(memos)-1]
		next = &portsrepo.MemoCursor{CreatedAt: last.CreatedAt, MemoID: last.MemoID}
	}
	return memos, next, nil
}

func (r *PgxMemoRepository) FindNotificationsByRelatedMemo(ctx context.Context, memoID string) ([]domain.Memo, error) {
	return r.getMemos(ctx, `
		WHERE activity_type = 'system_notification' AND metadata->>'relatedMemoId' = $1
		ORDER BY created_at, memo_id;
	`, memoID)
}

func (r *PgxMemoRepository) CountUnreadNotifications(ctx context.Context, userID string) (map[domain.EventType]int, error) {
	query := `
		SELECT COALESCE(metadata->>'eventType', ''), COUNT(*)
		FROM memos
		WHERE activity_type = 'system_notification' AND status = 'sent' AND folder = 'inbox' AND recipient_id = $1
		GROUP BY 1;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to count unread notifications", err)
	}
	defer rows.Close()

	counts := make(map[domain.EventType]int)
	for rows.Next() {
		var event string
		var n int
		if err := rows.Scan(&event, &n); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan notification count", err)
		}
		counts[domain.EventType(event)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate notification counts", err)
	}
	return counts, nil
}

func (r *PgxMemoRepository) SaveMemo(ctx context.Context, memo domain.Memo) error {
	query := `
		INSERT INTO memos (
			memo_id, sender_id, recipient_id, recipients, subject, content, department, priority, status, folder,
			activity_type, metadata, created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	recipients := memo.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		memo.MemoID,
		memo.SenderID,
		memo.RecipientID,
		recipients,
		memo.Subject,
		memo.Content,
		memo.Department,
		memo.Priority,
		memo.Status,
		memo.Folder,
		memo.ActivityType,
		memo.Metadata,
		memo.CreatedAt,
		memo.CreatedBy,
		memo.LastUpdatedAt,
		memo.LastUpdatedBy,
		memo.Version,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return apperrors.NewDuplicateError("memo " + memo.MemoID + " already exists")
		}
		return apperrors.NewAppError(500, "failed to save memo "+memo.MemoID, err)
	}
	return nil
}

func (r *PgxMemoRepository) UpdateMemo(ctx context.Context, memo *domain.Memo) error {
	query := `
		UPDATE memos
		SET recipient_id = $1, recipients = $2, subject = $3, content = $4, department = $5, priority = $6,
			status = $7, folder = $8, metadata = $9, last_updated_at = $10, last_updated_by = $11,
			version = version + 1
		WHERE memo_id = $12 AND version = $13;
	`
	recipients := memo.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	cmdTag, err := r.db.Exec(ctx, query,
		memo.RecipientID,
		recipients,
		memo.Subject,
		memo.Content,
		memo.Department,
		memo.Priority,
		memo.Status,
		memo.Folder,
		memo.Metadata,
		memo.LastUpdatedAt,
		memo.LastUpdatedBy,
		memo.MemoID,
		memo.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update memo "+memo.MemoID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("optimistic locking failed: memo " + memo.MemoID)
	}
	memo.Version++
	return nil
}

func (r *PgxMemoRepository) DeleteMemo(ctx context.Context, memoID string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM memos WHERE memo_id = $1;`, memoID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete memo "+memoID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("memo %s: %w", memoID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxMemoRepository) ArchiveNotifications(ctx context.Context, sel portsrepo.NotificationArchive) (int64, error) {
	query := `
		UPDATE memos
		SET status = 'archived', folder = 'archived', last_updated_at = $3, last_updated_by = $4, version = version + 1
		WHERE activity_type = 'system_notification'
		  AND metadata->>'relatedMemoId' = $1
		  AND metadata->>'eventType' = $2
		  AND folder <> 'archived';
	`
	cmdTag, err := r.db.Exec(ctx, query, sel.RelatedMemoID, string(sel.EventType), sel.ArchivedAt, sel.ArchivedBy)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to archive notifications for memo "+sel.RelatedMemoID, err)
	}
	return cmdTag.RowsAffected(), nil
}
