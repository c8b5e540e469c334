package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
)

const (
	// adminLookupLimit caps the admins alerted for one submission.
	adminLookupLimit = 500
	mailSendTimeout  = 10 * time.Second

	// systemActorID is written to audit columns changed by the workflow itself.
	systemActorID = "system"
)

// notificationService writes notification memos and delivery copies.
type notificationService struct {
	BaseService
	memoRepo portsrepo.MemoRepositoryFacade
	userRepo portsrepo.UserReader
	mailer   portssvc.MailSender
	now      func() time.Time
}

// NotificationOption configures the notification service.
type NotificationOption func(*notificationService)

// WithMailSender enables e-mail copies of notifications.
func WithMailSender(mailer portssvc.MailSender) NotificationOption {
	return func(s *notificationService) {
		s.mailer = mailer
	}
}

// WithNotificationClock overrides time.Now, for tests.
func WithNotificationClock(now func() time.Time) NotificationOption {
	return func(s *notificationService) {
		s.now = now
	}
}

// NewNotificationService creates the notification emitter.
func NewNotificationService(memoRepo portsrepo.MemoRepositoryFacade, userRepo portsrepo.UserReader, options ...NotificationOption) portssvc.NotificationSvcFacade {
	svc := &notificationService{
		memoRepo: memoRepo,
		userRepo: userRepo,
		now:      time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.NotificationSvcFacade = (*notificationService)(nil)

func (s *notificationService) WithMemoRepository(repo portsrepo.MemoRepositoryFacade) portssvc.NotificationSvcFacade {
	clone := *s
	clone.memoRepo = repo
	return &clone
}

// newRecord fills the fields shared by every record the emitter writes.
func (s *notificationService) newRecord(source domain.Memo, actor domain.Actor, recipientID string) domain.Memo {
	now := s.now().UTC()
	return domain.Memo{
		MemoID:      uuid.NewString(),
		SenderID:    actor.ID,
		RecipientID: &recipientID,
		Department:  source.Department,
		Priority:    source.Priority,
		Status:      domain.MemoStatusSent,
		Folder:      domain.FolderInbox,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.ID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.ID,
		},
		Version: 1,
	}
}

func (s *notificationService) NotifyAdmin(ctx context.Context, memo domain.Memo, actor domain.Actor) ([]domain.Memo, error) {
	role := domain.RoleAdmin
	admins, err := s.userRepo.FindUsers(ctx, portsrepo.UserFilter{Role: &role, ActiveOnly: true}, adminLookupLimit, 0)
	if err != nil {
		s.LogError(ctx, err, "Failed to look up admins", slog.String("memo_id", memo.MemoID))
		return nil, fmt.Errorf("failed to look up admins: %w", err)
	}
	if len(admins) == 0 {
		s.LogWarn(ctx, "No active admin to review memo", slog.String("memo_id", memo.MemoID))
		return nil, nil
	}

	created := make([]domain.Memo, 0, len(admins))
	for _, admin := range admins {
		n := s.newRecord(memo, actor, admin.UserID)
		n.Subject = "Memo pending approval: " + memo.Subject
		n.Content = fmt.Sprintf("%s submitted %q for your approval.", actor.Email, memo.Subject)
		n.ActivityType = domain.ActivitySystemNotification
		n.Metadata = domain.MemoMetadata{
			RelatedMemoID:  memo.MemoID,
			OriginalMemoID: memo.MemoID,
			EventType:      domain.EventMemoPendingReview,
		}
		if err := s.memoRepo.SaveMemo(ctx, n); err != nil {
			s.LogError(ctx, err, "Failed to save admin notification",
				slog.String("memo_id", memo.MemoID),
				slog.String("admin_id", admin.UserID))
			return nil, fmt.Errorf("failed to save admin notification: %w", err)
		}
		created = append(created, n)
	}
	s.LogDebug(ctx, "Admins notified", slog.String("memo_id", memo.MemoID), slog.Int("count", len(created)))
	return created, nil
}

func (s *notificationService) NotifySecretary(ctx context.Context, memo domain.Memo, actor domain.Actor, decision domain.ReviewDecision) (*domain.Memo, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("notify secretary: review decision without action")
	}

	subject, body := decision.Message(memo.Subject)
	n := s.newRecord(memo, actor, memo.SenderID)
	n.Subject = subject
	n.Content = body
	n.ActivityType = domain.ActivitySystemNotification
	n.Metadata = domain.MemoMetadata{
		RelatedMemoID:  memo.MemoID,
		OriginalMemoID: memo.MemoID,
		EventType:      domain.EventMemoReviewDecision,
		Action:         decision.Action(),
		Reason:         decision.Reason(),
	}
	if err := s.memoRepo.SaveMemo(ctx, n); err != nil {
		s.LogError(ctx, err, "Failed to save review notification",
			slog.String("memo_id", memo.MemoID),
			slog.String("action", string(decision.Action())))
		return nil, fmt.Errorf("failed to save review notification: %w", err)
	}
	return &n, nil
}

func (s *notificationService) NotifyRecipients(ctx context.Context, memo domain.Memo, actor domain.Actor) ([]domain.Memo, error) {
	recipients := memo.ResolveRecipients()
	if len(recipients) == 0 {
		return nil, nil
	}

	copies := make([]domain.Memo, 0, len(recipients))
	for _, recipientID := range recipients {
		c := s.newRecord(memo, actor, recipientID)
		// Copies keep the author as sender so they show up in the author's sent folder.
		c.SenderID = memo.SenderID
		c.Subject = memo.Subject
		c.Content = memo.Content
		c.Metadata = memo.Metadata.Clone()
		c.Metadata.RelatedMemoID = memo.MemoID
		c.Metadata.OriginalMemoID = memo.MemoID
		if err := s.memoRepo.SaveMemo(ctx, c); err != nil {
			s.LogError(ctx, err, "Failed to save delivery copy",
				slog.String("memo_id", memo.MemoID),
				slog.String("recipient_id", recipientID))
			return nil, fmt.Errorf("failed to save delivery copy: %w", err)
		}
		copies = append(copies, c)
	}
	return copies, nil
}

func (s *notificationService) ArchivePendingAdminNotifications(ctx context.Context, originalMemoID string) (int64, error) {
	n, err := s.memoRepo.ArchiveNotifications(ctx, portsrepo.NotificationArchive{
		RelatedMemoID: originalMemoID,
		EventType:     domain.EventMemoPendingReview,
		ArchivedBy:    systemActorID,
		ArchivedAt:    s.now().UTC(),
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to archive pending notifications", slog.String("memo_id", originalMemoID))
		return 0, fmt.Errorf("failed to archive pending notifications: %w", err)
	}
	return n, nil
}

// DispatchEmails sends an e-mail for every notification whose addressee has
// an address on file. It never returns an error.
func (s *notificationService) DispatchEmails(ctx context.Context, notifications []domain.Memo) {
	if s.mailer == nil || len(notifications) == 0 {
		return
	}

	ids := make([]string, 0, len(notifications))
	for _, n := range notifications {
		if n.RecipientID != nil {
			ids = append(ids, *n.RecipientID)
		}
	}
	users, err := s.userRepo.FindUsersByIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve notification addressees")
		return
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	for _, n := range notifications {
		if n.RecipientID == nil {
			continue
		}
		u, ok := byID[*n.RecipientID]
		if !ok || !u.IsActive || u.Email == "" {
			continue
		}
		msg := domain.EmailMessage{
			To:      []mail.Address{{Name: u.Name, Address: u.Email}},
			Subject: n.Subject,
			Text:    n.Content,
		}
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailSendTimeout)
		err := s.mailer.Send(sendCtx, msg)
		cancel()
		if err != nil {
			s.LogError(ctx, err, "Failed to e-mail notification",
				slog.String("notification_id", n.MemoID),
				slog.String("recipient_id", u.UserID))
		}
	}
}
