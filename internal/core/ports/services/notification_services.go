package services

import (
	"context"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

// NotificationEmitterSvc writes notification and delivery-copy records.
type NotificationEmitterSvc interface {
	// NotifyAdmin creates one pending-review notification per active admin.
	NotifyAdmin(ctx context.Context, memo domain.Memo, actor domain.Actor) ([]domain.Memo, error)

	// NotifySecretary tells the memo's sender about a review decision.
	NotifySecretary(ctx context.Context, memo domain.Memo, actor domain.Actor, decision domain.ReviewDecision) (*domain.Memo, error)

	// NotifyRecipients creates one delivery copy per resolved recipient.
	NotifyRecipients(ctx context.Context, memo domain.Memo, actor domain.Actor) ([]domain.Memo, error)

	// ArchivePendingAdminNotifications clears the pending-review notifications
	// of originalMemoID. Calling it again changes nothing.
	ArchivePendingAdminNotifications(ctx context.Context, originalMemoID string) (int64, error)
}

// NotificationSvcFacade combines the emitter with its transaction binding and
// the advisory e-mail channel.
type NotificationSvcFacade interface {
	NotificationEmitterSvc

	// WithMemoRepository returns an emitter writing through repo, typically a
	// transaction-bound repository.
	WithMemoRepository(repo portsrepo.MemoRepositoryFacade) NotificationSvcFacade

	// DispatchEmails mails the given notifications to their addressees.
	// Failures are logged only.
	DispatchEmails(ctx context.Context, notifications []domain.Memo)
}

// MailSender delivers one e-mail.
type MailSender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}
