package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
)

// workflowService moves a submission from pending through the admin's
// decision to delivery. Every memo write of one call happens in one unit of work.
type workflowService struct {
	BaseService
	uow       portsrepo.UnitOfWork
	notifier  portssvc.NotificationSvcFacade
	backups   portssvc.BackupSchedulerSvc
	retention domain.RetentionPolicy
	now       func() time.Time
}

// WorkflowOption configures the workflow service.
type WorkflowOption func(*workflowService)

// WithRetentionPolicy sets what happens to a submission after the decision.
func WithRetentionPolicy(policy domain.RetentionPolicy) WorkflowOption {
	return func(s *workflowService) {
		s.retention = policy
	}
}

// WithBackupScheduler enables snapshot backups of approved memos.
func WithBackupScheduler(backups portssvc.BackupSchedulerSvc) WorkflowOption {
	return func(s *workflowService) {
		s.backups = backups
	}
}

// WithWorkflowClock overrides time.Now, for tests.
func WithWorkflowClock(now func() time.Time) WorkflowOption {
	return func(s *workflowService) {
		s.now = now
	}
}

// NewWorkflowService creates the memo workflow orchestrator.
func NewWorkflowService(uow portsrepo.UnitOfWork, notifier portssvc.NotificationSvcFacade, options ...WorkflowOption) portssvc.WorkflowSvcFacade {
	svc := &workflowService{
		uow:       uow,
		notifier:  notifier,
		retention: domain.RetentionDelete,
		now:       time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.WorkflowSvcFacade = (*workflowService)(nil)

func (s *workflowService) CreateBySecretary(ctx context.Context, secretary domain.User, req dto.SubmitMemoRequest) (*domain.Memo, error) {
	if !secretary.HasRole(domain.RoleSecretary) {
		return nil, apperrors.NewForbiddenError("only secretaries can submit memos for approval")
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("unknown priority %q", priority))
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationFailedError("subject is required")
	}
	department := strings.TrimSpace(req.Department)
	if department == "" {
		department = secretary.Department
	}

	now := s.now().UTC()
	memo := domain.Memo{
		MemoID:      uuid.NewString(),
		SenderID:    secretary.UserID,
		RecipientID: req.RecipientID,
		Recipients:  req.Recipients,
		Subject:     subject,
		Content:     req.Content,
		Department:  department,
		Priority:    priority,
		Status:      domain.MemoStatusPending,
		Folder:      domain.FolderDrafts,
		Metadata:    domain.NewMemoMetadata(req.Metadata),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     secretary.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: secretary.UserID,
		},
		Version: 1,
	}
	recipients := memo.ResolveRecipients()
	if len(recipients) == 0 {
		return nil, apperrors.NewValidationFailedError("at least one recipient is required")
	}
	if len(req.Recipients) > 0 {
		memo.Recipients = recipients
	}
	memo = domain.AppendHistory(memo, secretary.Actor(), domain.HistoryCreated, "", now)

	var notifications []domain.Memo
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		if err := tx.Memos.SaveMemo(ctx, memo); err != nil {
			s.LogError(ctx, err, "Failed to save submitted memo", slog.String("memo_id", memo.MemoID))
			return fmt.Errorf("failed to save memo: %w", err)
		}
		var err error
		notifications, err = s.notifier.WithMemoRepository(tx.Memos).NotifyAdmin(ctx, memo, secretary.Actor())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.DispatchEmails(ctx, notifications)
	s.LogInfo(ctx, "Memo submitted for approval",
		slog.String("memo_id", memo.MemoID),
		slog.Int("recipients", len(recipients)),
		slog.Int("admins_notified", len(notifications)))
	return &memo, nil
}

func (s *workflowService) Approve(ctx context.Context, memoID string, admin domain.User) (*domain.Memo, error) {
	decision, err := domain.NewReviewDecision(domain.ReviewApproved, "")
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, memoID, admin, decision)
}

func (s *workflowService) Reject(ctx context.Context, memoID string, admin domain.User, reason string) (*domain.Memo, error) {
	decision, err := domain.NewReviewDecision(domain.ReviewRejected, reason)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, memoID, admin, decision)
}

// decide runs the shared approve/reject sequence. Only approvals deliver and
// queue a backup.
func (s *workflowService) decide(ctx context.Context, memoID string, admin domain.User, decision domain.ReviewDecision) (*domain.Memo, error) {
	if !admin.HasRole(domain.RoleAdmin) {
		return nil, apperrors.NewForbiddenError("only admins can review memos")
	}
	logger := s.GetLogger(ctx).With(slog.String("memo_id", memoID), slog.String("action", string(decision.Action())))
	actor := admin.Actor()

	var (
		result   domain.Memo
		outgoing []domain.Memo
		queued   bool
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx portsrepo.TxRepositories) error {
		outgoing = outgoing[:0]
		queued = false

		memo, err := s.loadPending(ctx, tx.Memos, memoID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		historyAction, status := domain.HistoryApproved, domain.MemoStatusApproved
		if decision.Action() == domain.ReviewRejected {
			historyAction, status = domain.HistoryRejected, domain.MemoStatusRejected
		}
		updated := domain.AppendHistory(*memo, actor, historyAction, decision.Reason(), now)
		updated.Status = status
		touch(&updated, admin.UserID, now)
		if err := tx.Memos.UpdateMemo(ctx, &updated); err != nil {
			logger.Error("Failed to record review decision", slog.String("error", err.Error()))
			return fmt.Errorf("failed to record decision: %w", err)
		}

		notifier := s.notifier.WithMemoRepository(tx.Memos)
		n, err := notifier.NotifySecretary(ctx, updated, actor, decision)
		if err != nil {
			return err
		}
		outgoing = append(outgoing, *n)

		if decision.Action() == domain.ReviewApproved {
			var copies []domain.Memo
			updated, copies, err = s.deliver(ctx, tx.Memos, notifier, updated, admin)
			if err != nil {
				return err
			}
			outgoing = append(outgoing, copies...)
		}

		archived, err := notifier.ArchivePendingAdminNotifications(ctx, updated.MemoID)
		if err != nil {
			return err
		}
		logger.Debug("Pending review notifications archived", slog.Int64("count", archived))

		if err := s.applyRetention(ctx, tx.Memos, &updated, now); err != nil {
			logger.Error("Failed to apply retention policy", slog.String("error", err.Error()))
			return err
		}

		if decision.Action() == domain.ReviewApproved && s.backups != nil && s.backups.Enabled() {
			job, err := s.backups.NewJob(updated)
			if err != nil {
				return fmt.Errorf("failed to build backup job: %w", err)
			}
			if err := tx.BackupJobs.EnqueueBackupJob(ctx, job); err != nil {
				logger.Error("Failed to enqueue backup job", slog.String("error", err.Error()))
				return fmt.Errorf("failed to enqueue backup job: %w", err)
			}
			queued = true
		}

		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.DispatchEmails(ctx, outgoing)
	if queued {
		s.backups.Wake()
	}
	logger.Info("Memo reviewed",
		slog.String("status", string(result.Status)),
		slog.String("retention", string(s.retention)),
		slog.Int("delivered", len(outgoing)-1))
	return &result, nil
}

// loadPending locks the memo for the rest of the transaction and checks it
// still awaits a decision.
func (s *workflowService) loadPending(ctx context.Context, repo portsrepo.MemoReader, memoID string) (*domain.Memo, error) {
	memo, err := repo.FindMemoByIDForUpdate(ctx, memoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("memo " + memoID)
		}
		s.LogError(ctx, err, "Failed to load memo for review", slog.String("memo_id", memoID))
		return nil, fmt.Errorf("failed to load memo: %w", err)
	}
	if memo.ActivityType != domain.ActivityNone || memo.IsCopy() {
		return nil, apperrors.NewConflictError("only submissions can be reviewed")
	}
	if memo.Status != domain.MemoStatusPending {
		return nil, apperrors.NewConflictError(fmt.Sprintf("memo is %s, expected %s", memo.Status, domain.MemoStatusPending))
	}
	return memo, nil
}

// deliver creates the recipients' copies and marks the submission sent. The
// copies carry the full history, including the sent entry.
func (s *workflowService) deliver(ctx context.Context, repo portsrepo.MemoWriter, notifier portssvc.NotificationEmitterSvc, memo domain.Memo, admin domain.User) (domain.Memo, []domain.Memo, error) {
	now := s.now().UTC()
	sent := domain.AppendHistory(memo, admin.Actor(), domain.HistorySent, "", now)
	sent.Status = domain.MemoStatusSent
	touch(&sent, admin.UserID, now)

	copies, err := notifier.NotifyRecipients(ctx, sent, admin.Actor())
	if err != nil {
		return memo, nil, err
	}
	if err := repo.UpdateMemo(ctx, &sent); err != nil {
		s.LogError(ctx, err, "Failed to mark memo sent", slog.String("memo_id", memo.MemoID))
		return memo, nil, fmt.Errorf("failed to mark memo sent: %w", err)
	}
	return sent, copies, nil
}

func (s *workflowService) applyRetention(ctx context.Context, repo portsrepo.MemoWriter, memo *domain.Memo, now time.Time) error {
	switch s.retention {
	case domain.RetentionArchive:
		memo.Folder = domain.FolderArchived
		touch(memo, systemActorID, now)
		if err := repo.UpdateMemo(ctx, memo); err != nil {
			return fmt.Errorf("failed to archive reviewed memo: %w", err)
		}
	default:
		if err := repo.DeleteMemo(ctx, memo.MemoID); err != nil {
			return fmt.Errorf("failed to delete reviewed memo: %w", err)
		}
	}
	return nil
}

func touch(m *domain.Memo, userID string, at time.Time) {
	m.LastUpdatedAt = at
	m.LastUpdatedBy = userID
}
