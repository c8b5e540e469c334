package services

import (
	"fmt"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/config"
)

// Collaborators are the outbound adapters chosen at startup. Nil members
// disable the matching side channel.
type Collaborators struct {
	Mailer   portssvc.MailSender
	Uploader portssvc.BackupUploader
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, deps Collaborators) (*portssvc.ServiceContainer, error) {
	retention, err := domain.ParseRetentionPolicy(cfg.MemoRetentionPolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid memo retention policy: %w", err)
	}

	container := &portssvc.ServiceContainer{}
	container.User = NewUserService(repos.UserRepo)
	container.TokenService = NewTokenService(cfg)
	container.GoogleOAuthHandler = NewGoogleOAuthHandlerService(cfg)

	backupOpts := []BackupOption{WithBackupPolicy(BackupPolicy{
		MaxAttempts:  cfg.BackupMaxAttempts,
		BaseDelay:    cfg.BackupBaseDelay,
		MaxDelay:     cfg.BackupMaxDelay,
		PollInterval: cfg.BackupPollInterval,
	})}
	if deps.Uploader != nil {
		backupOpts = append(backupOpts, WithBackupUploader(deps.Uploader))
	}
	container.Backup = NewBackupService(repos.BackupJobRepo, backupOpts...)

	var notifyOpts []NotificationOption
	if deps.Mailer != nil {
		notifyOpts = append(notifyOpts, WithMailSender(deps.Mailer))
	}
	container.Notification = NewNotificationService(repos.MemoRepo, repos.UserRepo, notifyOpts...)

	container.Workflow = NewWorkflowService(
		repos.UnitOfWork,
		container.Notification,
		WithRetentionPolicy(retention),
		WithBackupScheduler(container.Backup),
	)
	container.Memo = NewMemoService(repos.MemoRepo)

	return container, nil
}
