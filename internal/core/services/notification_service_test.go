package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationFixture struct {
	ctx       context.Context
	repos     portsrepo.RepositoryProvider
	secretary domain.User
	admin     domain.User
	memo      domain.Memo
}

func newNotificationFixture(t *testing.T) notificationFixture {
	t.Helper()
	f := notificationFixture{ctx: context.Background(), repos: memory.NewRepositoryProvider(memory.NewStore())}
	var err error
	f.secretary, err = seedUser(f.ctx, f.repos.UserRepo, domain.RoleSecretary, "sec@buksu.edu.ph", 0)
	require.NoError(t, err)
	f.admin, err = seedUser(f.ctx, f.repos.UserRepo, domain.RoleAdmin, "dean@buksu.edu.ph", 1)
	require.NoError(t, err)
	f.memo = domain.Memo{
		MemoID:     uuid.NewString(),
		SenderID:   f.secretary.UserID,
		Recipients: []string{uuid.NewString(), uuid.NewString()},
		Subject:    "Faculty meeting",
		Department: "CoT",
		Priority:   domain.PriorityHigh,
		Status:     domain.MemoStatusPending,
		Folder:     domain.FolderDrafts,
		Metadata:   domain.NewMemoMetadata(map[string]any{"room": "AVR"}),
		Version:    1,
	}
	return f
}

func TestNotifyAdmin_NoAdmins(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositoryProvider(memory.NewStore())
	svc := services.NewNotificationService(repos.MemoRepo, repos.UserRepo)

	created, err := svc.NotifyAdmin(ctx, domain.Memo{MemoID: uuid.NewString(), Subject: "x"}, domain.Actor{ID: "sec"})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestNotifySecretary_Decision(t *testing.T) {
	f := newNotificationFixture(t)
	svc := services.NewNotificationService(f.repos.MemoRepo, f.repos.UserRepo, services.WithNotificationClock(fixedClock))

	_, err := svc.NotifySecretary(f.ctx, f.memo, f.admin.Actor(), domain.ReviewDecision{})
	assert.Error(t, err)

	decision, err := domain.NewReviewDecision(domain.ReviewRejected, "Wrong venue")
	require.NoError(t, err)
	n, err := svc.NotifySecretary(f.ctx, f.memo, f.admin.Actor(), decision)
	require.NoError(t, err)

	assert.Equal(t, f.secretary.UserID, *n.RecipientID)
	assert.Equal(t, f.admin.UserID, n.SenderID)
	assert.Equal(t, domain.ActivitySystemNotification, n.ActivityType)
	assert.Equal(t, domain.EventMemoReviewDecision, n.Metadata.EventType)
	assert.Equal(t, "Wrong venue", n.Metadata.Reason)
	assert.Equal(t, f.memo.MemoID, n.Metadata.RelatedMemoID)
	assert.Equal(t, "Memo rejected: Faculty meeting", n.Subject)
	assert.Equal(t, testNow, n.CreatedAt)
	assert.Equal(t, domain.PriorityHigh, n.Priority)
}

func TestNotifyRecipients_CopiesKeepAuthorAndMetadata(t *testing.T) {
	f := newNotificationFixture(t)
	svc := services.NewNotificationService(f.repos.MemoRepo, f.repos.UserRepo)

	copies, err := svc.NotifyRecipients(f.ctx, f.memo, f.admin.Actor())
	require.NoError(t, err)
	require.Len(t, copies, 2)
	for i, c := range copies {
		assert.Equal(t, f.memo.Recipients[i], *c.RecipientID)
		assert.Equal(t, f.secretary.UserID, c.SenderID)
		assert.Equal(t, f.admin.UserID, c.CreatedBy)
		assert.Equal(t, domain.ActivityNone, c.ActivityType)
		assert.Equal(t, domain.MemoStatusSent, c.Status)
		assert.Equal(t, "AVR", c.Metadata.Extra["room"])
		assert.True(t, c.IsCopy())
	}
	// The source metadata is not shared with the copies.
	copies[0].Metadata.Extra["room"] = "Gym"
	assert.Equal(t, "AVR", f.memo.Metadata.Extra["room"])

	none, err := svc.NotifyRecipients(f.ctx, domain.Memo{MemoID: uuid.NewString()}, f.admin.Actor())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestArchivePendingAdminNotifications_Idempotent(t *testing.T) {
	f := newNotificationFixture(t)
	svc := services.NewNotificationService(f.repos.MemoRepo, f.repos.UserRepo)

	created, err := svc.NotifyAdmin(f.ctx, f.memo, f.secretary.Actor())
	require.NoError(t, err)
	require.Len(t, created, 1)

	n, err := svc.ArchivePendingAdminNotifications(f.ctx, f.memo.MemoID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = svc.ArchivePendingAdminNotifications(f.ctx, f.memo.MemoID)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := f.repos.MemoRepo.FindMemoByID(f.ctx, created[0].MemoID)
	require.NoError(t, err)
	assert.Equal(t, domain.FolderArchived, stored.Folder)
}

func TestDispatchEmails_SkipsUnknownAndInactive(t *testing.T) {
	f := newNotificationFixture(t)
	retired, err := seedUser(f.ctx, f.repos.UserRepo, domain.RoleAdmin, "retired@buksu.edu.ph", 2)
	require.NoError(t, err)
	retired.IsActive = false
	require.NoError(t, f.repos.UserRepo.UpdateUser(f.ctx, &retired))

	mailer := &recordingMailer{err: errors.New("smtp: 421 try again later")}
	svc := services.NewNotificationService(f.repos.MemoRepo, f.repos.UserRepo, services.WithMailSender(mailer))

	ghost := uuid.NewString()
	svc.DispatchEmails(f.ctx, []domain.Memo{
		{MemoID: "n1", RecipientID: &f.admin.UserID, Subject: "Memo pending approval: x", Content: "body"},
		{MemoID: "n2", RecipientID: &retired.UserID, Subject: "x"},
		{MemoID: "n3", RecipientID: &ghost, Subject: "x"},
		{MemoID: "n4", Subject: "x"},
	})

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "dean@buksu.edu.ph", mailer.sent[0].To[0].Address)
	assert.Equal(t, "Memo pending approval: x", mailer.sent[0].Subject)
	assert.Equal(t, "body", mailer.sent[0].Text)
}

func TestWithMemoRepository_WritesThroughGivenRepo(t *testing.T) {
	f := newNotificationFixture(t)
	other := memory.NewRepositoryProvider(memory.NewStore())
	svc := services.NewNotificationService(f.repos.MemoRepo, f.repos.UserRepo)

	created, err := svc.WithMemoRepository(other.MemoRepo).NotifyAdmin(f.ctx, f.memo, f.secretary.Actor())
	require.NoError(t, err)
	require.Len(t, created, 1)

	_, err = other.MemoRepo.FindMemoByID(f.ctx, created[0].MemoID)
	assert.NoError(t, err)
	_, err = f.repos.MemoRepo.FindMemoByID(f.ctx, created[0].MemoID)
	assert.Error(t, err)
}
