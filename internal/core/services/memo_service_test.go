package services_test

import (
	"context"
	"testing"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/repositories/memory"
	"github.com/stretchr/testify/suite"
)

type MemoServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	repos     portsrepo.RepositoryProvider
	svc       portssvc.MemoSvcFacade
	workflow  portssvc.WorkflowSvcFacade
	secretary domain.User
	admin     domain.User
	ana       domain.User
	ben       domain.User
}

func (suite *MemoServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.repos = memory.NewRepositoryProvider(memory.NewStore())
	notifier := services.NewNotificationService(suite.repos.MemoRepo, suite.repos.UserRepo)
	suite.workflow = services.NewWorkflowService(suite.repos.UnitOfWork, notifier)
	suite.svc = services.NewMemoService(suite.repos.MemoRepo)

	var err error
	suite.secretary, err = seedUser(suite.ctx, suite.repos.UserRepo, domain.RoleSecretary, "sec@buksu.edu.ph", 0)
	suite.Require().NoError(err)
	suite.admin, err = seedUser(suite.ctx, suite.repos.UserRepo, domain.RoleAdmin, "dean@buksu.edu.ph", 1)
	suite.Require().NoError(err)
	suite.ana, err = seedUser(suite.ctx, suite.repos.UserRepo, domain.RoleFaculty, "ana@buksu.edu.ph", 2)
	suite.Require().NoError(err)
	suite.ben, err = seedUser(suite.ctx, suite.repos.UserRepo, domain.RoleFaculty, "ben@buksu.edu.ph", 3)
	suite.Require().NoError(err)
}

// deliver submits a memo to ana and approves it.
func (suite *MemoServiceTestSuite) deliver(subject string) *domain.Memo {
	memo, err := suite.workflow.CreateBySecretary(suite.ctx, suite.secretary, dto.SubmitMemoRequest{
		Recipients: []string{suite.ana.UserID},
		Subject:    subject,
	})
	suite.Require().NoError(err)
	_, err = suite.workflow.Approve(suite.ctx, memo.MemoID, suite.admin)
	suite.Require().NoError(err)
	return memo
}

func (suite *MemoServiceTestSuite) list(user domain.User, folder string) []dto.MemoResponse {
	resp, err := suite.svc.ListMemos(suite.ctx, user, dto.ListMemosParams{Folder: folder, Limit: 50})
	suite.Require().NoError(err)
	return resp.Memos
}

func (suite *MemoServiceTestSuite) TestListMemos_Folders() {
	delivered := suite.deliver("Faculty meeting")
	pending, err := suite.workflow.CreateBySecretary(suite.ctx, suite.secretary, dto.SubmitMemoRequest{
		Recipients: []string{suite.ben.UserID},
		Subject:    "Budget request",
	})
	suite.Require().NoError(err)

	inbox := suite.list(suite.ana, "inbox")
	suite.Require().Len(inbox, 1)
	suite.Equal(dto.KindLetter, inbox[0].Kind)
	suite.Equal(delivered.MemoID, inbox[0].RelatedMemoID)

	suite.Empty(suite.list(suite.ben, "inbox"))

	drafts := suite.list(suite.secretary, "drafts")
	suite.Require().Len(drafts, 1)
	suite.Equal(pending.MemoID, drafts[0].MemoID)
	suite.Equal(domain.MemoStatusPending, drafts[0].Status)

	sent := suite.list(suite.secretary, "sent")
	suite.Require().Len(sent, 1)
	suite.Equal(suite.ana.UserID, *sent[0].RecipientID)

	secInbox := suite.list(suite.secretary, "inbox")
	suite.Require().Len(secInbox, 1)
	suite.Equal(dto.KindNotification, secInbox[0].Kind)
	suite.Equal(domain.EventMemoReviewDecision, secInbox[0].EventType)
	suite.Equal(domain.ReviewApproved, secInbox[0].Action)

	adminInbox := suite.list(suite.admin, "inbox")
	suite.Require().Len(adminInbox, 1)
	suite.Equal(domain.EventMemoPendingReview, adminInbox[0].EventType)
	suite.Equal(pending.MemoID, adminInbox[0].RelatedMemoID)
	suite.Len(suite.list(suite.admin, "archived"), 1)
}

func (suite *MemoServiceTestSuite) TestListMemos_Paginates() {
	for _, s := range []string{"One", "Two", "Three"} {
		suite.deliver(s)
	}

	seen := map[string]bool{}
	params := dto.ListMemosParams{Folder: "inbox", Limit: 2}
	for page := 0; ; page++ {
		suite.Require().Less(page, 3)
		resp, err := suite.svc.ListMemos(suite.ctx, suite.ana, params)
		suite.Require().NoError(err)
		for _, m := range resp.Memos {
			suite.False(seen[m.MemoID], "memo listed twice")
			seen[m.MemoID] = true
		}
		if resp.NextToken == nil {
			break
		}
		params.NextToken = resp.NextToken
	}
	suite.Len(seen, 3)
}

func (suite *MemoServiceTestSuite) TestListMemos_BadInput() {
	_, err := suite.svc.ListMemos(suite.ctx, suite.ana, dto.ListMemosParams{Folder: "spam"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	token := "%%%"
	_, err = suite.svc.ListMemos(suite.ctx, suite.ana, dto.ListMemosParams{Folder: "inbox", NextToken: &token})
	suite.ErrorIs(err, apperrors.ErrBadRequest)
}

func (suite *MemoServiceTestSuite) TestGetMemo_Visibility() {
	suite.deliver("Faculty meeting")
	copyID := suite.list(suite.ana, "inbox")[0].MemoID

	_, err := suite.svc.GetMemo(suite.ctx, copyID, suite.ana)
	suite.NoError(err)
	_, err = suite.svc.GetMemo(suite.ctx, copyID, suite.secretary)
	suite.NoError(err)
	_, err = suite.svc.GetMemo(suite.ctx, copyID, suite.admin)
	suite.NoError(err)

	_, err = suite.svc.GetMemo(suite.ctx, copyID, suite.ben)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *MemoServiceTestSuite) TestMarkRead() {
	suite.deliver("Faculty meeting")
	copyID := suite.list(suite.ana, "inbox")[0].MemoID

	_, err := suite.svc.MarkRead(suite.ctx, copyID, suite.secretary)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	read, err := suite.svc.MarkRead(suite.ctx, copyID, suite.ana)
	suite.Require().NoError(err)
	suite.Equal(domain.MemoStatusRead, read.Status)
	last, _ := read.LastHistoryEntry()
	suite.Equal(domain.HistoryRead, last.Action)
	suite.Equal(suite.ana.UserID, last.By.ID)

	again, err := suite.svc.MarkRead(suite.ctx, copyID, suite.ana)
	suite.Require().NoError(err)
	suite.Equal(read.Version, again.Version)

	// Read copies stay in the inbox.
	suite.Len(suite.list(suite.ana, "inbox"), 1)
}

func (suite *MemoServiceTestSuite) TestArchiveAndTrash() {
	suite.deliver("Faculty meeting")
	copyID := suite.list(suite.ana, "inbox")[0].MemoID

	_, err := suite.svc.ArchiveMemo(suite.ctx, copyID, suite.ben)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	archived, err := suite.svc.ArchiveMemo(suite.ctx, copyID, suite.ana)
	suite.Require().NoError(err)
	suite.Equal(domain.FolderArchived, archived.Folder)
	suite.Empty(suite.list(suite.ana, "inbox"))
	suite.Len(suite.list(suite.ana, "archived"), 1)

	trashed, err := suite.svc.TrashMemo(suite.ctx, copyID, suite.ana)
	suite.Require().NoError(err)
	suite.Equal(domain.FolderDeleted, trashed.Folder)
	suite.Len(suite.list(suite.ana, "deleted"), 1)

	_, err = suite.repos.MemoRepo.FindMemoByID(suite.ctx, copyID)
	suite.NoError(err)
}

func (suite *MemoServiceTestSuite) TestFolderMoves_StayInOwnMailbox() {
	suite.deliver("Faculty meeting")
	copyID := suite.list(suite.secretary, "sent")[0].MemoID

	_, err := suite.svc.TrashMemo(suite.ctx, copyID, suite.secretary)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	_, err = suite.svc.ArchiveMemo(suite.ctx, copyID, suite.secretary)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.Len(suite.list(suite.ana, "inbox"), 1)

	_, err = suite.svc.TrashMemo(suite.ctx, copyID, suite.ana)
	suite.Require().NoError(err)
	suite.Len(suite.list(suite.ana, "deleted"), 1)
	suite.Empty(suite.list(suite.secretary, "deleted"))
	suite.Empty(suite.list(suite.secretary, "archived"))
	suite.Len(suite.list(suite.secretary, "sent"), 1)
}

func (suite *MemoServiceTestSuite) TestArchive_PendingMemoConflicts() {
	pending, err := suite.workflow.CreateBySecretary(suite.ctx, suite.secretary, dto.SubmitMemoRequest{
		Recipients: []string{suite.ben.UserID},
		Subject:    "Budget request",
	})
	suite.Require().NoError(err)

	_, err = suite.svc.ArchiveMemo(suite.ctx, pending.MemoID, suite.secretary)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *MemoServiceTestSuite) TestNotificationSummary() {
	_, err := suite.workflow.CreateBySecretary(suite.ctx, suite.secretary, dto.SubmitMemoRequest{
		Recipients: []string{suite.ben.UserID},
		Subject:    "Budget request",
	})
	suite.Require().NoError(err)
	suite.deliver("Faculty meeting")

	adminSummary, err := suite.svc.NotificationSummary(suite.ctx, suite.admin)
	suite.Require().NoError(err)
	suite.Equal(dto.NotificationSummaryResponse{PendingReview: 1, Total: 1}, *adminSummary)

	secSummary, err := suite.svc.NotificationSummary(suite.ctx, suite.secretary)
	suite.Require().NoError(err)
	suite.Equal(dto.NotificationSummaryResponse{ReviewDecision: 1, Total: 1}, *secSummary)
}

func TestMemoService(t *testing.T) {
	suite.Run(t, new(MemoServiceTestSuite))
}
