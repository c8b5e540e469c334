package handlers_test

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/stretchr/testify/mock"
)

const testJWTSecret = "test-secret-key-that-is-long-enough"

var errStorage = errors.New("connection reset by peer")

// generateTestToken creates a signed JWT for userID.
func generateTestToken(userID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    "memofy-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(testJWTSecret))
}

// --- Mock UserService ---
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) ListUsers(ctx context.Context, params dto.ListUsersParams) ([]domain.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *MockUserService) CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error) {
	args := m.Called(ctx, userID, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) SetPassword(ctx context.Context, userID string, password string, requestingUserID string) error {
	args := m.Called(ctx, userID, password, requestingUserID)
	return args.Error(0)
}
func (m *MockUserService) DeleteUser(ctx context.Context, userID string, requestingUserID string) error {
	args := m.Called(ctx, userID, requestingUserID)
	return args.Error(0)
}
func (m *MockUserService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserService) SignInWithGoogle(ctx context.Context, email string, providerUserID string) (*domain.User, error) {
	args := m.Called(ctx, email, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

var _ portssvc.UserSvcFacade = (*MockUserService)(nil)

// --- Mock TokenService ---
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

var _ portssvc.TokenSvcFacade = (*MockTokenService)(nil)

// --- Mock MemoService ---
type MockMemoService struct {
	mock.Mock
}

func (m *MockMemoService) ListMemos(ctx context.Context, user domain.User, params dto.ListMemosParams) (*dto.ListMemosResponse, error) {
	args := m.Called(ctx, user, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListMemosResponse), args.Error(1)
}
func (m *MockMemoService) GetMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	args := m.Called(ctx, memoID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Memo), args.Error(1)
}
func (m *MockMemoService) NotificationSummary(ctx context.Context, user domain.User) (*dto.NotificationSummaryResponse, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.NotificationSummaryResponse), args.Error(1)
}
func (m *MockMemoService) MarkRead(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	args := m.Called(ctx, memoID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Memo), args.Error(1)
}
func (m *MockMemoService) ArchiveMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	args := m.Called(ctx, memoID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Memo), args.Error(1)
}
func (m *MockMemoService) TrashMemo(ctx context.Context, memoID string, user domain.User) (*domain.Memo, error) {
	args := m.Called(ctx, memoID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Memo), args.Error(1)
}

var _ portssvc.MemoSvcFacade = (*MockMemoService)(nil)

// --- Mock WorkflowService ---
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) CreateBySecretary(ctx context.Context, secretary domain.User, req dto.SubmitMemoRequest) (*domain.Memo, error) {
	args := m.Called(ctx, secretary, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Memo), args.Error(1)
}
func (m *MockWorkflowService) Approve(ctx context.Context, memoID string, admin domain.User) (*domain.Memo, error) {
	args := m.Called(ctx, memoID, admin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Memo), args.Error(1)
}
func (m *MockWorkflowService) Reject(ctx context.Context, memoID string, admin domain.User, reason string) (*domain.Memo, error) {
	args := m.Called(ctx, memoID, admin, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Memo), args.Error(1)
}

var _ portssvc.WorkflowSvcFacade = (*MockWorkflowService)(nil)

// --- Mock BackupService ---
type MockBackupService struct {
	mock.Mock
}

func (m *MockBackupService) ListJobs(ctx context.Context, status *domain.BackupJobStatus, limit int) ([]domain.BackupJob, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BackupJob), args.Error(1)
}
func (m *MockBackupService) RetryJob(ctx context.Context, jobID string) (*domain.BackupJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BackupJob), args.Error(1)
}

var _ portssvc.BackupAdminSvc = (*MockBackupService)(nil)
