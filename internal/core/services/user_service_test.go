package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, filter portsrepo.UserFilter, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	args := m.Called(ctx, userID, deletedAt, deletedBy)
	return args.Error(0)
}

// --- Test Suite ---
type UserServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    portsrepo.UserRepositoryFacade
	service portssvc.UserSvcFacade
	admin   *domain.User
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.repo = memory.NewRepositoryProvider(memory.NewStore()).UserRepo
	suite.service = services.NewUserService(suite.repo)

	admin, err := suite.service.CreateUser(suite.ctx, dto.CreateUserRequest{
		Email:    "Dean@BukSU.edu.ph ",
		Name:     "Dean",
		Role:     domain.RoleAdmin,
		Password: "correct horse",
	}, "cli")
	suite.Require().NoError(err)
	suite.admin = admin
}

func (suite *UserServiceTestSuite) TestCreateUser() {
	suite.Equal("dean@buksu.edu.ph", suite.admin.Email)
	suite.Equal(domain.ProviderLocal, suite.admin.AuthProvider)
	suite.True(suite.admin.IsActive)
	suite.Equal("cli", suite.admin.CreatedBy)
	suite.Require().NotNil(suite.admin.PasswordHash)
	suite.NotEqual("correct horse", *suite.admin.PasswordHash)

	googleOnly, err := suite.service.CreateUser(suite.ctx, dto.CreateUserRequest{
		Email: "ana@buksu.edu.ph", Name: "Ana", Role: domain.RoleFaculty,
	}, suite.admin.UserID)
	suite.Require().NoError(err)
	suite.Nil(googleOnly.PasswordHash)
}

func (suite *UserServiceTestSuite) TestCreateUser_Rejects() {
	_, err := suite.service.CreateUser(suite.ctx, dto.CreateUserRequest{Email: "dean@buksu.edu.ph", Name: "Dup", Role: domain.RoleFaculty}, "cli")
	suite.ErrorIs(err, apperrors.ErrDuplicate)

	_, err = suite.service.CreateUser(suite.ctx, dto.CreateUserRequest{Email: "x@buksu.edu.ph", Name: "X", Role: "janitor"}, "cli")
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.CreateUser(suite.ctx, dto.CreateUserRequest{Email: "y@buksu.edu.ph", Name: "Y", Role: domain.RoleFaculty, Password: "short"}, "cli")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser() {
	user, err := suite.service.AuthenticateUser(suite.ctx, " DEAN@buksu.edu.ph", "correct horse")
	suite.Require().NoError(err)
	suite.Equal(suite.admin.UserID, user.UserID)

	_, err = suite.service.AuthenticateUser(suite.ctx, "dean@buksu.edu.ph", "wrong horse")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = suite.service.AuthenticateUser(suite.ctx, "nobody@buksu.edu.ph", "correct horse")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_Deactivated() {
	sec, err := suite.service.CreateUser(suite.ctx, dto.CreateUserRequest{
		Email: "sec@buksu.edu.ph", Name: "Sec", Role: domain.RoleSecretary, Password: "letmein123",
	}, suite.admin.UserID)
	suite.Require().NoError(err)
	inactive := false
	_, err = suite.service.UpdateUser(suite.ctx, sec.UserID, dto.UpdateUserRequest{IsActive: &inactive}, suite.admin.UserID)
	suite.Require().NoError(err)

	_, err = suite.service.AuthenticateUser(suite.ctx, "sec@buksu.edu.ph", "letmein123")
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *UserServiceTestSuite) TestUpdateUser_SelfProtection() {
	faculty := domain.RoleFaculty
	_, err := suite.service.UpdateUser(suite.ctx, suite.admin.UserID, dto.UpdateUserRequest{Role: &faculty}, suite.admin.UserID)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	inactive := false
	_, err = suite.service.UpdateUser(suite.ctx, suite.admin.UserID, dto.UpdateUserRequest{IsActive: &inactive}, suite.admin.UserID)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	// The CLI is not the user being changed.
	updated, err := suite.service.UpdateUser(suite.ctx, suite.admin.UserID, dto.UpdateUserRequest{Role: &faculty}, "cli")
	suite.Require().NoError(err)
	suite.Equal(domain.RoleFaculty, updated.Role)
	suite.Equal("cli", updated.LastUpdatedBy)
}

func (suite *UserServiceTestSuite) TestSetPassword() {
	suite.Require().NoError(suite.service.SetPassword(suite.ctx, suite.admin.UserID, "battery staple", "cli"))

	_, err := suite.service.AuthenticateUser(suite.ctx, "dean@buksu.edu.ph", "correct horse")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	_, err = suite.service.AuthenticateUser(suite.ctx, "dean@buksu.edu.ph", "battery staple")
	suite.NoError(err)

	err = suite.service.SetPassword(suite.ctx, suite.admin.UserID, "abc", "cli")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *UserServiceTestSuite) TestSignInWithGoogle() {
	_, err := suite.service.SignInWithGoogle(suite.ctx, "stranger@gmail.com", "sub-1")
	suite.ErrorIs(err, apperrors.ErrForbidden)

	linked, err := suite.service.SignInWithGoogle(suite.ctx, "dean@buksu.edu.ph", "sub-1")
	suite.Require().NoError(err)
	suite.Require().NotNil(linked.ProviderUserID)
	suite.Equal("sub-1", *linked.ProviderUserID)
	// A password account stays local after linking.
	suite.Equal(domain.ProviderLocal, linked.AuthProvider)

	_, err = suite.service.SignInWithGoogle(suite.ctx, "dean@buksu.edu.ph", "sub-1")
	suite.NoError(err)

	_, err = suite.service.SignInWithGoogle(suite.ctx, "dean@buksu.edu.ph", "sub-2")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestListAndDeleteUsers() {
	sec, err := suite.service.CreateUser(suite.ctx, dto.CreateUserRequest{Email: "sec@buksu.edu.ph", Name: "Sec", Role: domain.RoleSecretary}, suite.admin.UserID)
	suite.Require().NoError(err)

	users, err := suite.service.ListUsers(suite.ctx, dto.ListUsersParams{Role: "secretary"})
	suite.Require().NoError(err)
	suite.Require().Len(users, 1)
	suite.Equal(sec.UserID, users[0].UserID)

	suite.ErrorIs(suite.service.DeleteUser(suite.ctx, suite.admin.UserID, suite.admin.UserID), apperrors.ErrForbidden)
	suite.Require().NoError(suite.service.DeleteUser(suite.ctx, sec.UserID, suite.admin.UserID))

	_, err = suite.service.GetUserByID(suite.ctx, sec.UserID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func TestGetUserByID_PropagatesRepositoryError(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindUserByID", mock.Anything, "u-1").Return(nil, errStorage).Once()
	svc := services.NewUserService(repo)

	_, err := svc.GetUserByID(context.Background(), "u-1")

	assert.ErrorIs(t, err, errStorage)
	repo.AssertExpectations(t)
}

func TestCreateUser_SaveFailure(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindUserByEmail", mock.Anything, "ana@buksu.edu.ph").Return(nil, apperrors.ErrNotFound).Once()
	repo.On("SaveUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == "ana@buksu.edu.ph" && u.Role == domain.RoleFaculty && u.Version == 1
	})).Return(errStorage).Once()
	svc := services.NewUserService(repo)

	_, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{Email: "ana@buksu.edu.ph", Name: "Ana", Role: domain.RoleFaculty}, "cli")

	assert.ErrorIs(t, err, errStorage)
	repo.AssertExpectations(t)
}
