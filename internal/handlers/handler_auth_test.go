package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/handlers"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/middleware"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/platform/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	router     *gin.Engine
	mockUsers  *MockUserService
	mockTokens *MockTokenService
	admin      domain.User
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.mockUsers = new(MockUserService)
	suite.mockTokens = new(MockTokenService)
	suite.admin = domain.User{UserID: uuid.NewString(), Email: "admin@buksu.edu.ph", Name: "Admin", Role: domain.RoleAdmin, IsActive: true}

	services := &portssvc.ServiceContainer{User: suite.mockUsers, TokenService: suite.mockTokens}
	cfg := &config.Config{JWTSecret: testJWTSecret, FrontendBaseURL: "http://localhost:5173"}
	handlers.RegisterAuthRoutes(suite.router.Group("/api/v1"), cfg, services, nil)

	me := handlers.NewAuthHandler(suite.mockUsers, suite.mockTokens)
	suite.router.GET("/api/v1/auth/me", middleware.AuthMiddleware(testJWTSecret), middleware.LoadCurrentUser(suite.mockUsers), me.Me)
}

func (suite *AuthHandlerTestSuite) postJSON(url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	req, _ := http.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlerTestSuite) TestLogin_Success() {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	suite.mockUsers.On("AuthenticateUser", mock.Anything, "admin@buksu.edu.ph", "correct-horse").Return(&suite.admin, nil).Once()
	suite.mockTokens.On("GenerateAccessToken", mock.Anything, &suite.admin).Return("signed.jwt.token", expiresAt, nil).Once()

	w := suite.postJSON("/api/v1/auth/login", dto.LoginRequest{Email: "admin@buksu.edu.ph", Password: "correct-horse"})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.LoginResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("signed.jwt.token", resp.Token)
	suite.Equal(expiresAt.Unix(), resp.ExpiresAt)
	suite.Equal(suite.admin.UserID, resp.User.UserID)
	suite.mockUsers.AssertExpectations(suite.T())
	suite.mockTokens.AssertExpectations(suite.T())
}

func (suite *AuthHandlerTestSuite) TestLogin_InvalidCredentials() {
	suite.mockUsers.On("AuthenticateUser", mock.Anything, "admin@buksu.edu.ph", "wrong").
		Return(nil, apperrors.NewUnauthorizedError("invalid credentials")).Once()

	w := suite.postJSON("/api/v1/auth/login", dto.LoginRequest{Email: "admin@buksu.edu.ph", Password: "wrong"})

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockTokens.AssertNotCalled(suite.T(), "GenerateAccessToken")
}

func (suite *AuthHandlerTestSuite) TestLogin_MalformedEmail() {
	w := suite.postJSON("/api/v1/auth/login", map[string]string{"email": "not-an-email", "password": "x"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockUsers.AssertNotCalled(suite.T(), "AuthenticateUser")
}

func (suite *AuthHandlerTestSuite) TestMe_InactiveUser() {
	inactive := suite.admin
	inactive.IsActive = false
	suite.mockUsers.On("GetUserByID", mock.Anything, inactive.UserID).Return(&inactive, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	token, err := generateTestToken(inactive.UserID)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *AuthHandlerTestSuite) TestMe_ReturnsProfile() {
	suite.mockUsers.On("GetUserByID", mock.Anything, suite.admin.UserID).Return(&suite.admin, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	token, err := generateTestToken(suite.admin.UserID)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.UserResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.RoleAdmin, resp.Role)
}

func (suite *AuthHandlerTestSuite) TestGoogleCallback_StateMismatch() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=forged&code=abc", nil)
	req.AddCookie(&http.Cookie{Name: "memofy_oauth_state", Value: "expected"})
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestAuthHandler(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
