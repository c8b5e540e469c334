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
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/utils"
)

var errInvalidCredentials = apperrors.NewUnauthorizedError("invalid email or password")

type userService struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
}

// NewUserService creates a new UserService.
func NewUserService(userRepo portsrepo.UserRepositoryFacade) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	role, err := domain.ParseUserRole(string(req.Role))
	if err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}
	email := normalizeEmail(req.Email)

	if _, err := s.userRepo.FindUserByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicateError("a user with this email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to check for existing user")
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Department:   strings.TrimSpace(req.Department),
		IsActive:     true,
		AuthProvider: domain.ProviderLocal,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
		Version: 1,
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			if errors.Is(err, utils.ErrWeakPassword) {
				return nil, apperrors.NewValidationFailedError(err.Error())
			}
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = &hash
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		s.LogError(ctx, err, "Failed to create user", slog.String("email", email))
		return nil, fmt.Errorf("failed to create user in service: %w", err)
	}
	s.LogInfo(ctx, "User created", slog.String("user_id", user.UserID), slog.String("role", string(role)))
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID in service: %w", err)
	}
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email in service: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, params dto.ListUsersParams) ([]domain.User, error) {
	filter := portsrepo.UserFilter{ActiveOnly: params.ActiveOnly}
	if params.Role != "" {
		role, err := domain.ParseUserRole(params.Role)
		if err != nil {
			return nil, apperrors.NewValidationFailedError(err.Error())
		}
		filter.Role = &role
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	users, err := s.userRepo.FindUsers(ctx, filter, limit, params.Offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list users")
		return nil, fmt.Errorf("failed to list users in service: %w", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for update: %w", err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
	}
	if req.Role != nil {
		role, err := domain.ParseUserRole(string(*req.Role))
		if err != nil {
			return nil, apperrors.NewValidationFailedError(err.Error())
		}
		if userID == requestingUserID && role != domain.RoleAdmin {
			return nil, apperrors.NewForbiddenError("admins cannot remove their own admin role")
		}
		user.Role = role
	}
	if req.IsActive != nil {
		if userID == requestingUserID && !*req.IsActive {
			return nil, apperrors.NewForbiddenError("admins cannot deactivate themselves")
		}
		user.IsActive = *req.IsActive
	}
	user.LastUpdatedAt = time.Now().UTC()
	user.LastUpdatedBy = requestingUserID

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		s.LogError(ctx, err, "Failed to update user", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to update user in service: %w", err)
	}
	return user, nil
}

func (s *userService) SetPassword(ctx context.Context, userID string, password string, requestingUserID string) error {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			return apperrors.NewValidationFailedError(err.Error())
		}
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &hash
	user.LastUpdatedAt = time.Now().UTC()
	user.LastUpdatedBy = requestingUserID
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, userID string, requestingUserID string) error {
	if userID == requestingUserID {
		return apperrors.NewForbiddenError("users cannot delete themselves")
	}
	if _, err := s.userRepo.FindUserByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to find user for deletion: %w", err)
	}
	if err := s.userRepo.MarkUserDeleted(ctx, userID, time.Now().UTC(), requestingUserID); err != nil {
		s.LogError(ctx, err, "Failed to delete user", slog.String("user_id", userID))
		return fmt.Errorf("failed to delete user in service: %w", err)
	}
	return nil
}

func (s *userService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.PasswordHash == nil || !utils.CheckPasswordHash(password, *user.PasswordHash) {
		s.LogWarn(ctx, "Failed login attempt", slog.String("user_id", user.UserID))
		return nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.NewForbiddenError("account is deactivated")
	}
	return user, nil
}

// SignInWithGoogle never provisions accounts: the e-mail must belong to a
// user an admin already created.
func (s *userService) SignInWithGoogle(ctx context.Context, email string, providerUserID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogWarn(ctx, "Google sign-in for unknown e-mail")
			return nil, apperrors.NewForbiddenError("no account is registered for this e-mail")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.NewForbiddenError("account is deactivated")
	}
	if user.ProviderUserID != nil {
		if *user.ProviderUserID != providerUserID {
			s.LogWarn(ctx, "Google subject does not match linked account", slog.String("user_id", user.UserID))
			return nil, apperrors.NewUnauthorizedError("google account does not match the linked account")
		}
		return user, nil
	}

	user.ProviderUserID = &providerUserID
	if user.PasswordHash == nil {
		user.AuthProvider = domain.ProviderGoogle
	}
	user.LastUpdatedAt = time.Now().UTC()
	user.LastUpdatedBy = user.UserID
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		s.LogError(ctx, err, "Failed to link google account", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("failed to link google account: %w", err)
	}
	s.LogInfo(ctx, "Google account linked", slog.String("user_id", user.UserID))
	return user, nil
}
