package dto

import (
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// CreateUserRequest defines the data needed to provision a user.
type CreateUserRequest struct {
	Email      string          `json:"email" binding:"required,email"`
	Name       string          `json:"name" binding:"required,max=120"`
	Role       domain.UserRole `json:"role" binding:"required,oneof=admin secretary faculty"`
	Department string          `json:"department" binding:"max=120"`

	// Password is optional: accounts without one can only sign in with Google.
	Password string `json:"password,omitempty" binding:"omitempty,min=8,max=72"`
}

// UpdateUserRequest defines the data allowed for updating a user.
// Using pointers to differentiate between omitted fields and zero-value fields.
type UpdateUserRequest struct {
	Name       *string          `json:"name" binding:"omitempty,max=120"`
	Role       *domain.UserRole `json:"role" binding:"omitempty,oneof=admin secretary faculty"`
	Department *string          `json:"department" binding:"omitempty,max=120"`
	IsActive   *bool            `json:"isActive"`
}

// ListUsersParams defines query parameters for listing users.
type ListUsersParams struct {
	Role       string `form:"role" binding:"omitempty,oneof=admin secretary faculty"`
	ActiveOnly bool   `form:"activeOnly"`
	Limit      int    `form:"limit,default=20" binding:"min=1,max=100"`
	Offset     int    `form:"offset,default=0" binding:"min=0"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	UserID       string              `json:"userID"`
	Email        string              `json:"email"`
	Name         string              `json:"name"`
	Role         domain.UserRole     `json:"role"`
	Department   string              `json:"department"`
	IsActive     bool                `json:"isActive"`
	AuthProvider domain.AuthProvider `json:"authProvider"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// ListUsersResponse wraps the list of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:       user.UserID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		Department:   user.Department,
		IsActive:     user.IsActive,
		AuthProvider: user.AuthProvider,
		CreatedAt:    user.CreatedAt,
	}
}

// ToListUserResponse converts a slice of domain.User to ListUsersResponse DTO
func ToListUserResponse(users []domain.User) ListUsersResponse {
	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = ToUserResponse(&users[i])
	}
	return ListUsersResponse{
		Users: userResponses,
	}
}

// SetPasswordRequest replaces a user's local password.
type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}
