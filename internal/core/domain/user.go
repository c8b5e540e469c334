package domain

import (
	"fmt"
	"time"
)

// UserRole is the departmental role of a user.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleSecretary UserRole = "secretary"
	RoleFaculty   UserRole = "faculty"
)

// ParseUserRole validates a role coming from outside the process.
func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(s); r {
	case RoleAdmin, RoleSecretary, RoleFaculty:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// AuthProvider tells how a user signs in.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

// User represents a user of the application in the domain.
type User struct {
	UserID         string       `json:"userID" db:"user_id"`
	Email          string       `json:"email" db:"email"`
	Name           string       `json:"name" db:"name"`
	Role           UserRole     `json:"role" db:"role"`
	Department     string       `json:"department" db:"department"`
	IsActive       bool         `json:"isActive" db:"is_active"`
	PasswordHash   *string      `json:"-" db:"password_hash"`
	AuthProvider   AuthProvider `json:"authProvider" db:"auth_provider"`
	ProviderUserID *string      `json:"-" db:"provider_user_id"`
	AuditFields
	Version   int        `json:"version" db:"version"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"` // Used for soft delete
}

// Actor returns the identity recorded in memo history.
func (u User) Actor() Actor {
	return Actor{ID: u.UserID, Email: u.Email}
}

// HasRole reports whether the user holds one of roles.
func (u User) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
