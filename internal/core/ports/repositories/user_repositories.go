package repositories

import (
	"context"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// UserFilter narrows FindUsers.
type UserFilter struct {
	Role       *domain.UserRole
	ActiveOnly bool
}

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByEmail retrieves a user by e-mail, case-insensitively.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindUsersByIDs returns the users that exist among ids, in no particular order.
	FindUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error)

	// FindUsers retrieves a paginated list of users.
	FindUsers(ctx context.Context, filter UserFilter, limit int, offset int) ([]domain.User, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	// SaveUser persists a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// UpdateUser updates an existing user, checking user.Version. On success
	// user.Version is advanced.
	UpdateUser(ctx context.Context, user *domain.User) error
}

// UserLifecycleManager defines operations for managing user lifecycle
type UserLifecycleManager interface {
	// MarkUserDeleted marks a user as deleted (soft delete).
	MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error
}

// UserRepositoryFacade combines all user-related repository interfaces
type UserRepositoryFacade interface {
	UserReader
	UserWriter
	UserLifecycleManager
}
