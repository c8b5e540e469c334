package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

type userRepository struct {
	store *Store
}

var _ portsrepo.UserRepositoryFacade = (*userRepository)(nil)

// emailTaken reports whether another live user already uses email. Callers hold the lock.
func (r *userRepository) emailTaken(email, exceptID string) bool {
	for _, u := range r.store.users {
		if u.DeletedAt == nil && u.UserID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepository) SaveUser(ctx context.Context, user domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.UserID]; ok {
		return apperrors.NewDuplicateError("user " + user.UserID + " already exists")
	}
	if r.emailTaken(user.Email, user.UserID) {
		return apperrors.NewDuplicateError("a user with this email already exists")
	}
	r.store.users[user.UserID] = user
	return nil
}

func (r *userRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[userID]
	if !ok || u.DeletedAt != nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	return &u, nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.DeletedAt == nil && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *userRepository) FindUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok && u.DeletedAt == nil && !slices.ContainsFunc(out, func(x domain.User) bool { return x.UserID == id }) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepository) FindUsers(ctx context.Context, filter portsrepo.UserFilter, limit int, offset int) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]domain.User, 0)
	for _, u := range r.store.users {
		if u.DeletedAt != nil || (filter.ActiveOnly && !u.IsActive) || (filter.Role != nil && u.Role != *filter.Role) {
			continue
		}
		matched = append(matched, u)
	}
	slices.SortFunc(matched, func(a, b domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.UserID, b.UserID)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.User{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.users[user.UserID]
	if !ok || stored.DeletedAt != nil {
		return fmt.Errorf("user not found or already deleted: %w", apperrors.ErrNotFound)
	}
	if stored.Version != user.Version {
		return apperrors.NewConflictError("optimistic locking failed: user " + user.UserID)
	}
	if r.emailTaken(user.Email, user.UserID) {
		return apperrors.NewDuplicateError("a user with this email already exists")
	}
	user.Version++
	r.store.users[user.UserID] = *user
	return nil
}

func (r *userRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[userID]
	if !ok || u.DeletedAt != nil {
		return fmt.Errorf("user not found or already deleted: %w", apperrors.ErrNotFound)
	}
	u.DeletedAt = &deletedAt
	u.IsActive = false
	u.LastUpdatedAt = deletedAt
	u.LastUpdatedBy = deletedBy
	u.Version++
	r.store.users[userID] = u
	return nil
}
