package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portsrepo "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/repositories"
)

type PgxUserRepository struct {
	db querier
}

func newPgxUserRepository(db querier) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{db: db}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const selectUserQuery = `
SELECT
	user_id, email, name, role, department, is_active, password_hash, auth_provider, provider_user_id,
	created_at, created_by, last_updated_at, last_updated_by, version, deleted_at
FROM users
`

func (r *PgxUserRepository) getUsers(ctx context.Context, filterQuery string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, selectUserQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query users", err)
	}
	defer rows.Close()
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.User])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect user rows", err)
	}
	return users, nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (
			user_id, email, name, role, department, is_active, password_hash, auth_provider, provider_user_id,
			created_at, created_by, last_updated_at, last_updated_by, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.db.Exec(ctx, query,
		user.UserID,
		user.Email,
		user.Name,
		user.Role,
		user.Department,
		user.IsActive,
		user.PasswordHash,
		user.AuthProvider,
		user.ProviderUserID,
		user.CreatedAt,
		user.CreatedBy,
		user.LastUpdatedAt,
		user.LastUpdatedBy,
		1,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return apperrors.NewDuplicateError("a user with this email already exists")
		}
		return apperrors.NewAppError(500, "failed to save user "+user.UserID, err)
	}
	return nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	users, err := r.getUsers(ctx, `WHERE user_id = $1 AND deleted_at IS NULL`, userID)
	if err != nil {
		if pgErrorCode(err) == pgInvalidText {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &users[0], nil
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := r.getUsers(ctx, `WHERE lower(email) = lower($1) AND deleted_at IS NULL`, email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &users[0], nil
}

func (r *PgxUserRepository) FindUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return r.getUsers(ctx, `WHERE user_id = ANY($1::uuid[]) AND deleted_at IS NULL`, ids)
}

func (r *PgxUserRepository) FindUsers(ctx context.Context, filter portsrepo.UserFilter, limit int, offset int) ([]domain.User, error) {
	// Default limit if not specified or invalid
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var role *string
	if filter.Role != nil {
		r := string(*filter.Role)
		role = &r
	}
	query := `
		WHERE deleted_at IS NULL
		  AND ($1::text IS NULL OR role = $1)
		  AND (NOT $2 OR is_active)
		ORDER BY created_at, user_id
		LIMIT $3 OFFSET $4;
	`
	return r.getUsers(ctx, query, role, filter.ActiveOnly, limit, offset)
}

func (r *PgxUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $1, name = $2, role = $3, department = $4, is_active = $5, password_hash = $6,
			auth_provider = $7, provider_user_id = $8, last_updated_at = $9, last_updated_by = $10,
			version = version + 1
		WHERE user_id = $11 AND version = $12 AND deleted_at IS NULL;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		user.Email,
		user.Name,
		user.Role,
		user.Department,
		user.IsActive,
		user.PasswordHash,
		user.AuthProvider,
		user.ProviderUserID,
		user.LastUpdatedAt,
		user.LastUpdatedBy,
		user.UserID,
		user.Version,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return apperrors.NewDuplicateError("a user with this email already exists")
		}
		return apperrors.NewAppError(500, "failed to update user "+user.UserID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("optimistic locking failed: user " + user.UserID)
	}
	user.Version++
	return nil
}

func (r *PgxUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	query := `
		UPDATE users
		SET deleted_at = $1, is_active = FALSE, last_updated_at = $1, last_updated_by = $2, version = version + 1
		WHERE user_id = $3 AND deleted_at IS NULL;
	`
	cmdTag, err := r.db.Exec(ctx, query, deletedAt, deletedBy, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark user as deleted", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("user not found or already deleted: " + userID)
	}
	return nil
}
