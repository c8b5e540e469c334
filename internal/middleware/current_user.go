package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// UserLoader is the slice of the user service the middleware needs.
type UserLoader interface {
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// LoadCurrentUser resolves the token subject to an active user and stores it
// in the request context. It must run after AuthMiddleware. Roles are taken
// from storage so role changes apply without waiting for token expiry.
func LoadCurrentUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Warn("Token subject does not resolve to a user")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			logger.Error("Failed to load current user", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !user.IsActive {
			logger.Warn("Inactive user attempted access")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
			return
		}

		ctx := context.WithValue(c.Request.Context(), currentUserKey, user)
		ctx = WithLogger(ctx, logger.With(slog.String("role", string(user.Role))))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !user.HasRole(roles...) {
			GetLoggerFromCtx(c.Request.Context()).Warn("Role not allowed for route", slog.String("route", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}
