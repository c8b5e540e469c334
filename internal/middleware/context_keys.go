package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
)

// contextKey is the type of every key this package stores in a request context.
// Using a custom type prevents collisions.
type contextKey string

const (
	userIDKey      = contextKey("userID")
	loggerCtxKey   = contextKey("logger")
	currentUserKey = contextKey("currentUser")
)

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

// GetLoggerFromCtx returns the request-scoped logger, or slog.Default() when
// the context has none (background work, tests).
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// GetUserIDFromContext retrieves the authenticated user ID.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// GetCurrentUser returns the user loaded by LoadCurrentUser.
func GetCurrentUser(c *gin.Context) (*domain.User, bool) {
	user, ok := c.Request.Context().Value(currentUserKey).(*domain.User)
	return user, ok && user != nil
}
