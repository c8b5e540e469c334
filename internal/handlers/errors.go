package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/apperrors"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/middleware"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps a service error onto an HTTP status and a client-safe message.
// Messages of server errors are never exposed.
func statusFor(err error) (int, string) {
	status := http.StatusInternalServerError
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr) && appErr.Code != 0:
		status = appErr.Code
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrUpstream):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError || appErr == nil {
		return status, http.StatusText(status)
	}
	return status, appErr.Message
}

// respondError logs err at a level matching its status and writes the error body.
func respondError(c *gin.Context, err error, logMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(logMsg, slog.String("error", err.Error()))
	} else {
		logger.Warn(logMsg, slog.String("error", err.Error()), slog.Int("status", status))
	}
	c.JSON(status, ErrorResponse{Error: msg})
}

// currentUser returns the user loaded by LoadCurrentUser or aborts with 401.
func currentUser(c *gin.Context) (*domain.User, bool) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Current user not found in context")
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return nil, false
	}
	return user, true
}
