package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the resource changed state underneath the caller
// (stale version, or a transition that is no longer allowed).
var ErrConflict = errors.New("resource state conflict")

// ErrForbidden indicates the caller is authenticated but not allowed to act.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrBadRequest indicates a malformed request.
var ErrBadRequest = errors.New("bad request")

// ErrUpstream indicates a failure of an external collaborator (Google, SendGrid, Drive...).
var ErrUpstream = errors.New("upstream service failure")

// AppError carries an HTTP status code and a client-safe message. Err is the
// sentinel (or underlying error) it wraps, so errors.Is keeps working.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError with an arbitrary code.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func NewValidationFailedError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrBadRequest)
}

func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrConflict)
}

func NewDuplicateError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrDuplicate)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func NewGatewayTimeoutError(message string) *AppError {
	return NewAppError(http.StatusGatewayTimeout, message, ErrUpstream)
}

func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}
