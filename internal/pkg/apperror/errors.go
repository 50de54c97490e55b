package apperror

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of failure the HTTP layer knows how to render.
type ErrorCode string

const (
	ErrValidation       ErrorCode = "VALIDATION_ERROR"  // 400
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"      // 401
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrRateLimited      ErrorCode = "RATE_LIMITED"      // 429
	ErrStorage          ErrorCode = "STORAGE_ERROR"     // 500
	ErrUpstreamDegraded ErrorCode = "UPSTREAM_DEGRADED" // never rendered, absorbed by the services
)

// AppError is a structured error carrying its HTTP status.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *AppError {
	return &AppError{Code: ErrValidation, Status: 400, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	if msg == "" {
		msg = "Invalid authentication credentials"
	}
	return &AppError{Code: ErrUnauthorized, Status: 401, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{Code: ErrNotFound, Status: 404, Message: msg}
}

func NewRateLimited() *AppError {
	return &AppError{Code: ErrRateLimited, Status: 429, Message: "Too many requests"}
}

// NewStorage wraps a task store failure. Message is safe to show to clients.
func NewStorage(msg string, err error) *AppError {
	return &AppError{Code: ErrStorage, Status: 500, Message: msg, Err: err}
}

// NewUpstreamDegraded marks a classifier or embedder failure.
func NewUpstreamDegraded(source string, err error) *AppError {
	return &AppError{Code: ErrUpstreamDegraded, Status: 200, Message: source + " unavailable", Err: err}
}

// As extracts an AppError from anywhere in the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}
