package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a mailbox or user was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a mailbox with the same path exists
	ErrAlreadyExists = errors.New("mailbox already exists")

	// ErrDisallowed indicates a policy violation, e.g. touching INBOX
	ErrDisallowed = errors.New("operation not allowed")

	// ErrLimitExceeded indicates the per-user mailbox cap was reached
	ErrLimitExceeded = errors.New("mailbox limit exceeded")

	// ErrPathTooDeep indicates the mailbox path has too many segments
	ErrPathTooDeep = errors.New("mailbox path too deep")

	// ErrPathSegmentTooLong indicates a path segment exceeds the limit
	ErrPathSegmentTooLong = errors.New("mailbox path segment too long")

	// ErrInvalidPath indicates a malformed mailbox path
	ErrInvalidPath = errors.New("invalid mailbox path")

	// ErrInternalStore indicates an infrastructure failure; never
	// retried here, retry policy belongs to the caller
	ErrInternalStore = errors.New("internal store error")
)

// Error codes for API responses
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeDisallowed    = "DISALLOWED"
	CodeLimitExceeded = "LIMIT_EXCEEDED"
	CodeInvalidPath   = "INVALID_PATH"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeInternalError = "INTERNAL_ERROR"
)

// AppError carries a stable code alongside the underlying error
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a path validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrPathTooDeep) ||
		errors.Is(err, ErrPathSegmentTooLong) ||
		errors.Is(err, ErrInvalidPath)
}

// GetErrorCode returns the stable code for an error
func GetErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrDisallowed):
		return CodeDisallowed
	case errors.Is(err, ErrLimitExceeded):
		return CodeLimitExceeded
	case IsValidation(err):
		return CodeInvalidPath
	default:
		return CodeInternalError
	}
}
