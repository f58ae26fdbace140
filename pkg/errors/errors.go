package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeSessionUnavailable means the current session could not be read.
	// Callers treat it as logged out.
	ErrorTypeSessionUnavailable ErrorType = "SESSION_UNAVAILABLE"

	// ErrorTypeDirectoryLoadFailed means the doctor list could not be fetched
	ErrorTypeDirectoryLoadFailed ErrorType = "DIRECTORY_LOAD_FAILED"

	// ErrorTypeBookingSubmissionFailed means the appointment request was rejected or never arrived
	ErrorTypeBookingSubmissionFailed ErrorType = "BOOKING_SUBMISSION_FAILED"

	// ErrorTypeForbidden is a role guard denial
	ErrorTypeForbidden ErrorType = "FORBIDDEN"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether err carries an AppError of the given type anywhere in its chain.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewSessionUnavailableError wraps a failed session read
func NewSessionUnavailableError(err error) *AppError {
	return &AppError{
		Type:    ErrorTypeSessionUnavailable,
		Message: "session unavailable",
		Err:     err,
	}
}

// NewDirectoryLoadFailedError wraps a failed doctor list fetch
func NewDirectoryLoadFailedError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDirectoryLoadFailed,
		Message: message,
		Err:     err,
	}
}

// NewBookingSubmissionFailedError wraps a rejected or failed appointment submission
func NewBookingSubmissionFailedError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeBookingSubmissionFailed,
		Message: message,
		Err:     err,
	}
}

// NewForbiddenError creates a role guard denial
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
	}
}
