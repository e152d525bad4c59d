// Package errors defines the application error taxonomy exposed to callers.
// CredentialAuthenticator and OAuthLinker never leak persistence detail past
// these types.
package errors

import (
	"net/http"

	"gatekeeper/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// ErrUnauthorized covers bad credentials, invalid or expired session
	// tokens and RBAC denials alike. The reason is never distinguishable to
	// the caller, by response shape or otherwise, to prevent user enumeration.
	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"Invalid credentials",
		"",
	)

	// ErrNotFound is returned for an unknown verification code or an unknown
	// identity looked up by id.
	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)

	// ErrTokenExpired is returned when a verification code is presented past
	// its validity window. Distinct from NotFound: the code existed and has
	// now been consumed.
	ErrTokenExpired = NewBaseError(
		http.StatusGone,
		"TOKEN_EXPIRED",
		"Verification code has expired",
		"",
	)

	// ErrValidationFailed is returned when input data fails validation.
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// ErrForbidden is returned when a principal's roles do not satisfy an
	// endpoint's requirement.
	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	// ErrInternal covers any unexpected persistence or dependency failure.
	ErrInternal = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// ConflictError is returned when a create or update violates a uniqueness
// constraint. It names the offending field rather than hiding it behind a
// generic error, since the caller needs to know which input to change.
type ConflictError struct {
	Field string
}

// NewConflictError creates a conflict error for the given field.
func NewConflictError(field string) *ConflictError {
	return &ConflictError{Field: field}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Field + " is already in use"
}

// HTTPCode returns the HTTP status code
func (e *ConflictError) HTTPCode() int {
	return http.StatusConflict
}

// ErrorCode returns the business error code
func (e *ConflictError) ErrorCode() string {
	return "CONFLICT"
}

// Message returns the user-friendly error message
func (e *ConflictError) Message() string {
	return e.Error()
}

// Details returns detailed error information
func (e *ConflictError) Details() string {
	return ""
}

// IsConflict reports whether err carries a ConflictError in its tree.
func IsConflict(err error) bool {
	var conflict *ConflictError

	return errors.As(err, &conflict)
}
