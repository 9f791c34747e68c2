package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Error codes carried over HTTP. Store and remote-service failures have no
// code here: they are absorbed inside the chat handlers and never surface as
// HTTP responses.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeConflict    = "CONFLICT_ERROR"
	CodeAuth        = "AUTH_ERROR"
	CodeUnexpected  = "UNEXPECTED_ERROR"
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
)

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewValidationError creates a 400 error for malformed or missing input
func NewValidationError(message string) *AppError {
	return NewError(http.StatusBadRequest, CodeValidation, message)
}

// NewConflictError creates a 400 error for duplicate registration.
// The client contract uses 400 rather than 409 for conflicts.
func NewConflictError(message string) *AppError {
	return NewError(http.StatusBadRequest, CodeConflict, message)
}

// NewAuthError creates a 400 error for bad credentials. The message is
// uniform so unknown users and wrong passwords are indistinguishable.
func NewAuthError(message string) *AppError {
	return NewError(http.StatusBadRequest, CodeAuth, message)
}

// NewUnexpectedError creates a 500 error with a generic message
func NewUnexpectedError(message string) *AppError {
	return NewError(http.StatusInternalServerError, CodeUnexpected, message)
}

// FromError converts a standard error to an AppError.
// If the error is already an AppError, it is returned as-is.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewUnexpectedError("An unexpected error occurred")
}
