// Package errors defines the structured application error used across services and handlers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "not_found"
	ErrCodeConflict     ErrorCode = "conflict"
	ErrCodeValidation   ErrorCode = "validation"
	ErrCodeForeignKey   ErrorCode = "foreign_key"
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeForbidden    ErrorCode = "forbidden"
	// ErrCodeRateLimited marks a throttled attempt; it is an expected outcome, not a fault.
	ErrCodeRateLimited ErrorCode = "rate_limited"
	ErrCodeInternal    ErrorCode = "internal"
	ErrCodeTimeout     ErrorCode = "timeout"
	ErrCodeCanceled    ErrorCode = "canceled"
)

// MsgRateLimited is shown whenever a rate limit trips.
const MsgRateLimited = "Too many attempts. Please try again later."

// AppError carries a code, a user-facing message and an optional cause and field.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending input for validation and conflict errors.
	Field string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func newErr(code ErrorCode, msg string) *AppError { return &AppError{Code: code, Message: msg} }

func NotFound(message string) *AppError     { return newErr(ErrCodeNotFound, message) }
func Conflict(message string) *AppError     { return newErr(ErrCodeConflict, message) }
func Validation(message string) *AppError   { return newErr(ErrCodeValidation, message) }
func Unauthorized(message string) *AppError { return newErr(ErrCodeUnauthorized, message) }
func Forbidden(message string) *AppError    { return newErr(ErrCodeForbidden, message) }
func Internal(message string) *AppError     { return newErr(ErrCodeInternal, message) }

// NotFoundf creates a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newErr(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// ConflictField creates a Conflict error tied to an input field.
func ConflictField(field, message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message, Field: field}
}

// ValidationField creates a Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// RateLimited creates the error returned when a throttle trips.
func RateLimited() *AppError { return newErr(ErrCodeRateLimited, MsgRateLimited) }

// Wrap wraps err with an AppError, preserving the cause. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps err with an AppError and a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool     { return isCode(err, ErrCodeNotFound) }
func IsConflict(err error) bool     { return isCode(err, ErrCodeConflict) }
func IsValidation(err error) bool   { return isCode(err, ErrCodeValidation) }
func IsForeignKey(err error) bool   { return isCode(err, ErrCodeForeignKey) }
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }
func IsForbidden(err error) bool    { return isCode(err, ErrCodeForbidden) }
func IsRateLimited(err error) bool  { return isCode(err, ErrCodeRateLimited) }
func IsInternal(err error) bool     { return isCode(err, ErrCodeInternal) }
func IsTimeout(err error) bool      { return isCode(err, ErrCodeTimeout) }
func IsCanceled(err error) bool     { return isCode(err, ErrCodeCanceled) }

// IsAppError reports whether err is an AppError with the given code.
func IsAppError(err error, code ErrorCode) bool { return isCode(err, code) }

// GetCode returns the ErrorCode of err, or "" if err is not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field of err, or "" when unset.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// Message returns the user-facing message of an AppError, or fallback.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
