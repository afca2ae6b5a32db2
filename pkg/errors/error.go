// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, configuration and provider selection
//   - Fetch errors (700-799): Classified provider responses and transport failures
//   - Parse errors (800-899): Per-record conversion failures during normalization
//   - Persistence errors (900-999): Output file writing failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeRateLimited, "standard API call frequency is 5 calls per minute")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeFetchFailed, "request failed", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeRateLimited) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error or *RecordError.
// Returns ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var re *RecordError
	if errors.As(err, &re) {
		return re.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsFetchError reports whether err carries one of the fetch error codes.
func IsFetchError(err error) bool {
	code := GetCode(err)

	return code >= ErrCodeHTTPStatus && code < ErrCodeBadTimestamp
}

// HTTPStatusError describes a non-200 provider response.
type HTTPStatusError struct {
	StatusCode  int
	BodySnippet string
}

// NewHTTPStatusError creates a new HTTPStatusError.
func NewHTTPStatusError(statusCode int, bodySnippet string) *HTTPStatusError {
	return &HTTPStatusError{
		StatusCode:  statusCode,
		BodySnippet: bodySnippet,
	}
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.BodySnippet)
}

// RecordError describes a single raw record that could not be converted into a candle.
// The record is dropped; the rest of the series is unaffected.
type RecordError struct {
	Code  ErrorCode // ErrCodeBadTimestamp or ErrCodeBadField
	Date  string    // Raw date key of the record
	Field string    // Field name, empty for timestamp errors
	Value string    // Offending raw value
}

// NewBadTimestampError creates a RecordError for a date key that is not YYYY-MM-DD.
func NewBadTimestampError(date string) *RecordError {
	return &RecordError{
		Code:  ErrCodeBadTimestamp,
		Date:  date,
		Field: "",
		Value: date,
	}
}

// NewBadFieldError creates a RecordError for a missing or unparsable numeric field.
func NewBadFieldError(date, field, value string) *RecordError {
	return &RecordError{
		Code:  ErrCodeBadField,
		Date:  date,
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.Code == ErrCodeBadTimestamp {
		return fmt.Sprintf("[%d] bad timestamp %q", e.Code, e.Date)
	}

	return fmt.Sprintf("[%d] bad field %q in record %s: %q", e.Code, e.Field, e.Date, e.Value)
}

// IsRecordError checks if an error is a RecordError.
// It uses errors.As to check the error chain.
func IsRecordError(err error) bool {
	var recordErr *RecordError

	return errors.As(err, &recordErr)
}
