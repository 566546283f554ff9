// Package apperr provides typed domain errors for the practice-management
// core. Domain services return these errors and the HTTP layer maps them to
// status codes, so the coverage/claims engine never imports net/http.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a record was not found.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConfiguration indicates missing prerequisite setup (no service
	// unit, no coverage plan, no stock location). Not retryable.
	KindConfiguration
	// KindCoverageViolation indicates a prescribed service is not covered by
	// the active plan or its annual claim cap is exhausted.
	KindCoverageViolation
	// KindInsufficientStock indicates a requested quantity exceeds the stock
	// available at the resolved location.
	KindInsufficientStock
	// KindConflict indicates a conflict with existing state.
	KindConflict
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindConfiguration:
		return http.StatusBadRequest
	case KindCoverageViolation, KindInsufficientStock, KindConflict:
		return http.StatusConflict
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new domain error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is (or wraps) a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Convenience constructors for the domain taxonomy.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Configuration creates a missing-setup error.
func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// Configurationf creates a missing-setup error with a formatted message.
func Configurationf(format string, args ...interface{}) *Error {
	return Newf(KindConfiguration, format, args...)
}

// CoverageViolation creates a coverage/cap violation error.
func CoverageViolation(message string) *Error {
	return New(KindCoverageViolation, message)
}

// CoverageViolationf creates a coverage/cap violation error with a formatted
// message.
func CoverageViolationf(format string, args ...interface{}) *Error {
	return Newf(KindCoverageViolation, format, args...)
}

// InsufficientStock creates an insufficient-stock error.
func InsufficientStock(message string) *Error {
	return New(KindInsufficientStock, message)
}

// InsufficientStockf creates an insufficient-stock error with a formatted
// message.
func InsufficientStockf(format string, args ...interface{}) *Error {
	return Newf(KindInsufficientStock, format, args...)
}

// Internal creates an internal error wrapping err.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}
