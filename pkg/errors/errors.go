package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrValidationRejected
	ErrEmptyQueue
	ErrConflict
	ErrPersistenceUnavailable
	ErrMalformedRecord
	ErrInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrBadRequest:
		return "bad_request"
	case ErrValidationRejected:
		return "validation_rejected"
	case ErrEmptyQueue:
		return "empty_queue"
	case ErrConflict:
		return "conflict"
	case ErrPersistenceUnavailable:
		return "persistence_unavailable"
	case ErrMalformedRecord:
		return "malformed_record"
	default:
		return "internal"
	}
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

// NewValidationRejected reports a request refused by a business rule. The
// message is what callers show; err carries the specific cause for logs.
func NewValidationRejected(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidationRejected,
		Message: message,
		Err:     err,
	}
}

func NewEmptyQueue(resource string) *AppError {
	return &AppError{
		Code:    ErrEmptyQueue,
		Message: fmt.Sprintf("no pending %s", resource),
	}
}

func NewConflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func NewPersistenceUnavailable(collection string, err error) *AppError {
	return &AppError{
		Code:    ErrPersistenceUnavailable,
		Message: fmt.Sprintf("%s store unavailable", collection),
		Err:     err,
	}
}

func NewMalformedRecord(collection string, line int, err error) *AppError {
	return &AppError{
		Code:    ErrMalformedRecord,
		Message: fmt.Sprintf("malformed %s record at line %d", collection, line),
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	for err != nil {
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// CodeOf returns the code of the outermost AppError in err's chain, or
// ErrInternal when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Causes lists the individual errors carried by the outermost AppError in
// err's chain. Joined errors are expanded; nil means there is no cause.
func Causes(err error) []error {
	var appErr *AppError
	if !stderrors.As(err, &appErr) || appErr.Err == nil {
		return nil
	}
	if joined, ok := appErr.Err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{appErr.Err}
}

// As is errors.As, re-exported so callers need a single errors import.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
