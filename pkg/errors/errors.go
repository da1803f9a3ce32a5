package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
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

// StatusCode maps the error code to an HTTP status, used by the error middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound, ErrEmptyQueue:
		return http.StatusNotFound
	case ErrConflict, ErrCapacityExceeded, ErrInvalidState:
		return http.StatusConflict
	case ErrInvalidWindow, ErrPastDate, ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrPermission:
		return http.StatusForbidden
	case ErrTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrPermission
	ErrConflict
	ErrCapacityExceeded
	ErrInvalidWindow
	ErrPastDate
	ErrInvalidState
	ErrEmptyQueue
	ErrTransient
	ErrInternal
)

// Error constructors

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func CapacityExceeded(message string) *AppError {
	return &AppError{
		Code:    ErrCapacityExceeded,
		Message: message,
	}
}

func InvalidWindow(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidWindow,
		Message: message,
	}
}

func PastDate(message string) *AppError {
	return &AppError{
		Code:    ErrPastDate,
		Message: message,
	}
}

func InvalidState(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidState,
		Message: message,
	}
}

func EmptyQueue(message string) *AppError {
	return &AppError{
		Code:    ErrEmptyQueue,
		Message: message,
	}
}

func Permission(message string) *AppError {
	return &AppError{
		Code:    ErrPermission,
		Message: message,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Transient(err error) *AppError {
	return &AppError{
		Code:    ErrTransient,
		Message: "temporary failure, please retry",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// CodeOf returns the error code of err, or ErrInternal for unclassified errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
