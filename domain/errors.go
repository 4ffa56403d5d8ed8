package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeInvalid             ErrorCode = "INVALID"
	ErrCodeConflict            ErrorCode = "CONFLICT"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeAlreadyCompleted    ErrorCode = "ALREADY_COMPLETED"
	ErrCodeDeadlineLocked      ErrorCode = "DEADLINE_LOCKED"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeAlreadyPurchased    ErrorCode = "ALREADY_PURCHASED"
	ErrCodeInternal            ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid is shorthand for a validation failure with a formatted message.
func Invalid(format string, args ...interface{}) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrTaskNotFound        = NewError(ErrCodeNotFound, "task not found")
	ErrSubtaskNotFound     = NewError(ErrCodeNotFound, "subtask not found")
	ErrProfileNotFound     = NewError(ErrCodeNotFound, "profile not found")
	ErrProfileExists       = NewError(ErrCodeConflict, "profile already exists")
	ErrRewardNotFound      = NewError(ErrCodeNotFound, "reward not found")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrNotOwner            = NewError(ErrCodeForbidden, "resource belongs to another user")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
	ErrAlreadyCompleted    = NewError(ErrCodeAlreadyCompleted, "task already completed")
	ErrDeadlineLocked      = NewError(ErrCodeDeadlineLocked, "deadline cannot be changed once set")
	ErrInsufficientBalance = NewError(ErrCodeInsufficientBalance, "not enough points")
	ErrAlreadyPurchased    = NewError(ErrCodeAlreadyPurchased, "reward already purchased")
	ErrAlreadyFriends      = NewError(ErrCodeConflict, "already following this user")
	ErrEmailTaken          = NewError(ErrCodeConflict, "email already in use")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
