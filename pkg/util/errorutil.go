package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

// NewDuplicateIdentity reports a username/email uniqueness violation.
func NewDuplicateIdentity(message string) error {
	return NewDomainError("DUPLICATE_IDENTITY", message, http.StatusConflict, nil)
}

// NewExpired reports a time-bound artifact past its window.
func NewExpired(message string) error {
	return NewDomainError("EXPIRED", message, http.StatusBadRequest, nil)
}

// NewInvalidCode reports an OTP mismatch. attemptsRemaining < 0 means the
// challenge variant does not track attempts.
func NewInvalidCode(attemptsRemaining int) error {
	var details map[string]any
	if attemptsRemaining >= 0 {
		details = map[string]any{"attempts_remaining": attemptsRemaining}
	}
	return NewDomainError("INVALID_CODE", "invalid verification code", http.StatusBadRequest, details)
}

// NewAttemptsExhausted reports a reset OTP over its retry budget.
func NewAttemptsExhausted() error {
	return NewDomainError("ATTEMPTS_EXHAUSTED", "too many incorrect attempts, request a new code", http.StatusBadRequest, nil)
}

// NewNotPending reports a loan that already has a terminal decision.
func NewNotPending() error {
	return NewDomainError("NOT_PENDING", "loan is not pending", http.StatusBadRequest, nil)
}

func NewInvalidReasonCode(message string) error {
	return NewDomainError("INVALID_REASON_CODE", message, http.StatusBadRequest, nil)
}

func NewInvalidAmount(message string) error {
	return NewDomainError("INVALID_AMOUNT", message, http.StatusBadRequest, nil)
}

func NewProfileIncomplete() error {
	return NewDomainError("PROFILE_INCOMPLETE", "please complete your profile first", http.StatusBadRequest, nil)
}

// NewInvalidOrExpiredToken reports an unknown, used, or expired reset token.
func NewInvalidOrExpiredToken() error {
	return NewDomainError("INVALID_OR_EXPIRED_TOKEN", "reset token is invalid or expired", http.StatusBadRequest, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
