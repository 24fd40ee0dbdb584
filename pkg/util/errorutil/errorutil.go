package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes shared by every layer.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrRecordNotFound is returned by storage implementations when no record matches.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateKey is returned by storage implementations when a unique constraint rejects a write.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrStaleState is returned when a conditional write finds the record in an unexpected state.
var ErrStaleState = errors.New("record state changed")

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
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewValidationErrors joins every failed rule into one descriptive message.
func NewValidationErrors(errs []string) error {
	return NewDomainError(CodeValidation,
		"Validation failed: "+strings.Join(errs, ", "),
		http.StatusBadRequest,
		map[string]any{"errors": errs},
	)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewRateLimited() error {
	return NewDomainError(CodeRateLimited, "too many requests", http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
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
	if errors.Is(err, ErrRecordNotFound) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	if errors.Is(err, ErrDuplicateKey) {
		return NewConflict("resource already exists", nil).(*DomainError)
	}
	if errors.Is(err, ErrStaleState) {
		return NewConflict("resource was modified concurrently", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func hasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsConflict reports whether err is a uniqueness or dependency conflict.
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }

// IsNotFound reports whether err targets a missing record.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound) || errors.Is(err, ErrRecordNotFound)
}
