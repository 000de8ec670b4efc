package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the client core.
const (
	CodeValidation    = "VALIDATION_FAILED"
	CodePermission    = "PERMISSION_DENIED"
	CodeTerminalState = "TERMINAL_STATE"
	CodeNetwork       = "NETWORK_ERROR"
	CodeStaleResponse = "STALE_RESPONSE"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeInternal      = "INTERNAL_ERROR"
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
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewPermissionError(message string, details map[string]any) error {
	return NewDomainError(CodePermission, message, http.StatusForbidden, details)
}

// NewTerminalStateError flags a mutation attempted on a closed or voided ticket.
func NewTerminalStateError(status string) error {
	return NewDomainError(CodeTerminalState, "ticket is in a terminal state", http.StatusConflict, map[string]any{
		"status": status,
	})
}

func NewNetworkError(message string, err error) error {
	return &DomainError{
		Code:       CodeNetwork,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewStaleResponseError marks a poll result superseded by a later request.
// Callers discard it silently; it is never surfaced to the user.
func NewStaleResponseError(seq, applied uint64) error {
	return NewDomainError(CodeStaleResponse, "poll response superseded", http.StatusConflict, map[string]any{
		"seq":     seq,
		"applied": applied,
	})
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

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal error",
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
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

func IsValidation(err error) bool    { return HasCode(err, CodeValidation) }
func IsPermission(err error) bool    { return HasCode(err, CodePermission) }
func IsTerminalState(err error) bool { return HasCode(err, CodeTerminalState) }
func IsNetwork(err error) bool       { return HasCode(err, CodeNetwork) }
func IsStaleResponse(err error) bool { return HasCode(err, CodeStaleResponse) }
func IsNotFound(err error) bool      { return HasCode(err, CodeNotFound) }
