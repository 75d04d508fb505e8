package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeConfiguration   ErrorType = "configuration"
	ErrorTypePermission      ErrorType = "permission"
	ErrorTypeCapture         ErrorType = "capture"
	ErrorTypeNoPhoto         ErrorType = "no_photo"
	ErrorTypeAlreadyInFlight ErrorType = "already_in_flight"
	ErrorTypeFileReadFailed  ErrorType = "file_read_failed"
	ErrorTypeRequestFailed   ErrorType = "request_failed"
	ErrorTypeInvalidState    ErrorType = "invalid_state"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeInternal        ErrorType = "internal"
)

// ReasonTimeout is the RequestFailed reason used when the label request deadline expires.
const ReasonTimeout = "timeout"

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Reason     string    `json:"reason,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Reason != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewConfigError reports a missing or invalid setting detected at startup.
func NewConfigError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewPermissionError is returned for every interactive operation once camera
// permission has been denied.
func NewPermissionError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePermission,
		Message:    message,
		StatusCode: http.StatusForbidden,
		Cause:      cause,
	}
}

func NewCaptureError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCapture,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

func NewNoPhotoError() *AppError {
	return &AppError{
		Type:       ErrorTypeNoPhoto,
		Message:    "no photo has been captured",
		StatusCode: http.StatusConflict,
	}
}

func NewAlreadyInFlightError() *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyInFlight,
		Message:    "an analysis request is already in flight",
		StatusCode: http.StatusConflict,
	}
}

func NewFileReadError(ref string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeFileReadFailed,
		Message:    fmt.Sprintf("failed to read photo %q", ref),
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewRequestFailedError wraps any failure of the label request. A timeout
// reason maps to 504, everything else to 502.
func NewRequestFailedError(reason string, cause error) *AppError {
	status := http.StatusBadGateway
	if reason == ReasonTimeout {
		status = http.StatusGatewayTimeout
	}
	return &AppError{
		Type:       ErrorTypeRequestFailed,
		Message:    "label request failed",
		Reason:     reason,
		StatusCode: status,
		Cause:      cause,
	}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidState,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewForbiddenError rejects an action the configured screen does not offer.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error chain contains an AppError of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ReasonOf returns the RequestFailed reason carried by err, if any.
func ReasonOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return ""
}
