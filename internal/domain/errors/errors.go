package errors

import (
	"errors"
	"fmt"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeBusiness     ErrorType = "business"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeRisk         ErrorType = "risk"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

func NewBusinessError(code, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusiness,
		Code:       code,
		Message:    message,
		Retryable:  false,
		StatusCode: 422,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "RESOURCE_NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Retryable:  false,
		StatusCode: 404,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		Retryable:  false,
		StatusCode: 403,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       "CONFLICT",
		Message:    message,
		Retryable:  false,
		StatusCode: 409,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

func NewExternalError(service, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       "EXTERNAL_SERVICE_ERROR",
		Message:    fmt.Sprintf("%s service error: %s", service, message),
		Retryable:  true,
		StatusCode: 502,
		Details:    map[string]interface{}{"service": service},
	}
}

// Escrow and risk error codes
const (
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeNotPending         = "NOT_PENDING"
	CodeNotYetUnlocked     = "NOT_YET_UNLOCKED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeProfileUnavailable = "PROFILE_UNAVAILABLE"
	CodeStorageFailure     = "STORAGE_FAILURE"
)

// NewInvalidAmountError signals a non-positive amount rejected before any
// state mutation.
func NewInvalidAmountError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       CodeInvalidAmount,
		Message:    message,
		Retryable:  false,
		StatusCode: 400,
	}
}

// NewNotPendingError signals an escrow operation on a transaction that has
// already reached a terminal status.
func NewNotPendingError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusiness,
		Code:       CodeNotPending,
		Message:    message,
		Retryable:  false,
		StatusCode: 409,
	}
}

// NewNotYetUnlockedError signals a release attempted before the unlock time.
func NewNotYetUnlockedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeBusiness,
		Code:       CodeNotYetUnlocked,
		Message:    message,
		Retryable:  false,
		StatusCode: 422,
	}
}

// NewProfileUnavailableError signals that the wallet data source failed or
// timed out. Retryable; callers must not fall back to a low risk verdict.
func NewProfileUnavailableError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       CodeProfileUnavailable,
		Message:    message,
		Retryable:  true,
		StatusCode: 503,
	}
}

// NewStorageFailureError signals that durable persistence of a transition
// did not complete. The operation must be retried by the caller.
func NewStorageFailureError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       CodeStorageFailure,
		Message:    message,
		Retryable:  true,
		StatusCode: 500,
	}
}

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsCode checks if an error carries a specific application error code
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetStatusCode extracts HTTP status code from error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 500
}
