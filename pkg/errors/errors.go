package errors

import (
	"fmt"
)

// ErrorCode classifies an operation outcome for reply selection and logging.
type ErrorCode string

const (
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeNotOwner        ErrorCode = "NOT_OWNER"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeRateLimit       ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidTransfer ErrorCode = "INVALID_TRANSFER"
	ErrCodePlatform        ErrorCode = "PLATFORM_FAILURE"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// AppError carries a code and context through the operation call chain so the
// interaction layer can pick a user-visible reply without string matching.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for logging.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates an AppError with the given code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Context: make(map[string]interface{})}
}

// Wrap attaches a code to an existing error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err, Context: make(map[string]interface{})}
}

func NewInvalidInput(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

func NewNotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewNotOwner() *AppError {
	return New(ErrCodeNotOwner, "you do not own this channel")
}

func NewConflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// NewRateLimit reports a rejected call with a wait hint in seconds.
func NewRateLimit(retryAfterSeconds int) *AppError {
	e := New(ErrCodeRateLimit, "rate limit exceeded")
	return e.WithContext("retry_after_seconds", retryAfterSeconds)
}

func NewInvalidTransfer(message string) *AppError {
	return New(ErrCodeInvalidTransfer, message)
}

// NewPlatform wraps a capability-surface failure. These never corrupt the
// ownership store; they surface to the user as a distinct failure.
func NewPlatform(err error, message string) *AppError {
	return Wrap(err, ErrCodePlatform, message)
}

func NewInternal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// IsAppError checks if error is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts an AppError from the error chain.
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	type unwrapper interface {
		Unwrap() error
	}

	if u, ok := err.(unwrapper); ok {
		return GetAppError(u.Unwrap())
	}

	return nil
}

// HTTPStatus maps the code to the response status the dashboard emits.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeInvalidTransfer:
		return 400
	case ErrCodeUnauthorized:
		return 401
	case ErrCodeNotOwner:
		return 403
	case ErrCodeNotFound:
		return 404
	case ErrCodeConflict:
		return 409
	case ErrCodeRateLimit:
		return 429
	case ErrCodePlatform:
		return 502
	default:
		return 500
	}
}

// CodeOf returns the code of err, or ErrCodeInternal for uncoded errors.
func CodeOf(err error) ErrorCode {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return ErrCodeInternal
}
