package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("resource already exists")
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("forbidden")
	ErrCSRF           = errors.New("csrf validation failed")
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidState   = errors.New("invalid state transition")
	ErrRateLimited    = errors.New("rate limited")
	ErrPersistence    = errors.New("persistence failure")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrBadRequest     = errors.New("bad request")
)

// Error codes returned to clients
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeConflict       = "CONFLICT"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeForbidden      = "FORBIDDEN"
	CodeCSRF           = "CSRF_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidState   = "INVALID_STATE"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
	CodeBadRequest     = "BAD_REQUEST"
)

// CSRF rejection reasons
const (
	CSRFMissingCookie     = "missing-cookie"
	CSRFMissingSubmission = "missing-submission"
	CSRFMismatch          = "mismatch"
)

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents application error with HTTP status
type AppError struct {
	Status  int          `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	Err     error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation aggregates every offending field into one error.
func Validation(fields []FieldError) *AppError {
	e := NewAppError(http.StatusBadRequest, CodeValidation, "Validation failed", ErrValidation)
	e.Fields = fields
	return e
}

// ValidationMessage is a single-message validation error.
func ValidationMessage(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, message, ErrValidation)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrBadRequest)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeConflict, message, ErrConflict)
}

// Authentication is the single generic credential failure.
func Authentication(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeAuthentication, message, ErrAuthentication)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func CSRF(reason string) *AppError {
	e := NewAppError(http.StatusForbidden, CodeCSRF, "Invalid CSRF token", ErrCSRF)
	e.Reason = reason
	return e
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func InvalidState(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidState, message, ErrInvalidState)
}

func RateLimited(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message, ErrRateLimited)
}

// Persistence hides the storage failure behind a generic message.
func Persistence(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", errors.Join(ErrPersistence, err))
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

// As extracts an *AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// TokenInvalid is a 401 for a session token that failed verification.
func TokenInvalid(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeAuthentication, message, ErrTokenInvalid)
}

func TokenExpired() *AppError {
	return NewAppError(http.StatusUnauthorized, CodeAuthentication, "Session has expired", ErrTokenExpired)
}
