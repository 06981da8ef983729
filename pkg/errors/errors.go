package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotOwner          = "NOT_OWNER"
	CodeRoleNotHeld       = "ROLE_NOT_HELD"
	CodeRoleNotActive     = "ROLE_NOT_ACTIVE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDuplicateRequest  = "DUPLICATE_REQUEST"
	CodeRideNotOpen       = "RIDE_NOT_OPEN"
	CodeRideFull          = "RIDE_FULL"
	CodeReviewNotAllowed  = "REVIEW_NOT_ALLOWED"
	CodeAlreadyReviewed   = "ALREADY_REVIEWED"
	CodeEmailNotVerified  = "EMAIL_NOT_VERIFIED"
	CodeNotFound          = "NOT_FOUND"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeTransport         = "TRANSPORT_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError is the error kind surfaced to API clients. Details carries per-field
// messages for validation failures.
type AppError struct {
	Code    string
	Message string
	Status  int
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation reports every failing field at once.
func Validation(details map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "validation failed",
		Status:  http.StatusBadRequest,
		Details: details,
	}
}

// ValidationField is a shorthand for a single failing field.
func ValidationField(field, message string) *AppError {
	return Validation(map[string]string{field: message})
}

func NotOwner(resource string) *AppError {
	return &AppError{
		Code:    CodeNotOwner,
		Message: fmt.Sprintf("you are not allowed to modify this %s", resource),
		Status:  http.StatusForbidden,
	}
}

func RoleNotHeld(role string) *AppError {
	return &AppError{
		Code:    CodeRoleNotHeld,
		Message: fmt.Sprintf("role %s is not held by this user", role),
		Status:  http.StatusForbidden,
	}
}

func RoleNotActive(role string) *AppError {
	return &AppError{
		Code:    CodeRoleNotActive,
		Message: fmt.Sprintf("switch to the %s role to use this feature", role),
		Status:  http.StatusForbidden,
	}
}

// InvalidTransition means the record moved on since the caller last read it.
func InvalidTransition(resource, from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("%s cannot move from %s to %s; state changed elsewhere, refreshing", resource, from, to),
		Status:  http.StatusConflict,
	}
}

func DuplicateRequest() *AppError {
	return &AppError{
		Code:    CodeDuplicateRequest,
		Message: "you already have a request for this ride",
		Status:  http.StatusConflict,
	}
}

func RideNotOpen(status string) *AppError {
	return &AppError{
		Code:    CodeRideNotOpen,
		Message: fmt.Sprintf("ride is %s and no longer takes requests", status),
		Status:  http.StatusConflict,
	}
}

func RideFull() *AppError {
	return &AppError{
		Code:    CodeRideFull,
		Message: "no seats left on this ride",
		Status:  http.StatusConflict,
	}
}

func ReviewNotAllowed(message string) *AppError {
	return &AppError{
		Code:    CodeReviewNotAllowed,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

func AlreadyReviewed() *AppError {
	return &AppError{
		Code:    CodeAlreadyReviewed,
		Message: "you already reviewed this ride",
		Status:  http.StatusConflict,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func EmailNotVerified() *AppError {
	return &AppError{
		Code:    CodeEmailNotVerified,
		Message: "verify your school email before signing in",
		Status:  http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// Transport wraps store, cache and broker failures. Clients may retry manually.
func Transport(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeTransport,
		Message: fmt.Sprintf("%s is temporarily unavailable, please retry", operation),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// From returns the AppError in err's chain, or an internal error wrapping err.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}
