// Package errors defines the domain error type shared by services and the
// HTTP layer. Services return *Error values; the response package maps the
// error's code onto an HTTP status and the stable "error" kind string that
// clients switch on.
//
//	if taken {
//	    return errors.AlreadyExists("email already in use")
//	}
//
//	if errors.Is(err, errors.ErrAlreadyExists) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export the standard helpers so callers need a single errors import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code classifies a domain error.
type Code string

const (
	CodeNotFound             Code = "NOT_FOUND"
	CodeAlreadyExists        Code = "ALREADY_EXISTS"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeValidation           Code = "VALIDATION"
	CodeConflict             Code = "CONFLICT"
	CodeInternal             Code = "INTERNAL"
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeVerificationExpired  Code = "VERIFICATION_EXPIRED"
	CodeVerificationRequired Code = "VERIFICATION_REQUIRED"
	CodeRateLimited          Code = "RATE_LIMITED"
)

// HTTPStatus maps the code onto a response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials, CodeVerificationExpired:
		return http.StatusUnauthorized
	case CodeForbidden, CodeVerificationRequired:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns the stable string clients receive in the response envelope's
// "error" field.
func (c Code) Kind() string {
	switch c {
	case CodeNotFound:
		return "not_found"
	case CodeAlreadyExists, CodeConflict:
		return "conflict"
	case CodeUnauthorized, CodeInvalidCredentials:
		return "authentication_required"
	case CodeVerificationExpired:
		return "verification_expired"
	case CodeVerificationRequired:
		return "verification_required"
	case CodeForbidden:
		return "permission_denied"
	case CodeValidation:
		return "validation_failed"
	case CodeRateLimited:
		return "rate_limited"
	default:
		return "service_error"
	}
}

// Error carries a code, a user-facing message, and optional structured
// details (field errors for validation failures).
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code, so
// errors.Is(err, ErrNotFound) works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && e.Code == t.Code
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithDetails returns a copy carrying the given details payload.
func (e *Error) WithDetails(details any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// WithCause returns a copy wrapping the underlying error. The cause shows up
// in logs and errors.Is chains but never in client responses.
func (e *Error) WithCause(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound             = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists        = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized         = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden            = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation           = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict             = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal             = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidCredentials   = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrVerificationExpired  = &Error{Code: CodeVerificationExpired, Message: "verification expired"}
	ErrVerificationRequired = &Error{Code: CodeVerificationRequired, Message: "verification required"}
	ErrRateLimited          = &Error{Code: CodeRateLimited, Message: "rate limited"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error { return &Error{Code: CodeNotFound, Message: msg} }

// AlreadyExists creates a uniqueness-conflict error.
func AlreadyExists(msg string) *Error { return &Error{Code: CodeAlreadyExists, Message: msg} }

// AlreadyExistsf is AlreadyExists with a formatted message.
func AlreadyExistsf(format string, args ...any) *Error {
	return AlreadyExists(fmt.Sprintf(format, args...))
}

// Unauthorized creates an authentication error.
func Unauthorized(msg string) *Error { return &Error{Code: CodeUnauthorized, Message: msg} }

// Forbidden creates a permission error.
func Forbidden(msg string) *Error { return &Error{Code: CodeForbidden, Message: msg} }

// Validation creates a validation error.
func Validation(msg string) *Error { return &Error{Code: CodeValidation, Message: msg} }

// Validationf is Validation with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// ValidationWithDetails creates a validation error carrying per-field
// messages for the response envelope.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a state-conflict error.
func Conflict(msg string) *Error { return &Error{Code: CodeConflict, Message: msg} }

// Internal creates an internal error.
func Internal(msg string) *Error { return &Error{Code: CodeInternal, Message: msg} }

// InvalidCredentials creates a login-failure error. It renders as the same
// kind as Unauthorized so responses don't reveal which part was wrong.
func InvalidCredentials(msg string) *Error {
	return &Error{Code: CodeInvalidCredentials, Message: msg}
}

// VerificationExpired creates an error for accounts whose activation window
// closed. Distinct from invalid credentials so clients can prompt
// re-registration.
func VerificationExpired(msg string) *Error {
	return &Error{Code: CodeVerificationExpired, Message: msg}
}

// VerificationRequired creates an error for unverified accounts trying to
// log in while their token is still live.
func VerificationRequired(msg string) *Error {
	return &Error{Code: CodeVerificationRequired, Message: msg}
}

// RateLimited creates a throttling error.
func RateLimited(msg string) *Error { return &Error{Code: CodeRateLimited, Message: msg} }
