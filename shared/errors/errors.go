package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a failure. Handlers map it to a status code, the core only picks it.
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindAuth         Kind = "AuthError"
	KindPermission   Kind = "PermissionError"
	KindNotFound     Kind = "NotFoundError"
	KindConflict     Kind = "ConflictError"
	KindBusinessRule Kind = "BusinessRuleError"
	KindRateLimit    Kind = "RateLimitError"
	KindInternal     Kind = "InternalError"
)

// Error is the only error type that crosses the service boundary.
// Anything else is treated as KindInternal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status for the error kind.
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBusinessRule:
		return http.StatusUnprocessableEntity
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error   { return New(KindValidation, message) }
func Auth(message string) *Error         { return New(KindAuth, message) }
func Permission(message string) *Error   { return New(KindPermission, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func BusinessRule(message string) *Error { return New(KindBusinessRule, message) }
func RateLimit(message string) *Error    { return New(KindRateLimit, message) }

// KindOf extracts the kind from err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsNotFound(err error) bool {
	return Is(err, KindNotFound)
}
