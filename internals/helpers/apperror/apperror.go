// Package apperror holds the typed errors raised by the donation workflow.
//
// Every error carries a Kind. The HTTP layer maps kinds to status codes:
//
//	NotFound        → 404
//	Conflict        → 409
//	BadRequest      → 400
//	DomainInvariant → 422
//	Forbidden       → 403
//
// Errors without a Kind are infrastructure failures and become 500.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindBadRequest
	KindDomainInvariant
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindDomainInvariant:
		return "DOMAIN_INVARIANT"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "UNKNOWN"
	}
}

// HTTPStatus returns the status code for the kind, 500 for KindUnknown.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindDomainInvariant:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func BadRequest(format string, args ...any) *Error {
	return New(KindBadRequest, format, args...)
}

func DomainInvariant(format string, args ...any) *Error {
	return New(KindDomainInvariant, format, args...)
}

// Forbidden is raised by callers that check who may act on a resource.
func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// KindOf walks the wrap chain and returns the first kind found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the domain message without the wrapped cause.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func IsNotFound(err error) bool        { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool        { return KindOf(err) == KindConflict }
func IsBadRequest(err error) bool      { return KindOf(err) == KindBadRequest }
func IsDomainInvariant(err error) bool { return KindOf(err) == KindDomainInvariant }
func IsForbidden(err error) bool       { return KindOf(err) == KindForbidden }
