// Package apperr is the error taxonomy shared by the services and the API
// layers. Services return *Error values (usually package-level sentinels) and
// transports translate the Kind into a status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind uint8

const (
	Internal Kind = iota
	InvalidArgument
	NotFound
	Conflict
	Forbidden
	InvalidState
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Forbidden:
		return "forbidden"
	case InvalidState:
		return "invalid_state"
	case Unavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// HTTPStatus maps a Kind onto the status code class the API exposes.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict, InvalidState:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a client may retry the failed call unchanged.
func (k Kind) Retryable() bool {
	return k == Unavailable
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and a client-facing message to a lower level error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the text that is safe to show to a client. Internal errors
// never leak their cause.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == Internal {
		return "internal server error"
	}
	return e.Msg
}
