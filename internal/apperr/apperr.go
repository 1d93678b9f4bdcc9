// Package apperr defines the error kinds the service layer reports and the
// HTTP layer maps to status codes. Validation, authorization and rate-limit
// failures are expected outcomes and carry a user-facing message; Upstream
// wraps unexpected store failures whose detail must not leak to clients.
package apperr

import "errors"

type Kind int

const (
	Validation Kind = iota + 1
	AuthRequired
	AccessDenied
	NotFound
	Conflict
	RateLimited
	Upstream
)

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

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf classifies err; anything that is not an *Error counts as Upstream.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Upstream
}

// Message returns the user-facing message for err. For errors outside the
// taxonomy it returns a generic message so backend detail stays internal.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal error"
}
