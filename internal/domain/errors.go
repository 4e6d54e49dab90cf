package domain

import "errors"

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation_error"
	KindAuthorization ErrorKind = "authorization_error"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
)

// Error is a terminal, caller-visible failure of an engine operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

func AuthorizationError(msg string) error { return &Error{Kind: KindAuthorization, Message: msg} }

func NotFoundError(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func ConflictError(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// KindOf returns the taxonomy kind of err, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
