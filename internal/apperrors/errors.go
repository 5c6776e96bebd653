// Package apperrors defines the error kinds surfaced at the HTTP boundary.
package apperrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a missing or malformed required field.
	KindValidation
	// KindReferential is a reference to a user that does not exist.
	KindReferential
	// KindStorage is any failure reported by the persistence backend.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindReferential:
		return "ReferentialError"
	case KindStorage:
		return "StorageError"
	default:
		return "UnknownError"
	}
}

// Error is an application error of a given Kind. Msg is the client facing
// message; Err is the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Referential(msg string) error {
	return &Error{Kind: KindReferential, Msg: msg}
}

func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// HTTPStatus maps err to the status code returned to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindReferential:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client facing message. Client errors expose only their
// own message; server errors expose the whole chain.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindStorage && appErr.Msg != "" {
		return appErr.Msg
	}
	return err.Error()
}
