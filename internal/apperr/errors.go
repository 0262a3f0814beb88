package apperr

import (
	"errors"
	"fmt"
)

// Error codes reported to clients and logs.
const (
	CodeValidation    = "validation_error"
	CodeAuthorization = "authorization_error"
	CodeNotFound      = "not_found"
	CodePersistence   = "persistence_error"
	CodeInternal      = "internal_error"
)

// Error kinds. Match with errors.Is.
var (
	// ErrValidation marks malformed or missing input. Not retried.
	ErrValidation = errors.New("validation error")
	// ErrAuthorization marks a caller that is not a member of the conversation.
	ErrAuthorization = errors.New("authorization error")
	// ErrNotFound marks an absent conversation, message or notification.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a store failure that may be transient.
	ErrPersistence = errors.New("persistence error")
)

// Error carries a kind, a human-readable message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Authorization returns an authorization error with a formatted message.
func Authorization(format string, args ...any) error {
	return &Error{Kind: ErrAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with a formatted message.
func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Persistence wraps a store failure for the named operation.
func Persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Msg: op, Err: err}
}

// Code returns the stable code for err, or CodeInternal for unclassified errors.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrAuthorization):
		return CodeAuthorization
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrPersistence):
		return CodePersistence
	default:
		return CodeInternal
	}
}
