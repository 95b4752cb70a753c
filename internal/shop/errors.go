package shop

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindTransaction
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransaction:
		return "transaction"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ErrUnavailable marks failures to obtain a database session at all.
var ErrUnavailable = errors.New("database session unavailable")

// Error is the classified failure returned by the services. Message is safe
// to show to callers; Err carries the cause and is only logged.
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

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// KindOf reports the classification of err. Unclassified errors count as
// transaction failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransaction
}

// classify turns a failure raised inside or around a transaction into an *Error.
func classify(err error, msg string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, ErrUnavailable) {
		return &Error{Kind: KindResource, Message: "database unavailable", Err: err}
	}
	return &Error{Kind: KindTransaction, Message: msg, Err: err}
}
