// Package errs holds the error taxonomy shared by services and handlers.
package errs

import (
	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "unexpected"
	}
}

// Error carries a kind and a message safe to show to the caller.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// Unexpected wraps an infrastructure failure. A nil err stays nil.
func Unexpected(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUnexpected, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
// Errors outside the taxonomy count as unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}
