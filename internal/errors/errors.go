package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure by how the client reacts to it
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrUnauthorized
	ErrForbidden
)

func (k Kind) String() string {
	switch k {
	case ErrNotFound:
		return "not_found"
	case ErrValidation:
		return "validation"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a client-level error with a kind for classification
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorKind lets Error satisfy Classifier
func (e *Error) ErrorKind() Kind {
	return e.Kind
}

// Classifier is implemented by errors that know their own Kind,
// such as the backend API errors.
type Classifier interface {
	ErrorKind() Kind
}

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors (network failures, decode errors) are ErrInternal.
func KindOf(err error) Kind {
	var c Classifier
	if stderrors.As(err, &c) {
		return c.ErrorKind()
	}
	return ErrInternal
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message carried by err, or fallback when
// err carries none. Backend errors expose the server-supplied message.
func MessageOf(err error, fallback string) string {
	var m interface{ UserMessage() string }
	if stderrors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	var e *Error
	if stderrors.As(err, &e) && e.Message != "" && e.Kind == ErrValidation {
		return e.Message
	}
	return fallback
}
