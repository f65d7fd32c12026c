// Package screen holds the pieces every screen shares: the error taxonomy
// surfaced to users, inline notices and the confirmation hook.
package screen

import (
	"context"
	"errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindDenied
	KindNotFound
	KindValidation
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDenied:
		return "denied"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is what a screen operation returns: Msg is safe to show to the user,
// Err keeps the underlying cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Transport(msg string, err error) *Error { return &Error{Kind: KindTransport, Msg: msg, Err: err} }
func Denied(msg string) *Error               { return &Error{Kind: KindDenied, Msg: msg} }
func NotFound(msg string, err error) *Error  { return &Error{Kind: KindNotFound, Msg: msg, Err: err} }
func Validation(msg string) *Error           { return &Error{Kind: KindValidation, Msg: msg} }
func Decode(msg string, err error) *Error    { return &Error{Kind: KindDecode, Msg: msg, Err: err} }

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}

type Level int

const (
	Info Level = iota
	Success
	Danger
)

type Notice struct {
	Level Level
	Text  string
}

func Ok(text string) *Notice     { return &Notice{Level: Success, Text: text} }
func Alert(text string) *Notice  { return &Notice{Level: Danger, Text: text} }
func Inform(text string) *Notice { return &Notice{Level: Info, Text: text} }

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Confirmed is used when the user already answered the prompt elsewhere
// (e.g. an inline Yes button).
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Declined never confirms.
var Declined Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
