package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an evaluation was aborted. Every kind maps to
// ExitInputError; the kind only changes how callers may report it.
type ErrorKind string

const (
	KindInput     ErrorKind = "input"
	KindSchema    ErrorKind = "schema"
	KindContract  ErrorKind = "contract"
	KindFreshness ErrorKind = "freshness"
	KindInternal  ErrorKind = "internal"
)

// Process exit codes.
const (
	ExitGateClosed = 0
	ExitGateOpen   = 1
	ExitInputError = 2
)

// Error is the single failure value threaded through every evaluation stage.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// FormatStderr renders the one-line message written before exiting.
func (e *Error) FormatStderr() string {
	return fmt.Sprintf("error: %s\n", e.Msg)
}

func InputErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindInput, Msg: fmt.Sprintf(format, args...)}
}

func SchemaErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindSchema, Msg: fmt.Sprintf(format, args...)}
}

func ContractErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindContract, Msg: fmt.Sprintf(format, args...)}
}

func FreshnessErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindFreshness, Msg: fmt.Sprintf(format, args...)}
}

func InternalErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Msg: fmt.Sprintf(format, args...)}
}

// AsKind re-labels err with kind, preserving the message.
func AsKind(err error, kind ErrorKind) *Error {
	return &Error{Kind: kind, Msg: err.Error()}
}

// KindOf reports the kind carried by err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
