// Package errors defines the canonical error taxonomy surfaced by every
// other sequel package. A driver or pool error is always translated into
// one of these kinds before it reaches a caller.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies which branch of the taxonomy an Error belongs to.
type Kind int

const (
	// Config covers invalid client options: unknown dialect, bad pool
	// bounds, an option that doesn't exist.
	Config Kind = iota
	// Connection covers acquire failure, create timeout, validation failure.
	Connection
	// Timeout covers an acquire or query timeout.
	Timeout
	// Cancellation covers a statement cancelled by the caller.
	Cancellation
	// Syntax covers SQL rejected by the backend.
	Syntax
	// Constraint covers NOT NULL, UNIQUE, FK, and CHECK violations.
	Constraint
	// Transaction covers begin/commit/rollback failure or use of a closed
	// transaction handle.
	Transaction
	// Stream covers a sink reporting an error or closing early.
	Stream
	// Unsupported covers a feature unavailable on the current dialect.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case Connection:
		return "ConnectionError"
	case Timeout:
		return "TimeoutError"
	case Cancellation:
		return "CancellationError"
	case Syntax:
		return "SyntaxError"
	case Constraint:
		return "ConstraintError"
	case Transaction:
		return "TransactionError"
	case Stream:
		return "StreamError"
	case Unsupported:
		return "UnsupportedError"
	default:
		return "Error"
	}
}

// Error is the concrete type for every error this module returns. The
// rendered SQL is attached when the caller's Config has CompileSQLOnError
// set (or it is left empty and Message carries only the driver text).
type Error struct {
	Kind    Kind
	Message string
	SQL     string
	Cause   error
}

func (e *Error) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("%s: %s [sql: %s]", e.Kind, e.Message, e.SQL)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/As reach the underlying driver error.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around a lower-level cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WithSQL attaches the rendered SQL text to an error, returning a copy.
func (e *Error) WithSQL(sql string) *Error {
	cp := *e
	cp.SQL = sql
	return &cp
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return false
}

// As is a thin re-export of the standard library helper so callers don't
// need a second import for unwrapping into *Error.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
