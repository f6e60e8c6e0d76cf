package store

import (
	"errors"
	"fmt"
)

// Kind classifies where a store operation failed.
type Kind string

const (
	// KindConnection: the handle could not be pinged.
	KindConnection Kind = "CONNECTION"

	// KindTable: the configured table name is not a valid identifier.
	KindTable Kind = "INVALID_TABLE"

	// KindSchema: CREATE TABLE failed.
	KindSchema Kind = "SCHEMA"

	// KindPrepare: the statement could not be built or prepared.
	KindPrepare Kind = "STATEMENT_PREPARE"

	// KindExecute: the statement failed while running or scanning.
	KindExecute Kind = "STATEMENT_EXECUTE"

	// KindTransaction: begin, commit or rollback failed.
	KindTransaction Kind = "TRANSACTION"
)

// Error is a store failure tagged with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's tree, or "" if none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
