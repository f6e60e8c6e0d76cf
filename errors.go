package casbinsql

import (
	"errors"
	"fmt"

	"github.com/roach88/casbinsql/internal/store"
)

// ErrorCode categorizes adapter errors.
type ErrorCode string

const (
	// ErrCodeConnection indicates the handle was unusable at construction.
	ErrCodeConnection ErrorCode = ErrorCode(store.KindConnection)

	// ErrCodeInvalidTable indicates the configured table name is not an identifier.
	ErrCodeInvalidTable ErrorCode = ErrorCode(store.KindTable)

	// ErrCodeSchema indicates the policy table could not be created.
	ErrCodeSchema ErrorCode = ErrorCode(store.KindSchema)

	// ErrCodePrepare indicates a statement could not be built, for example a
	// rule with more than six fields.
	ErrCodePrepare ErrorCode = ErrorCode(store.KindPrepare)

	// ErrCodeExecute indicates a query, insert, update or delete failed.
	ErrCodeExecute ErrorCode = ErrorCode(store.KindExecute)

	// ErrCodeUnsupportedFilter indicates LoadFilteredPolicy got a filter it
	// cannot interpret.
	ErrCodeUnsupportedFilter ErrorCode = "UNSUPPORTED_FILTER"

	// ErrCodeTransaction indicates begin, commit or rollback failed.
	ErrCodeTransaction ErrorCode = ErrorCode(store.KindTransaction)
)

// Error is returned by every Adapter operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the adapter operation that failed (e.g. "update_policies").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("casbinsql: %s: %s: %v", e.Op, e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is an adapter Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// IsUnsupportedFilter returns true if the error is an unsupported filter error.
func IsUnsupportedFilter(err error) bool {
	return IsCode(err, ErrCodeUnsupportedFilter)
}

// wrap tags err with op and a code derived from the store's error kind.
// Errors that carry no kind are execution failures.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	code := ErrCodeExecute
	if kind := store.KindOf(err); kind != "" {
		code = ErrorCode(kind)
	}
	return &Error{Code: code, Op: op, Err: err}
}
