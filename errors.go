package sqliteconn

import (
	"errors"
	"fmt"
)

var (
	// ErrDatabaseClosed is returned by the handle for any call made after Close.
	ErrDatabaseClosed = errors.New("database is closed")

	// ErrNoTransaction is returned when ending or marking a transaction that was never begun.
	ErrNoTransaction = errors.New("no transaction is active")

	// ErrTransactionMarked is returned when the current transaction level is marked successful twice.
	ErrTransactionMarked = errors.New("transaction already marked successful")

	// ErrUnsupportedType is wrapped by BindError when an argument category has no bind strategy.
	ErrUnsupportedType = errors.New("unknown sql argument type")

	// ErrMoreThanOne is returned by QueryOne when the query produced more than one row.
	ErrMoreThanOne = errors.New("query returned more than one result")

	// ErrNoCurrentRow is returned by Results getters before Next or after the last row.
	ErrNoCurrentRow = errors.New("no current row")

	// ErrStatementType is returned when a compiled statement is run in a way its type does not allow.
	ErrStatementType = errors.New("operation not allowed for statement type")
)

// SQLError is the single failure kind returned by Connection. It carries a
// human-readable context message and the original cause.
type SQLError struct {
	Message string // Context of the failed operation, usually including the statement.
	Err     error  // The underlying handle or driver error.
}

// Error returns the message followed by the cause, if any.
func (e *SQLError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap returns the original cause.
func (e *SQLError) Unwrap() error { return e.Err }

// Is reports whether target is an SQLError. All handle failures are the same
// kind at this layer.
func (e *SQLError) Is(target error) bool {
	_, ok := target.(*SQLError)
	return ok
}

// NewError wraps err under message. An error that already is an SQLError is
// returned unchanged so that the innermost context wins.
func NewError(message string, err error) error {
	var sqlErr *SQLError
	if errors.As(err, &sqlErr) {
		return err
	}
	return &SQLError{
		Message: message,
		Err:     err,
	}
}

// BindError is returned when an argument cannot be bound to a statement,
// either because its category has no bind strategy or because the value does
// not convert to the category's storage class. Index is 0-based.
type BindError struct {
	Index int
	Type  SQLType
	Err   error
}

// Error describes the argument that could not be bound.
func (e *BindError) Error() string {
	if errors.Is(e.Err, ErrUnsupportedType) {
		return fmt.Sprintf("%v %s at argument %d", ErrUnsupportedType, e.Type, e.Index)
	}
	return fmt.Sprintf("cannot bind argument %d as %s: %v", e.Index, e.Type, e.Err)
}

// Unwrap returns the conversion error or ErrUnsupportedType.
func (e *BindError) Unwrap() error { return e.Err }
