package engine

import (
	"errors"
	"fmt"
)

// LoadError represents a fatal failure detected while loading a batch.
//
// Fatal failures abort the current record, the remaining records of its
// table, and all remaining tables in the Insert call. Rows already written
// stay committed - there is no compensating rollback - so the caller observes
// batch progress through whatever identifiers were registered before the
// failure.
//
// An unresolved local reference is deliberately NOT a LoadError: it degrades
// the field to null and is reported as a Diagnostic instead.
type LoadError struct {
	// Code identifies the error category.
	Code LoadErrorCode

	// Message is a human-readable description.
	Message string

	// Table is the target table of the failed operation.
	Table string

	// LocalID identifies the record being processed, if any.
	LocalID string

	// Column identifies the field whose reference failed, if any.
	Column string

	// Err is the underlying store error, if any.
	Err error
}

// LoadErrorCode categorizes load errors.
type LoadErrorCode string

const (
	// ErrCodeRefNotFound indicates a database reference lookup matched zero
	// rows when used as a direct reference value.
	ErrCodeRefNotFound LoadErrorCode = "REF_NOT_FOUND"

	// ErrCodeRefLookupFailed indicates the store failed to execute a
	// reference or existing-record lookup (connectivity, bad statement).
	ErrCodeRefLookupFailed LoadErrorCode = "REF_LOOKUP_FAILED"

	// ErrCodeWriteFailed indicates an insert, update, or replace statement
	// failed.
	ErrCodeWriteFailed LoadErrorCode = "WRITE_FAILED"
)

// Error implements the error interface.
func (e *LoadError) Error() string {
	where := e.Table
	if e.LocalID != "" {
		where = fmt.Sprintf("%s/%s", e.Table, e.LocalID)
	}
	if e.Column != "" {
		where = fmt.Sprintf("%s.%s", where, e.Column)
	}
	if where != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, where)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying store error, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsRefNotFound returns true if the error is a zero-row reference lookup.
// Uses errors.As to handle wrapped errors.
func IsRefNotFound(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == ErrCodeRefNotFound
}

// IsRefLookupFailed returns true if the error is a failed lookup query.
func IsRefLookupFailed(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == ErrCodeRefLookupFailed
}

// IsWriteFailed returns true if the error is a failed write statement.
func IsWriteFailed(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == ErrCodeWriteFailed
}

// newRefNotFoundError creates a LoadError for a zero-row reference lookup.
func newRefNotFoundError(table string, matchColumns []string) *LoadError {
	return &LoadError{
		Code:    ErrCodeRefNotFound,
		Message: fmt.Sprintf("no row matches %v", matchColumns),
		Table:   table,
	}
}

// newLookupError creates a LoadError for a failed lookup query.
func newLookupError(table string, err error) *LoadError {
	return &LoadError{
		Code:    ErrCodeRefLookupFailed,
		Message: "reference lookup failed",
		Table:   table,
		Err:     err,
	}
}

// newWriteError creates a LoadError for a failed write statement.
func newWriteError(table, localID string, err error) *LoadError {
	return &LoadError{
		Code:    ErrCodeWriteFailed,
		Message: "write failed",
		Table:   table,
		LocalID: localID,
		Err:     err,
	}
}

// Diagnostic records a non-fatal resolution failure: a local reference whose
// (table, id) pair had no registry entry at the moment of resolution. The
// field was degraded to null and the record still written.
type Diagnostic struct {
	// Table and LocalID identify the record being resolved.
	Table   string
	LocalID string

	// Column is the field path that held the unresolvable reference.
	Column string

	// RefTable and RefID are the reference's target.
	RefTable string
	RefID    string
}

// String renders the diagnostic for logs.
func (d Diagnostic) String() string {
	return fmt.Sprintf("unresolved local reference %s/%s at %s/%s.%s",
		d.RefTable, d.RefID, d.Table, d.LocalID, d.Column)
}
