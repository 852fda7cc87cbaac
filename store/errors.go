package store

import "errors"

// ErrNotFound is returned by Lookup when the durable store has no row for
// the given digest.
var ErrNotFound = errors.New("store: key not found")

// ErrClosed is returned by pool operations after the session pool has been
// closed.
var ErrClosed = errors.New("store: session pool closed")

// StatementError wraps a failure from a single prepared-statement
// execution, naming which statement failed, so callers that
// log-and-continue (per the no-retry policy) have enough context to
// diagnose without retrying.
type StatementError struct {
	Statement string // "select_kv" | "insert_kv" | "delete_kv"
	Err       error
}

func (e *StatementError) Error() string {
	return "store: " + e.Statement + ": " + e.Err.Error()
}

func (e *StatementError) Unwrap() error { return e.Err }
