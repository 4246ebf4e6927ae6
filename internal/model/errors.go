package model

import "fmt"

// ValidationError reports bad user input to a store operation. It is always
// recoverable; the store's state is left untouched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an operation addressed at an id that does not
// exist in the store.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// ImportError reports a malformed, over-limit or unsafe import payload.
// The whole import is rejected; no partial merge ever occurs.
type ImportError struct {
	Message string
}

func (e *ImportError) Error() string { return e.Message }

// PersistenceError wraps a failed write to the backing store. The in-memory
// mutation that triggered the write has still been applied.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %q: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
