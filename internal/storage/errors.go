// Package storage holds what the document store backends share.
package storage

import (
	"errors"
	"fmt"
)

// Error reports a failed operation against the backing store.
// It is surfaced to clients as a server error and never retried here.
type Error struct {
	Op  string // e.g. "products.count"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap annotates err with the failing operation. It returns nil for a nil err
// and leaves errors that are already *Error untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStorageError reports whether err (or anything it wraps) is a storage failure.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
