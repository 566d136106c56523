package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps any failure of the underlying store during Op.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// UploadIOError aborts an upload batch. Files written before it stay on disk.
type UploadIOError struct {
	File string
	Err  error
}

func (e *UploadIOError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.File, e.Err)
}

func (e *UploadIOError) Unwrap() error { return e.Err }
