package entities

import (
	"errors"
	"fmt"
)

// Common errors. These are the whole failure taxonomy of the core: handlers
// map them to API error codes, nothing below this layer retries or recovers.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidQuery = errors.New("invalid query")
	ErrValidation   = errors.New("validation failed")
)

// StorageError wraps an underlying storage-engine failure with the operation
// and entity it occurred on, so callers can log and respond without parsing
// driver messages.
type StorageError struct {
	Op     string
	Entity string
	ID     string
	Err    error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError builds a StorageError; id may be empty for set-level
// operations.
func NewStorageError(op, entity, id string, err error) *StorageError {
	return &StorageError{Op: op, Entity: entity, ID: id, Err: err}
}
