package service

import (
	"errors"
	"fmt"
)

// Validation errors are returned before any external call is made.
var (
	ErrNoPayload          = errors.New("no image payload provided")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrPayloadTooLarge    = errors.New("payload exceeds the maximum allowed size")
	ErrNoIdentifiers      = errors.New("no target identifiers provided")
	ErrNotFound           = errors.New("image not found")
)

// StorageError is fatal to the enclosing call: when the object store rejects
// a write, no metadata is touched.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("object storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err belongs to the client-error class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoPayload) ||
		errors.Is(err, ErrInvalidContentType) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrNoIdentifiers)
}
