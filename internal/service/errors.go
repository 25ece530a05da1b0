package service

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input. It is never retried and the
// store is not contacted.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid input: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError reports that the backing store failed, denied access or
// timed out. The effect of the operation is unknown.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence failure: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports that a referenced record does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// CatalogError reports that the external catalog could not be read.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog unavailable: %v", e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }

func invalid(op string, err error) error {
	return &ValidationError{Op: op, Err: err}
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsCatalog reports whether err is a CatalogError.
func IsCatalog(err error) bool {
	var ce *CatalogError
	return errors.As(err, &ce)
}
