// Package errs defines the error taxonomy shared by the sync engine.
//
// Storage and validation errors surface synchronously to callers; network,
// auth and conflict errors are absorbed inside the sync coordinator and only
// reach callers through the status stream.
package errs

import (
	"errors"
	"fmt"
)

// StorageError wraps a local I/O or constraint failure. Fatal to the calling
// operation; never retried by the store itself.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// NetworkError wraps a transient transport failure. The coordinator retries
// these with backoff.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError indicates a missing or rejected credential. Operations are
// requeued and sync pauses until re-authentication; nothing is discarded.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %s: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ConflictError indicates a version-precondition mismatch. Routed to the
// conflict resolver, never surfaced raw to callers.
type ConflictError struct {
	ObjectID      string
	LocalVersion  int64
	RemoteVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: object %s local v%d vs remote v%d",
		e.ObjectID, e.LocalVersion, e.RemoteVersion)
}

// ValidationError indicates a malformed payload rejected at the object
// manager boundary before anything is stored or enqueued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Storage wraps err as a StorageError.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Network wraps err as a NetworkError.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Op: op, Err: err}
}

// Auth wraps err as an AuthError.
func Auth(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AuthError{Op: op, Err: err}
}

// Validation builds a ValidationError for a field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
