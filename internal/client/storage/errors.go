package storage

import "errors"

// Common client storage errors
var (
	// ErrObjectNotFound indicates the requested object does not exist locally
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectExists indicates a create for an id that is already stored
	ErrObjectExists = errors.New("object already exists")

	// ErrOperationNotFound indicates the queue entry does not exist
	ErrOperationNotFound = errors.New("sync operation not found")

	// ErrConflictNotFound indicates the conflict record does not exist
	ErrConflictNotFound = errors.New("conflict record not found")

	// ErrSessionNotFound indicates that no authentication session exists
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
