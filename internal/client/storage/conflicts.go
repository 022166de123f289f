package storage

import (
	"context"

	"github.com/avoronov/goalkeeper/internal/models"
)

// ConflictStorage persists conflict records. Records are immutable once
// written except for the Resolved flag.
type ConflictStorage interface {
	// SaveConflict appends a new conflict record.
	SaveConflict(ctx context.Context, record *models.ConflictRecord) error

	// GetConflict returns a record by id.
	// Returns ErrConflictNotFound if it does not exist.
	GetConflict(ctx context.Context, id string) (*models.ConflictRecord, error)

	// ListConflicts returns all records, newest first.
	ListConflicts(ctx context.Context) ([]*models.ConflictRecord, error)

	// SetResolved flips the Resolved flag; every other field stays as
	// written.
	SetResolved(ctx context.Context, id string, resolved bool) error
}

// ChangeLog is the append-only audit trail of writes. Entries are never
// mutated or deleted.
type ChangeLog interface {
	// Append records one entry, assigning its sequence number.
	Append(ctx context.Context, entry *models.ChangeLogEntry) error

	// Tail returns the most recent entries, oldest first, at most limit.
	Tail(ctx context.Context, limit int) ([]*models.ChangeLogEntry, error)
}
