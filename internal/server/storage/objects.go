package storage

import (
	"context"
	"encoding/json"

	"github.com/avoronov/goalkeeper/internal/models"
)

// Operation kinds accepted by Apply.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Operation is one client mutation to fold into the server store.
// IfMatchVersion, when set, is the optimistic-concurrency precondition:
// the stored version must equal it or the apply is rejected.
type Operation struct {
	OwnerID        string
	ObjectID       string
	ObjectType     models.ObjectType
	Kind           string
	Payload        json.RawMessage
	IfMatchVersion *int64
}

// ObjectStorage persists synchronized objects and serves delta pages.
type ObjectStorage interface {
	// Apply folds one operation into the store and returns the resulting
	// row with its newly assigned version.
	//
	// A create on an existing object, or an update or delete whose
	// IfMatchVersion trails the stored version, returns the CURRENT row
	// together with ErrVersionConflict so the caller can hand the server
	// state back to the client. Replaying an already-applied operation
	// therefore always lands in the conflict branch, never in a second
	// apply. An update on a missing object returns ErrObjectNotFound; a
	// delete on a missing object stores the tombstone payload as version 1.
	Apply(ctx context.Context, op Operation) (*models.StoredObject, error)

	// GetObject retrieves one row, tombstones included.
	// Returns ErrObjectNotFound if no such row exists.
	GetObject(ctx context.Context, ownerID string, objectType models.ObjectType, objectID string) (*models.StoredObject, error)

	// ChangesSince returns up to limit rows of the owner modified after
	// the given unix-millisecond timestamp, oldest first, and reports
	// whether more rows remain beyond the page.
	ChangesSince(ctx context.Context, ownerID string, since int64, limit int) ([]*models.StoredObject, bool, error)
}
