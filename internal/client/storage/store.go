package storage

import (
	"context"

	"github.com/avoronov/goalkeeper/internal/models"
)

// ObjectStore is the local, versioned per-entity store. Every write stamps
// UpdatedAt and is visible to subsequent reads. Storage errors propagate
// unmodified; the store never retries internally.
//
// There are two distinct write paths:
//   - local mutations (CreateObject, UpdateLocal, SoftDelete, Tx.PutLocal)
//     increment LocalVersion by exactly one and set sync_status=dirty;
//   - remote applies (ApplyRemote, ConfirmSynced) carry the authoritative
//     server version, set sync_status=clean and never touch LocalVersion.
type ObjectStore interface {
	// CreateObject stores a new object. Returns ErrObjectExists for a
	// duplicate id. Stamps CreatedAt/UpdatedAt, LocalVersion=1, dirty.
	CreateObject(ctx context.Context, e models.Entity) error

	// GetObject returns the object, including soft-deleted ones.
	// Returns ErrObjectNotFound if it was never stored.
	GetObject(ctx context.Context, objectType models.ObjectType, id string) (models.Entity, error)

	// QueryObjects returns non-deleted objects of the type matching pred.
	// A nil pred matches everything.
	QueryObjects(ctx context.Context, objectType models.ObjectType, pred func(models.Entity) bool) ([]models.Entity, error)

	// UpdateLocal applies mutate to the stored object as one local
	// mutation: LocalVersion+1, dirty, UpdatedAt stamped. Returns the
	// updated object.
	UpdateLocal(ctx context.Context, objectType models.ObjectType, id string, mutate func(models.Entity) error) (models.Entity, error)

	// SoftDelete stamps DeletedAt as a local mutation. The object stays
	// in the store and remains visible through GetObject.
	SoftDelete(ctx context.Context, objectType models.ObjectType, id string) (models.Entity, error)

	// ApplyRemote upserts a remote-confirmed object: authoritative
	// Version, sync_status=clean. LocalVersion is kept from the stored
	// copy (never decreased).
	ApplyRemote(ctx context.Context, e models.Entity) error

	// MarkSyncStatus moves the object to the given sync status without
	// counting as a mutation. Used by the coordinator for dirty->syncing
	// and syncing->dirty/conflict transitions.
	MarkSyncStatus(ctx context.Context, objectType models.ObjectType, id string, status models.SyncStatus) error

	// ConfirmSynced records a successful push result: sets the returned
	// server version. The clean transition applies only while the stored
	// LocalVersion still equals localVersion, the value carried by the
	// pushed snapshot; a higher stored value means the object mutated
	// after dispatch and it stays dirty. Reports whether the object was
	// marked clean.
	ConfirmSynced(ctx context.Context, objectType models.ObjectType, id string, version, localVersion int64) (bool, error)

	// Transact runs fn inside one all-or-nothing transaction.
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of the store inside a transaction. Writes through PutLocal
// count as local mutations exactly like UpdateLocal.
type Tx interface {
	Get(objectType models.ObjectType, id string) (models.Entity, error)
	List(objectType models.ObjectType) ([]models.Entity, error)
	PutLocal(e models.Entity) error
}
