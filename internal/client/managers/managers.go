// Package managers exposes the typed write/read surface for each domain
// entity. Every mutation goes through the same path: validate, write to the
// local store, queue the remote-bound operation, append an audit entry and
// nudge the sync loop. Reads never touch the network.
package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/models"
	"github.com/avoronov/goalkeeper/internal/validation"
)

// defaultMaxRetries is the retry budget stamped on every queued operation.
const defaultMaxRetries = 5

// Deps are the collaborators shared by all managers.
type Deps struct {
	Store   storage.ObjectStore
	Queue   storage.SyncQueue
	Changes storage.ChangeLog

	// Notify nudges the sync loop after a mutation. Optional.
	Notify func()
}

// base carries the shared mutation pipeline. Each typed manager embeds it.
type base struct {
	store   storage.ObjectStore
	queue   storage.SyncQueue
	changes storage.ChangeLog
	notify  func()
	now     func() time.Time
}

func newBase(deps Deps) base {
	notify := deps.Notify
	if notify == nil {
		notify = func() {}
	}
	return base{
		store:   deps.Store,
		queue:   deps.Queue,
		changes: deps.Changes,
		notify:  notify,
		now:     time.Now,
	}
}

// create validates and stores a new entity, then queues its creation.
func (b *base) create(ctx context.Context, e models.Entity, ownerID string, priority models.Priority) error {
	meta := e.Meta()
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.OwnerID == "" {
		meta.OwnerID = ownerID
	}
	if err := validation.ValidateEntity(e); err != nil {
		return err
	}

	if err := b.store.CreateObject(ctx, e); err != nil {
		return fmt.Errorf("failed to create %s: %w", e.ObjectType(), err)
	}
	return b.enqueue(ctx, e, models.OperationCreate, priority, nil)
}

// update applies mutate as one local mutation and queues an update.
// The queue coalesces with a pending create so unsynced objects still reach
// the server as a single create.
func (b *base) update(ctx context.Context, objectType models.ObjectType, id string, priority models.Priority, mutate func(models.Entity) error) (models.Entity, error) {
	previous, err := b.store.GetObject(ctx, objectType, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", objectType, id, err)
	}
	oldPayload, err := models.EncodeEntity(previous)
	if err != nil {
		return nil, err
	}

	updated, err := b.store.UpdateLocal(ctx, objectType, id, func(e models.Entity) error {
		if err := mutate(e); err != nil {
			return err
		}
		return validation.ValidateEntity(e)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", objectType, id, err)
	}

	if err := b.enqueue(ctx, updated, models.OperationUpdate, priority, oldPayload); err != nil {
		return nil, err
	}
	return updated, nil
}

// remove soft-deletes the entity and queues the remote delete.
func (b *base) remove(ctx context.Context, objectType models.ObjectType, id string) error {
	deleted, err := b.store.SoftDelete(ctx, objectType, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", objectType, id, err)
	}
	return b.enqueue(ctx, deleted, models.OperationDelete, models.PriorityHigh, nil)
}

func (b *base) enqueue(ctx context.Context, e models.Entity, kind models.OperationKind, priority models.Priority, oldPayload []byte) error {
	payload, err := models.EncodeEntity(e)
	if err != nil {
		return err
	}

	err = b.queue.Enqueue(ctx, &models.SyncOperation{
		ObjectID:   e.Meta().ID,
		ObjectType: e.ObjectType(),
		Operation:  kind,
		Payload:    payload,
		Priority:   priority,
		Version:    e.Meta().Version,
		MaxRetries: defaultMaxRetries,
	})
	if err != nil {
		return fmt.Errorf("failed to queue %s for %s %s: %w", kind, e.ObjectType(), e.Meta().ID, err)
	}

	entry := &models.ChangeLogEntry{
		Timestamp:  b.now(),
		ObjectID:   e.Meta().ID,
		ObjectType: e.ObjectType(),
		Operation:  kind,
		OldPayload: oldPayload,
		NewPayload: payload,
	}
	if err := b.changes.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append change log entry: %w", err)
	}

	b.notify()
	return nil
}

func ownedBy(ownerID string) func(models.Entity) bool {
	return func(e models.Entity) bool {
		return ownerID == "" || e.Meta().OwnerID == ownerID
	}
}

// applyProgress sets progress and keeps the status lifecycle consistent:
// starting work moves not_started to in_progress, reaching 100 completes,
// dropping below 100 reopens a completed item.
func applyProgress(status *models.WorkStatus, progress *int, completedAt **time.Time, value int, now time.Time) {
	*progress = value
	switch {
	case value >= 100:
		*status = models.WorkStatusCompleted
		stamp := now
		*completedAt = &stamp
	case *status == models.WorkStatusCompleted:
		*status = models.WorkStatusInProgress
		*completedAt = nil
	case *status == models.WorkStatusNotStarted && value > 0:
		*status = models.WorkStatusInProgress
	}
}

// applyStatus sets the lifecycle status directly, stamping or clearing the
// completion time as needed.
func applyStatus(status *models.WorkStatus, completedAt **time.Time, value models.WorkStatus, now time.Time) {
	*status = value
	if value == models.WorkStatusCompleted {
		if *completedAt == nil {
			stamp := now
			*completedAt = &stamp
		}
	} else {
		*completedAt = nil
	}
}
