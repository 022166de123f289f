package storage

import (
	"context"

	"github.com/avoronov/goalkeeper/internal/models"
)

// SyncQueue is the durable, priority-ordered queue of pending remote-bound
// operations. The total order is deterministic: priority descending, then
// insertion sequence (FIFO) within a tier.
type SyncQueue interface {
	// Enqueue adds op, coalescing with any pending create/update for the
	// same object: the slot keeps the highest priority and the latest
	// payload. A delete always supersedes a pending create/update.
	Enqueue(ctx context.Context, op *models.SyncOperation) error

	// DequeueBatch returns up to limit due operations
	// (scheduled_at <= now), priority descending, FIFO within a tier.
	// Entries stay queued until removed or rescheduled.
	DequeueBatch(ctx context.Context, limit int) ([]*models.SyncOperation, error)

	// Remove deletes the operation after a confirmed server result.
	Remove(ctx context.Context, opID string) error

	// Rebase rewrites the operation kind and base version of a queued
	// operation in place, keeping its payload, priority and queue slot.
	// Used after the server accepts a snapshot that has since been
	// edited locally: the pending slot becomes an update against the
	// version the server just assigned.
	Rebase(ctx context.Context, opID string, operation models.OperationKind, version int64) error

	// RescheduleWithBackoff increments retry_count and pushes
	// scheduled_at out exponentially. Once retry_count exceeds
	// max_retries the operation is removed permanently and returned as
	// dropped so the caller can surface the failure.
	RescheduleWithBackoff(ctx context.Context, opID string) (dropped *models.SyncOperation, err error)

	// Pending returns the operation queued for an object, if any.
	Pending(ctx context.Context, objectID string) (*models.SyncOperation, error)

	// PendingCount returns the number of queued operations.
	PendingCount(ctx context.Context) (int, error)

	// CountsByType returns queued operation counts per object type.
	CountsByType(ctx context.Context) (map[models.ObjectType]int, error)
}
