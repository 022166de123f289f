package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/models"
)

// Enqueue adds op to the durable queue, coalescing with any pending
// operation for the same object.
func (s *Storage) Enqueue(ctx context.Context, op *models.SyncOperation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	now := s.now()
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = now
	}
	if op.ScheduledAt.IsZero() {
		op.ScheduledAt = now
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		index := tx.Bucket(bucketQueueIndex)

		if existingID := index.Get([]byte(op.ObjectID)); existingID != nil {
			data := queue.Get(existingID)
			if data != nil {
				existing, err := decodeOperation(data)
				if err != nil {
					return err
				}
				merged := coalesce(existing, op)
				merged.ScheduledAt = now
				return putOperation(queue, merged)
			}
			// stale index entry, fall through to a fresh insert
		}

		seq, err := queue.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to assign queue sequence: %w", err)
		}
		op.Seq = seq

		if err := putOperation(queue, op); err != nil {
			return err
		}
		if err := index.Put([]byte(op.ObjectID), []byte(op.ID)); err != nil {
			return fmt.Errorf("failed to index operation: %w", err)
		}
		return nil
	})
}

// coalesce merges a new operation into the pending slot for the same object.
// The slot keeps its ID and Seq so FIFO ordering stays stable, takes the
// highest priority seen, and resets the retry budget because the payload is
// new. A delete supersedes a pending create/update; the reverse never
// happens.
func coalesce(existing, incoming *models.SyncOperation) *models.SyncOperation {
	merged := *incoming
	merged.ID = existing.ID
	merged.Seq = existing.Seq
	merged.CreatedAt = existing.CreatedAt
	merged.RetryCount = 0

	if existing.Priority > merged.Priority {
		merged.Priority = existing.Priority
	}

	switch {
	case existing.Operation == models.OperationDelete:
		// delete wins over anything enqueued after it
		merged.Operation = models.OperationDelete
		merged.Payload = existing.Payload
		merged.Version = existing.Version
	case incoming.Operation == models.OperationDelete:
		merged.Operation = models.OperationDelete
	case existing.Operation == models.OperationCreate:
		// the server has never seen the object, so the slot stays a
		// create carrying the latest payload
		merged.Operation = models.OperationCreate
		merged.Version = existing.Version
	}

	return &merged
}

// DequeueBatch returns up to limit due operations ordered by priority
// (critical first), FIFO within a tier.
func (s *Storage) DequeueBatch(ctx context.Context, limit int) ([]*models.SyncOperation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	now := s.now()
	var due []*models.SyncOperation

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			op, err := decodeOperation(v)
			if err != nil {
				return err
			}
			if op.Due(now) {
				due = append(due, op)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue: %w", err)
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		return due[i].Seq < due[j].Seq
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// Remove deletes the operation and its object index entry.
func (s *Storage) Remove(ctx context.Context, opID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return removeOperation(tx, opID)
	})
}

// Rebase rewrites the operation kind and base version in place. Payload,
// priority, seq and the object index entry all stay as they are.
func (s *Storage) Rebase(ctx context.Context, opID string, operation models.OperationKind, version int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		data := queue.Get([]byte(opID))
		if data == nil {
			return storage.ErrOperationNotFound
		}
		op, err := decodeOperation(data)
		if err != nil {
			return err
		}
		op.Operation = operation
		op.Version = version
		return putOperation(queue, op)
	})
}

// RescheduleWithBackoff pushes the operation out exponentially, dropping it
// permanently once the retry budget is exhausted. The dropped operation is
// returned so the caller can surface the failure.
func (s *Storage) RescheduleWithBackoff(ctx context.Context, opID string) (*models.SyncOperation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var dropped *models.SyncOperation
	err := s.db.Update(func(tx *bbolt.Tx) error {
		queue := tx.Bucket(bucketQueue)
		data := queue.Get([]byte(opID))
		if data == nil {
			return storage.ErrOperationNotFound
		}
		op, err := decodeOperation(data)
		if err != nil {
			return err
		}

		op.RetryCount++
		if op.RetryCount > op.MaxRetries {
			dropped = op
			return removeOperation(tx, opID)
		}

		op.ScheduledAt = s.now().Add(s.backoffDelay(op.RetryCount))
		return putOperation(queue, op)
	})
	if err != nil {
		return nil, err
	}
	return dropped, nil
}

// Pending returns the queued operation for an object, if any.
func (s *Storage) Pending(ctx context.Context, objectID string) (*models.SyncOperation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var op *models.SyncOperation
	err := s.db.View(func(tx *bbolt.Tx) error {
		opID := tx.Bucket(bucketQueueIndex).Get([]byte(objectID))
		if opID == nil {
			return storage.ErrOperationNotFound
		}
		data := tx.Bucket(bucketQueue).Get(opID)
		if data == nil {
			return storage.ErrOperationNotFound
		}
		var err error
		op, err = decodeOperation(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// PendingCount returns the number of queued operations.
func (s *Storage) PendingCount(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketQueue).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return count, nil
}

// CountsByType returns queued operation counts per object type.
func (s *Storage) CountsByType(ctx context.Context) (map[models.ObjectType]int, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	counts := make(map[models.ObjectType]int)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketQueue).ForEach(func(k, v []byte) error {
			op, err := decodeOperation(v)
			if err != nil {
				return err
			}
			counts[op.ObjectType]++
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count queue by type: %w", err)
	}
	return counts, nil
}

// backoffDelay computes the exponential delay for the given retry count.
func (s *Storage) backoffDelay(retryCount int) time.Duration {
	delay := s.backoffBase
	for i := 1; i < retryCount; i++ {
		delay *= 2
		if delay >= s.backoffMax {
			return s.backoffMax
		}
	}
	if delay > s.backoffMax {
		return s.backoffMax
	}
	return delay
}

func removeOperation(tx *bbolt.Tx, opID string) error {
	queue := tx.Bucket(bucketQueue)
	data := queue.Get([]byte(opID))
	if data == nil {
		return storage.ErrOperationNotFound
	}
	op, err := decodeOperation(data)
	if err != nil {
		return err
	}
	if err := queue.Delete([]byte(opID)); err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}

	index := tx.Bucket(bucketQueueIndex)
	if indexed := index.Get([]byte(op.ObjectID)); string(indexed) == opID {
		if err := index.Delete([]byte(op.ObjectID)); err != nil {
			return fmt.Errorf("failed to delete operation index: %w", err)
		}
	}
	return nil
}

func putOperation(bucket *bbolt.Bucket, op *models.SyncOperation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}
	if err := bucket.Put([]byte(op.ID), data); err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}
	return nil
}

func decodeOperation(data []byte) (*models.SyncOperation, error) {
	op := &models.SyncOperation{}
	if err := json.Unmarshal(data, op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal operation: %w", err)
	}
	return op, nil
}
