package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/models"
)

// CreateObject stores a new object as a local mutation.
func (s *Storage) CreateObject(ctx context.Context, e models.Entity) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	now := s.now()
	meta := e.Meta()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	meta.LocalVersion = 1
	meta.SyncStatus = models.SyncStatusDirty

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := s.typeBucket(tx, e.ObjectType())
		if err != nil {
			return err
		}
		if bucket.Get([]byte(meta.ID)) != nil {
			return storage.ErrObjectExists
		}
		return putEntity(bucket, e)
	})
}

// GetObject returns the stored object, soft-deleted ones included.
func (s *Storage) GetObject(ctx context.Context, objectType models.ObjectType, id string) (models.Entity, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entity models.Entity
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		entity, err = getEntity(tx, objectType, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// QueryObjects returns non-deleted objects of the type matching pred.
func (s *Storage) QueryObjects(ctx context.Context, objectType models.ObjectType, pred func(models.Entity) bool) ([]models.Entity, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var result []models.Entity
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketObjects).Bucket([]byte(objectType))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			entity, err := models.DecodeEntity(objectType, v)
			if err != nil {
				return fmt.Errorf("failed to decode object %s: %w", k, err)
			}
			if entity.Meta().Deleted() {
				return nil
			}
			if pred == nil || pred(entity) {
				result = append(result, entity)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s objects: %w", objectType, err)
	}
	return result, nil
}

// UpdateLocal applies mutate as one local mutation.
func (s *Storage) UpdateLocal(ctx context.Context, objectType models.ObjectType, id string, mutate func(models.Entity) error) (models.Entity, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var updated models.Entity
	err := s.db.Update(func(tx *bbolt.Tx) error {
		entity, err := getEntity(tx, objectType, id)
		if err != nil {
			return err
		}
		if err := mutate(entity); err != nil {
			return err
		}
		s.stampLocalMutation(entity)

		bucket, err := s.typeBucket(tx, objectType)
		if err != nil {
			return err
		}
		if err := putEntity(bucket, entity); err != nil {
			return err
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete stamps DeletedAt as a local mutation. The object stays stored.
func (s *Storage) SoftDelete(ctx context.Context, objectType models.ObjectType, id string) (models.Entity, error) {
	return s.UpdateLocal(ctx, objectType, id, func(e models.Entity) error {
		now := s.now()
		e.Meta().DeletedAt = &now
		return nil
	})
}

// ApplyRemote upserts a remote-confirmed object: authoritative version,
// clean status. The stored LocalVersion is preserved so it never decreases.
func (s *Storage) ApplyRemote(ctx context.Context, e models.Entity) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	meta := e.Meta()
	meta.SyncStatus = models.SyncStatusClean

	return s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getEntity(tx, e.ObjectType(), meta.ID)
		if err == nil {
			if local := existing.Meta().LocalVersion; local > meta.LocalVersion {
				meta.LocalVersion = local
			}
		} else if err != storage.ErrObjectNotFound {
			return err
		}

		bucket, err := s.typeBucket(tx, e.ObjectType())
		if err != nil {
			return err
		}
		return putEntity(bucket, e)
	})
}

// MarkSyncStatus moves the object between sync states without counting as a
// mutation.
func (s *Storage) MarkSyncStatus(ctx context.Context, objectType models.ObjectType, id string, status models.SyncStatus) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		entity, err := getEntity(tx, objectType, id)
		if err != nil {
			return err
		}
		entity.Meta().SyncStatus = status

		bucket, err := s.typeBucket(tx, objectType)
		if err != nil {
			return err
		}
		return putEntity(bucket, entity)
	})
}

// ConfirmSynced records a successful push result for the object. The server
// version is authoritative and lands unconditionally; the clean transition
// applies only while the stored LocalVersion still matches the pushed
// snapshot, so an edit made after dispatch keeps its dirty flag.
func (s *Storage) ConfirmSynced(ctx context.Context, objectType models.ObjectType, id string, version, localVersion int64) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}

	confirmed := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		entity, err := getEntity(tx, objectType, id)
		if err != nil {
			return err
		}
		meta := entity.Meta()
		meta.Version = version
		if meta.LocalVersion <= localVersion {
			meta.SyncStatus = models.SyncStatusClean
			confirmed = true
		}

		bucket, err := s.typeBucket(tx, objectType)
		if err != nil {
			return err
		}
		return putEntity(bucket, entity)
	})
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// Transact runs fn inside one all-or-nothing bolt transaction.
func (s *Storage) Transact(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{storage: s, tx: tx})
	})
}

// boltTx adapts a bolt transaction to the storage.Tx interface.
type boltTx struct {
	storage *Storage
	tx      *bbolt.Tx
}

func (t *boltTx) Get(objectType models.ObjectType, id string) (models.Entity, error) {
	return getEntity(t.tx, objectType, id)
}

func (t *boltTx) List(objectType models.ObjectType) ([]models.Entity, error) {
	bucket := t.tx.Bucket(bucketObjects).Bucket([]byte(objectType))
	if bucket == nil {
		return nil, nil
	}

	var result []models.Entity
	err := bucket.ForEach(func(k, v []byte) error {
		entity, err := models.DecodeEntity(objectType, v)
		if err != nil {
			return fmt.Errorf("failed to decode object %s: %w", k, err)
		}
		if !entity.Meta().Deleted() {
			result = append(result, entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (t *boltTx) PutLocal(e models.Entity) error {
	t.storage.stampLocalMutation(e)
	bucket, err := t.storage.typeBucket(t.tx, e.ObjectType())
	if err != nil {
		return err
	}
	return putEntity(bucket, e)
}

// stampLocalMutation applies the invariants every local mutation carries.
func (s *Storage) stampLocalMutation(e models.Entity) {
	meta := e.Meta()
	meta.UpdatedAt = s.now()
	meta.LocalVersion++
	meta.SyncStatus = models.SyncStatusDirty
}

func (s *Storage) typeBucket(tx *bbolt.Tx, objectType models.ObjectType) (*bbolt.Bucket, error) {
	bucket, err := tx.Bucket(bucketObjects).CreateBucketIfNotExists([]byte(objectType))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bucket: %w", objectType, err)
	}
	return bucket, nil
}

func getEntity(tx *bbolt.Tx, objectType models.ObjectType, id string) (models.Entity, error) {
	bucket := tx.Bucket(bucketObjects).Bucket([]byte(objectType))
	if bucket == nil {
		return nil, storage.ErrObjectNotFound
	}
	data := bucket.Get([]byte(id))
	if data == nil {
		return nil, storage.ErrObjectNotFound
	}
	entity, err := models.DecodeEntity(objectType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode object %s: %w", id, err)
	}
	return entity, nil
}

func putEntity(bucket *bbolt.Bucket, e models.Entity) error {
	data, err := models.EncodeEntity(e)
	if err != nil {
		return err
	}
	if err := bucket.Put([]byte(e.Meta().ID), data); err != nil {
		return fmt.Errorf("failed to save object %s: %w", e.Meta().ID, err)
	}
	return nil
}
