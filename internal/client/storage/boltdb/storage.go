// Package boltdb implements the client storage interfaces on top of a single
// BoltDB file: object store, sync queue, checkpoint metadata, conflict
// records, change log and auth session all live in their own buckets so one
// fsync covers a whole transaction.
package boltdb

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketObjects    = []byte("objects")     // sub-bucket per object type
	bucketQueue      = []byte("sync_queue")  // op id -> operation
	bucketQueueIndex = []byte("queue_index") // object id -> op id
	bucketMetadata   = []byte("metadata")
	bucketConflicts  = []byte("conflicts")
	bucketChangeLog  = []byte("change_log")
	bucketSession    = []byte("session")
)

// Storage implements the client storage interfaces on BoltDB.
type Storage struct {
	db  *bbolt.DB
	now func() time.Time

	backoffBase time.Duration
	backoffMax  time.Duration
}

// Option tweaks storage behavior. Mostly used by tests.
type Option func(*Storage)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) { s.now = now }
}

// WithBackoff overrides the queue backoff window.
func WithBackoff(base, max time.Duration) Option {
	return func(s *Storage) {
		s.backoffBase = base
		s.backoffMax = max
	}
}

// New opens (or creates) the BoltDB file at dbPath and prepares all buckets.
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{
		db:          db,
		now:         time.Now,
		backoffBase: 5 * time.Second,
		backoffMax:  time.Hour,
	}
	for _, opt := range opts {
		opt(storage)
	}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database file.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) initBuckets() error {
	buckets := [][]byte{
		bucketObjects,
		bucketQueue,
		bucketQueueIndex,
		bucketMetadata,
		bucketConflicts,
		bucketChangeLog,
		bucketSession,
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}
