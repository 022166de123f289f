package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/avoronov/goalkeeper/internal/client/storage"
)

var (
	keyCheckpoint = []byte("delta_checkpoint")
	keyClientID   = []byte("client_id")
)

// SaveCheckpoint stores the delta-sync checkpoint (unix milliseconds).
func (s *Storage) SaveCheckpoint(ctx context.Context, timestamp int64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(timestamp))

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put(keyCheckpoint, buf)
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// GetCheckpoint returns the last saved checkpoint, 0 if none.
func (s *Storage) GetCheckpoint(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var timestamp int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMetadata).Get(keyCheckpoint)
		if len(data) == 8 {
			timestamp = int64(binary.BigEndian.Uint64(data))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return timestamp, nil
}

// ClientID returns the stable client identifier, generating one on first use.
func (s *Storage) ClientID(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var clientID string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if data := bucket.Get(keyClientID); data != nil {
			clientID = string(data)
			return nil
		}
		clientID = uuid.New().String()
		return bucket.Put(keyClientID, []byte(clientID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to get client id: %w", err)
	}
	return clientID, nil
}
