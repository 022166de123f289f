package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/models"
)

// SaveConflict appends a new conflict record.
func (s *Storage) SaveConflict(ctx context.Context, record *models.ConflictRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal conflict record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).Put([]byte(record.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save conflict record: %w", err)
	}
	return nil
}

// GetConflict returns a conflict record by id.
func (s *Storage) GetConflict(ctx context.Context, id string) (*models.ConflictRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var record *models.ConflictRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketConflicts).Get([]byte(id))
		if data == nil {
			return storage.ErrConflictNotFound
		}
		record = &models.ConflictRecord{}
		if err := json.Unmarshal(data, record); err != nil {
			return fmt.Errorf("failed to unmarshal conflict record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListConflicts returns all conflict records, newest first.
func (s *Storage) ListConflicts(ctx context.Context) ([]*models.ConflictRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var records []*models.ConflictRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			record := &models.ConflictRecord{}
			if err := json.Unmarshal(v, record); err != nil {
				return fmt.Errorf("failed to unmarshal conflict record: %w", err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conflict records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// SetResolved flips the Resolved flag on a conflict record.
func (s *Storage) SetResolved(ctx context.Context, id string, resolved bool) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConflicts)
		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrConflictNotFound
		}
		record := &models.ConflictRecord{}
		if err := json.Unmarshal(data, record); err != nil {
			return fmt.Errorf("failed to unmarshal conflict record: %w", err)
		}
		record.Resolved = resolved

		updated, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal conflict record: %w", err)
		}
		return bucket.Put([]byte(id), updated)
	})
}

// Append records one change log entry, assigning its sequence number.
func (s *Storage) Append(ctx context.Context, entry *models.ChangeLogEntry) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketChangeLog)
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to assign log sequence: %w", err)
		}
		entry.Seq = seq

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal log entry: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, data)
	})
}

// Tail returns the most recent change log entries, oldest first.
func (s *Storage) Tail(ctx context.Context, limit int) ([]*models.ChangeLogEntry, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var entries []*models.ChangeLogEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketChangeLog).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			entry := &models.ChangeLogEntry{}
			if err := json.Unmarshal(v, entry); err != nil {
				return fmt.Errorf("failed to unmarshal log entry: %w", err)
			}
			entries = append(entries, entry)
			if limit > 0 && len(entries) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read change log: %w", err)
	}

	// walked backwards, flip to oldest-first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
