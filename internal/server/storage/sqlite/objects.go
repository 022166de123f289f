package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avoronov/goalkeeper/internal/models"
	"github.com/avoronov/goalkeeper/internal/server/storage"
)

// Apply folds one client operation into the store. All reads and the write
// happen in one transaction so the version check cannot race a concurrent
// apply for the same object.
func (s *Storage) Apply(ctx context.Context, op storage.Operation) (*models.StoredObject, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.getObjectTx(ctx, tx, op.OwnerID, op.ObjectID)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return nil, err
	}

	now := s.nextTimestamp()
	var row *models.StoredObject

	// the authoritative version is stamped back into the payload so a
	// client resolving against server data sees the stored version, not
	// the stale one its peer submitted
	stamp := func(version int64) (json.RawMessage, error) {
		return stampVersion(op.Payload, version)
	}

	switch op.Kind {
	case storage.OpCreate:
		// a second create of the same id is a replay or a split brain;
		// either way the client resolves against the stored row
		if current != nil {
			return current, storage.ErrVersionConflict
		}
		payload, err := stamp(1)
		if err != nil {
			return nil, err
		}
		row = &models.StoredObject{
			ObjectID:    op.ObjectID,
			ObjectType:  op.ObjectType,
			OwnerID:     op.OwnerID,
			Payload:     payload,
			Version:     1,
			CreatedAtMS: now,
			UpdatedAtMS: now,
		}
		if err := s.insertTx(ctx, tx, row); err != nil {
			return nil, err
		}

	case storage.OpUpdate:
		if current == nil {
			return nil, storage.ErrObjectNotFound
		}
		if op.IfMatchVersion != nil && *op.IfMatchVersion != current.Version {
			return current, storage.ErrVersionConflict
		}
		row = current
		row.Version++
		payload, err := stamp(row.Version)
		if err != nil {
			return nil, err
		}
		row.Payload = payload
		row.UpdatedAtMS = now
		if err := s.updateTx(ctx, tx, row); err != nil {
			return nil, err
		}

	case storage.OpDelete:
		if current == nil {
			// tombstone for an object this server never saw, so other
			// devices still learn about the delete
			payload, err := stamp(1)
			if err != nil {
				return nil, err
			}
			row = &models.StoredObject{
				ObjectID:    op.ObjectID,
				ObjectType:  op.ObjectType,
				OwnerID:     op.OwnerID,
				Payload:     payload,
				Version:     1,
				Deleted:     true,
				CreatedAtMS: now,
				UpdatedAtMS: now,
			}
			if err := s.insertTx(ctx, tx, row); err != nil {
				return nil, err
			}
			break
		}
		if op.IfMatchVersion != nil && *op.IfMatchVersion != current.Version {
			return current, storage.ErrVersionConflict
		}
		row = current
		row.Deleted = true
		row.Version++
		payload, err := stamp(row.Version)
		if err != nil {
			return nil, err
		}
		row.Payload = payload
		row.UpdatedAtMS = now
		if err := s.updateTx(ctx, tx, row); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit apply: %w", err)
	}
	return row, nil
}

// GetObject retrieves one row, tombstones included.
func (s *Storage) GetObject(ctx context.Context, ownerID string, objectType models.ObjectType, objectID string) (*models.StoredObject, error) {
	row, err := s.getObjectRow(ctx, s.db.QueryRowContext(ctx, `
		SELECT owner_id, object_id, object_type, payload, version, deleted, created_at_ms, updated_at_ms
		FROM objects
		WHERE owner_id = ? AND object_id = ? AND object_type = ?
	`, ownerID, objectID, string(objectType)))
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ChangesSince returns up to limit rows modified after since, oldest first.
func (s *Storage) ChangesSince(ctx context.Context, ownerID string, since int64, limit int) ([]*models.StoredObject, bool, error) {
	// fetch one extra row to learn whether the page is full
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, object_id, object_type, payload, version, deleted, created_at_ms, updated_at_ms
		FROM objects
		WHERE owner_id = ? AND updated_at_ms > ?
		ORDER BY updated_at_ms ASC, object_id ASC
		LIMIT ?
	`, ownerID, since, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var objects []*models.StoredObject
	for rows.Next() {
		obj, err := s.scanObject(rows)
		if err != nil {
			return nil, false, err
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("rows iteration error: %w", err)
	}

	hasMore := len(objects) > limit
	if hasMore {
		objects = objects[:limit]
	}
	return objects, hasMore, nil
}

func (s *Storage) getObjectTx(ctx context.Context, tx *sql.Tx, ownerID, objectID string) (*models.StoredObject, error) {
	return s.getObjectRow(ctx, tx.QueryRowContext(ctx, `
		SELECT owner_id, object_id, object_type, payload, version, deleted, created_at_ms, updated_at_ms
		FROM objects
		WHERE owner_id = ? AND object_id = ?
	`, ownerID, objectID))
}

func (s *Storage) getObjectRow(_ context.Context, row *sql.Row) (*models.StoredObject, error) {
	obj := &models.StoredObject{}
	var objectType string
	var deleted int

	err := row.Scan(
		&obj.OwnerID,
		&obj.ObjectID,
		&objectType,
		&obj.Payload,
		&obj.Version,
		&deleted,
		&obj.CreatedAtMS,
		&obj.UpdatedAtMS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	obj.ObjectType = models.ObjectType(objectType)
	obj.Deleted = deleted != 0
	return obj, nil
}

func (s *Storage) scanObject(rows *sql.Rows) (*models.StoredObject, error) {
	obj := &models.StoredObject{}
	var objectType string
	var deleted int

	err := rows.Scan(
		&obj.OwnerID,
		&obj.ObjectID,
		&objectType,
		&obj.Payload,
		&obj.Version,
		&deleted,
		&obj.CreatedAtMS,
		&obj.UpdatedAtMS,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan object: %w", err)
	}

	obj.ObjectType = models.ObjectType(objectType)
	obj.Deleted = deleted != 0
	return obj, nil
}

func (s *Storage) insertTx(ctx context.Context, tx *sql.Tx, obj *models.StoredObject) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO objects (owner_id, object_id, object_type, payload, version, deleted, created_at_ms, updated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		obj.OwnerID,
		obj.ObjectID,
		string(obj.ObjectType),
		[]byte(obj.Payload),
		obj.Version,
		boolToInt(obj.Deleted),
		obj.CreatedAtMS,
		obj.UpdatedAtMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert object: %w", err)
	}
	return nil
}

func (s *Storage) updateTx(ctx context.Context, tx *sql.Tx, obj *models.StoredObject) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE objects
		SET payload = ?, version = ?, deleted = ?, updated_at_ms = ?
		WHERE owner_id = ? AND object_id = ?
	`,
		[]byte(obj.Payload),
		obj.Version,
		boolToInt(obj.Deleted),
		obj.UpdatedAtMS,
		obj.OwnerID,
		obj.ObjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update object: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// stampVersion rewrites the version field of an entity payload. An empty
// payload passes through untouched.
func stampVersion(payload json.RawMessage, version int64) (json.RawMessage, error) {
	if len(payload) == 0 {
		return payload, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	fields["version"] = json.RawMessage(fmt.Sprintf("%d", version))
	stamped, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp payload version: %w", err)
	}
	return stamped, nil
}
