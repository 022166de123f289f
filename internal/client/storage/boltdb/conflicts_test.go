package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/models"
)

func TestConflictRecordRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	record := &models.ConflictRecord{
		ID:              "conflict-1",
		ObjectID:        "task-1",
		ObjectType:      models.ObjectTypeTask,
		LocalSnapshot:   []byte(`{"title":"mine"}`),
		RemoteSnapshot:  []byte(`{"title":"theirs"}`),
		DivergentFields: []string{"title"},
		Strategy:        models.StrategyLatestWriteWins,
		LocalVersion:    1,
		RemoteVersion:   2,
		ManualReview:    true,
		Resolved:        true,
		CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveConflict(ctx, record))

	got, err := s.GetConflict(ctx, "conflict-1")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestGetConflictNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetConflict(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestListConflictsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c-old", "c-mid", "c-new"} {
		require.NoError(t, s.SaveConflict(ctx, &models.ConflictRecord{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := s.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c-new", records[0].ID)
	assert.Equal(t, "c-old", records[2].ID)
}

func TestSetResolvedOnlyFlipsFlag(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveConflict(ctx, &models.ConflictRecord{
		ID:           "conflict-1",
		ObjectID:     "task-1",
		ManualReview: true,
	}))
	require.NoError(t, s.SetResolved(ctx, "conflict-1", true))

	got, err := s.GetConflict(ctx, "conflict-1")
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.True(t, got.ManualReview)
	assert.Equal(t, "task-1", got.ObjectID)

	require.ErrorIs(t, s.SetResolved(ctx, "missing", true), storage.ErrConflictNotFound)
}

func TestChangeLogAppendAndTail(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for i, op := range []models.OperationKind{models.OperationCreate, models.OperationUpdate, models.OperationDelete} {
		entry := &models.ChangeLogEntry{
			ObjectID:   "task-1",
			ObjectType: models.ObjectTypeTask,
			Operation:  op,
			Timestamp:  time.Date(2025, 6, 1, 12, i, 0, 0, time.UTC),
		}
		require.NoError(t, s.Append(ctx, entry))
		assert.EqualValues(t, i+1, entry.Seq)
	}

	// tail returns the latest entries oldest-first
	entries, err := s.Tail(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.OperationUpdate, entries[0].Operation)
	assert.Equal(t, models.OperationDelete, entries[1].Operation)

	all, err := s.Tail(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetSession(ctx)
	require.ErrorIs(t, err, storage.ErrSessionNotFound)

	session := &storage.Session{
		Username:     "alice",
		UserID:       "user-1",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, s.DeleteSession(ctx))
	_, err = s.GetSession(ctx)
	require.ErrorIs(t, err, storage.ErrSessionNotFound)
}
