package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "github.com/avoronov/goalkeeper/internal/client/api"
	"github.com/avoronov/goalkeeper/internal/client/resolver"
	"github.com/avoronov/goalkeeper/internal/client/storage/boltdb"
	"github.com/avoronov/goalkeeper/internal/errs"
	"github.com/avoronov/goalkeeper/internal/models"
	"github.com/avoronov/goalkeeper/pkg/api"
)

type staticTokens string

func (t staticTokens) AccessToken(ctx context.Context) (string, error) {
	return string(t), nil
}

func emptyDelta(ctx context.Context, accessToken string, since int64) (*api.DeltaSyncResponse, error) {
	return &api.DeltaSyncResponse{CurrentTimestamp: since}, nil
}

func newTestCoordinator(t *testing.T, client httpapi.ClientAPI) (*Coordinator, *boltdb.Storage) {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := NewCoordinator(Deps{
		Store:     store,
		Queue:     store,
		Conflicts: store,
		Changes:   store,
		Metadata:  store,
		Client:    client,
		Tokens:    staticTokens("token-1"),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Config{RetryBase: time.Millisecond})
	return c, store
}

func seedTask(t *testing.T, store *boltdb.Storage, serverVersion int64, mutate func(*models.Task) error) *models.Task {
	t.Helper()
	ctx := context.Background()

	task := &models.Task{
		SyncMeta: models.SyncMeta{
			ID:        "task-1",
			OwnerID:   "user-1",
			CreatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			Version:   serverVersion,
		},
		Title:    "Write launch plan",
		Status:   models.WorkStatusInProgress,
		Progress: 40,
	}
	require.NoError(t, store.ApplyRemote(ctx, task))

	if mutate != nil {
		_, err := store.UpdateLocal(ctx, models.ObjectTypeTask, task.ID, func(e models.Entity) error {
			return mutate(e.(*models.Task))
		})
		require.NoError(t, err)
	}

	got, err := store.GetObject(ctx, models.ObjectTypeTask, task.ID)
	require.NoError(t, err)
	return got.(*models.Task)
}

func enqueueFor(t *testing.T, store *boltdb.Storage, e models.Entity, kind models.OperationKind, maxRetries int) {
	t.Helper()
	payload, err := models.EncodeEntity(e)
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(context.Background(), &models.SyncOperation{
		ObjectID:   e.Meta().ID,
		ObjectType: e.ObjectType(),
		Operation:  kind,
		Payload:    payload,
		Priority:   models.PriorityHigh,
		Version:    e.Meta().Version,
		MaxRetries: maxRetries,
	}))
}

func TestCycleConfirmsPushedCreate(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			require.Len(t, req.Operations, 1)
			assert.Equal(t, "token-1", accessToken)
			assert.NotEmpty(t, req.ClientID)
			assert.Nil(t, req.Operations[0].IfMatchVersion, "creates carry no precondition")
			return &api.BatchSyncResponse{Results: []api.OperationResult{
				{ObjectID: req.Operations[0].ObjectID, Status: api.ResultSuccess, NewVersion: 1},
			}}, nil
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := &models.Task{
		SyncMeta: models.SyncMeta{ID: "task-1", OwnerID: "user-1"},
		Title:    "Write launch plan",
		Status:   models.WorkStatusNotStarted,
	}
	require.NoError(t, store.CreateObject(ctx, task))
	enqueueFor(t, store, task, models.OperationCreate, 3)

	require.NoError(t, c.cycle(ctx))

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusClean, got.Meta().SyncStatus)
	assert.EqualValues(t, 1, got.Meta().Version)
	assert.EqualValues(t, 1, got.Meta().LocalVersion, "local mutation counter survives sync")

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	entries, err := store.Tail(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Synced)

	status := c.Status(ctx)
	assert.True(t, status.IsOnline)
	assert.False(t, status.LastSyncAt.IsZero())
	assert.Empty(t, status.LastError)
	assert.Equal(t, 1, status.Total)
}

func TestCyclePushSendsVersionPrecondition(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			require.Len(t, req.Operations, 1)
			require.NotNil(t, req.Operations[0].IfMatchVersion)
			assert.EqualValues(t, 3, *req.Operations[0].IfMatchVersion)
			return &api.BatchSyncResponse{Results: []api.OperationResult{
				{ObjectID: req.Operations[0].ObjectID, Status: api.ResultSuccess, NewVersion: 4},
			}}, nil
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Progress = 60
		return nil
	})
	enqueueFor(t, store, task, models.OperationUpdate, 3)

	require.NoError(t, c.cycle(ctx))

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, got.Meta().Version)
	assert.Equal(t, models.SyncStatusClean, got.Meta().SyncStatus)
}

// An edit that lands while its object's previous snapshot is on the wire
// coalesces into the same queue slot. The push confirmation must not erase
// that newer work: the object stays dirty and the slot is rebased onto the
// version the server just assigned.
func TestCycleKeepsEditMadeDuringPush(t *testing.T) {
	var c *Coordinator
	var store *boltdb.Storage
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			require.Len(t, req.Operations, 1)

			// a second edit arrives while the call is in flight
			edited, err := store.UpdateLocal(ctx, models.ObjectTypeTask, "task-1", func(e models.Entity) error {
				e.(*models.Task).Title = "edited while in flight"
				return nil
			})
			require.NoError(t, err)
			enqueueFor(t, store, edited, models.OperationUpdate, 3)

			return &api.BatchSyncResponse{Results: []api.OperationResult{
				{ObjectID: "task-1", Status: api.ResultSuccess, NewVersion: 4},
			}}, nil
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store = newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Progress = 60
		return nil
	})
	pushedSnapshot, err := models.EncodeEntity(task)
	require.NoError(t, err)
	enqueueFor(t, store, task, models.OperationUpdate, 3)

	require.NoError(t, c.cycle(ctx))

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "edited while in flight", got.(*models.Task).Title)
	assert.Equal(t, models.SyncStatusDirty, got.Meta().SyncStatus, "the newer edit still needs a push")
	assert.EqualValues(t, 4, got.Meta().Version)
	assert.EqualValues(t, 2, got.Meta().LocalVersion)

	pending, err := store.Pending(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.OperationUpdate, pending.Operation)
	assert.EqualValues(t, 4, pending.Version, "the slot is rebased onto the accepted version")

	// the server later echoes the accepted (older) snapshot through delta
	// sync; the local edit must survive the merge
	require.NoError(t, c.applyChange(ctx, api.DeltaChange{
		ObjectID:   "task-1",
		ObjectType: "task",
		Operation:  api.OpUpdate,
		Data:       pushedSnapshot,
		Version:    4,
		Timestamp:  500,
	}))

	got, err = store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "edited while in flight", got.(*models.Task).Title)

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// A failed batch for one object type must not strand the types queued
// behind it: operations that were never handed to the server stay dirty and
// due, not syncing.
func TestCyclePushFailureLeavesLaterGroupsDirty(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return nil, errs.Network("POST /api/v1/sync/batch", errors.New("connection refused"))
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	goal := &models.Goal{
		SyncMeta: models.SyncMeta{ID: "goal-1", OwnerID: "user-1"},
		Title:    "Run a marathon",
		Status:   models.WorkStatusNotStarted,
	}
	task := &models.Task{
		SyncMeta: models.SyncMeta{ID: "task-1", OwnerID: "user-1"},
		Title:    "Buy running shoes",
		Status:   models.WorkStatusNotStarted,
	}
	require.NoError(t, store.CreateObject(ctx, goal))
	require.NoError(t, store.CreateObject(ctx, task))
	enqueueFor(t, store, goal, models.OperationCreate, 3)
	enqueueFor(t, store, task, models.OperationCreate, 3)

	err := c.cycle(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsNetwork(err))

	// goals batch first; the tasks batch was never dispatched
	for _, obj := range []struct {
		objectType models.ObjectType
		id         string
	}{
		{models.ObjectTypeGoal, "goal-1"},
		{models.ObjectTypeTask, "task-1"},
	} {
		got, err := store.GetObject(ctx, obj.objectType, obj.id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusDirty, got.Meta().SyncStatus, "%s must not stay syncing", obj.id)
	}

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "both operations survive for the next cycle")
}

func TestCycleResolvesPushConflictWithTextualMerge(t *testing.T) {
	remote := &models.Task{
		SyncMeta: models.SyncMeta{
			ID:        "task-1",
			OwnerID:   "user-1",
			UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Version:   7,
		},
		Title:       "Write launch plan",
		Description: "remote budget section",
		Status:      models.WorkStatusInProgress,
		Progress:    40,
	}
	remoteData, err := models.EncodeEntity(remote)
	require.NoError(t, err)

	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return &api.BatchSyncResponse{Results: []api.OperationResult{
				{ObjectID: "task-1", Status: api.ResultConflict, NewVersion: 7, ServerData: remoteData},
			}}, nil
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Description = "local outline draft"
		return nil
	})
	enqueueFor(t, store, task, models.OperationUpdate, 3)

	require.NoError(t, c.cycle(ctx))

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	merged := got.(*models.Task)
	assert.Equal(t, models.SyncStatusClean, merged.SyncStatus)
	assert.EqualValues(t, 7, merged.Version)
	assert.Contains(t, merged.Description, "local outline draft")
	assert.Contains(t, merged.Description, resolver.IncomingChangesMarker)
	assert.Contains(t, merged.Description, "remote budget section")

	records, err := store.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].ManualReview)
	assert.False(t, records[0].Resolved)
	assert.Contains(t, records[0].DivergentFields, "description")

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "conflicted operation leaves the queue after resolution")
}

func TestCycleDropsOperationAfterExhaustedRetries(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return &api.BatchSyncResponse{Results: []api.OperationResult{
				{ObjectID: "task-1", Status: api.ResultError, ErrorMessage: "persistent validation failure"},
			}}, nil
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Progress = 60
		return nil
	})
	enqueueFor(t, store, task, models.OperationUpdate, 0)

	require.NoError(t, c.cycle(ctx))

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "exhausted operation is removed for good")

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusDirty, got.Meta().SyncStatus, "unsynced edit stays visible locally")

	status := c.Status(ctx)
	assert.Contains(t, status.LastError, "dropped")
	assert.Equal(t, 1, status.Total)
}

func TestCyclePullAppliesRemoteCreate(t *testing.T) {
	goal := &models.Goal{
		SyncMeta: models.SyncMeta{ID: "goal-1", OwnerID: "user-1", Version: 2},
		Title:    "Run a marathon",
		Status:   models.WorkStatusInProgress,
	}
	goalData, err := models.EncodeEntity(goal)
	require.NoError(t, err)

	client := &httpapi.ClientAPIMock{
		DeltaSyncFunc: func(ctx context.Context, accessToken string, since int64) (*api.DeltaSyncResponse, error) {
			if since >= 111 {
				return &api.DeltaSyncResponse{CurrentTimestamp: since}, nil
			}
			return &api.DeltaSyncResponse{
				Changes: []api.DeltaChange{
					{ObjectID: "goal-1", ObjectType: "goal", Operation: api.OpCreate, Data: goalData, Version: 2, Timestamp: 111},
				},
				CurrentTimestamp: 111,
			}, nil
		},
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, c.cycle(ctx))

	got, err := store.GetObject(ctx, models.ObjectTypeGoal, "goal-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusClean, got.Meta().SyncStatus)
	assert.EqualValues(t, 2, got.Meta().Version)

	checkpoint, err := store.GetCheckpoint(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 111, checkpoint)

	// the next cycle resumes from the saved checkpoint
	require.NoError(t, c.cycle(ctx))
	calls := client.DeltaSyncCalls()
	require.Len(t, calls, 2)
	assert.EqualValues(t, 111, calls[1].Since)
}

func TestCyclePullFollowsPaging(t *testing.T) {
	page := func(id string, ts int64, hasMore bool) *api.DeltaSyncResponse {
		goal := &models.Goal{SyncMeta: models.SyncMeta{ID: id, OwnerID: "user-1"}, Title: id}
		data, _ := models.EncodeEntity(goal)
		return &api.DeltaSyncResponse{
			Changes: []api.DeltaChange{
				{ObjectID: id, ObjectType: "goal", Operation: api.OpCreate, Data: data, Version: 1, Timestamp: ts},
			},
			CurrentTimestamp: ts,
			HasMore:          hasMore,
		}
	}
	client := &httpapi.ClientAPIMock{
		DeltaSyncFunc: func(ctx context.Context, accessToken string, since int64) (*api.DeltaSyncResponse, error) {
			switch since {
			case 0:
				return page("goal-1", 100, true), nil
			case 100:
				return page("goal-2", 200, false), nil
			default:
				return &api.DeltaSyncResponse{CurrentTimestamp: since}, nil
			}
		},
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	require.NoError(t, c.cycle(ctx))

	require.Len(t, client.DeltaSyncCalls(), 2)
	for _, id := range []string{"goal-1", "goal-2"} {
		_, err := store.GetObject(ctx, models.ObjectTypeGoal, id)
		require.NoError(t, err)
	}
	checkpoint, err := store.GetCheckpoint(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 200, checkpoint)
}

func TestCyclePullResolvesDivergenceAndCompletes(t *testing.T) {
	remote := &models.Task{
		SyncMeta: models.SyncMeta{
			ID:        "task-1",
			OwnerID:   "user-1",
			UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Version:   5,
		},
		Title:    "Write launch plan v2",
		Status:   models.WorkStatusInProgress,
		Progress: 100,
	}
	remoteData, err := models.EncodeEntity(remote)
	require.NoError(t, err)

	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			results := make([]api.OperationResult, 0, len(req.Operations))
			for _, op := range req.Operations {
				results = append(results, api.OperationResult{ObjectID: op.ObjectID, Status: api.ResultSuccess, NewVersion: op.Version + 1})
			}
			return &api.BatchSyncResponse{Results: results}, nil
		},
		DeltaSyncFunc: func(ctx context.Context, accessToken string, since int64) (*api.DeltaSyncResponse, error) {
			if since >= 300 {
				return &api.DeltaSyncResponse{CurrentTimestamp: since}, nil
			}
			return &api.DeltaSyncResponse{
				Changes: []api.DeltaChange{
					{ObjectID: "task-1", ObjectType: "task", Operation: api.OpUpdate, Data: remoteData, Version: 5, Timestamp: 300},
				},
				CurrentTimestamp: 300,
			}, nil
		},
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Progress = 100
		return nil
	})
	enqueueFor(t, store, task, models.OperationUpdate, 3)

	// pull only: queue has the op but the pull sees the divergence first
	require.NoError(t, c.pull(ctx))

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	merged := got.(*models.Task)
	assert.Equal(t, models.WorkStatusCompleted, merged.Status, "full progress completes the task")
	require.NotNil(t, merged.CompletedAt)
	assert.Equal(t, models.SyncStatusDirty, merged.SyncStatus, "rebased edit still needs a push")

	records, err := store.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	pending, err := store.Pending(ctx, "task-1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, pending.Version, "queued op rebases onto the server version")
}

func TestCyclePullDeleteWinsOverLocalEdit(t *testing.T) {
	deletedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	remote := &models.Task{
		SyncMeta: models.SyncMeta{
			ID:        "task-1",
			OwnerID:   "user-1",
			UpdatedAt: deletedAt,
			DeletedAt: &deletedAt,
			Version:   4,
		},
		Title: "Write launch plan",
	}
	remoteData, err := models.EncodeEntity(remote)
	require.NoError(t, err)

	client := &httpapi.ClientAPIMock{
		DeltaSyncFunc: func(ctx context.Context, accessToken string, since int64) (*api.DeltaSyncResponse, error) {
			if since >= 400 {
				return &api.DeltaSyncResponse{CurrentTimestamp: since}, nil
			}
			return &api.DeltaSyncResponse{
				Changes: []api.DeltaChange{
					{ObjectID: "task-1", ObjectType: "task", Operation: api.OpDelete, Data: remoteData, Version: 4, Timestamp: 400},
				},
				CurrentTimestamp: 400,
			}, nil
		},
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Title = "concurrent local edit"
		return nil
	})
	enqueueFor(t, store, task, models.OperationUpdate, 3)

	require.NoError(t, c.pull(ctx))

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	assert.True(t, got.Meta().Deleted())
	assert.Equal(t, models.SyncStatusClean, got.Meta().SyncStatus)

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "pending edit is superseded by the remote delete")
}

func TestCycleNetworkFailureKeepsOperationQueued(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return nil, errs.Network("POST /api/v1/sync/batch", errors.New("connection refused"))
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Progress = 60
		return nil
	})
	enqueueFor(t, store, task, models.OperationUpdate, 3)

	err := c.cycle(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsNetwork(err))
	assert.Len(t, client.BatchSyncCalls(), 3, "bounded retry before giving up")

	got, err := store.GetObject(ctx, models.ObjectTypeTask, "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusDirty, got.Meta().SyncStatus)

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "operation survives for the next cycle")

	status := c.Status(ctx)
	assert.False(t, status.IsOnline)
	assert.NotEmpty(t, status.LastError)
}

func TestCycleAuthErrorPausesSync(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		BatchSyncFunc: func(ctx context.Context, accessToken string, req api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
			return nil, errs.Auth("POST /api/v1/sync/batch", errors.New("token expired"))
		},
		DeltaSyncFunc: emptyDelta,
	}
	c, store := newTestCoordinator(t, client)
	ctx := context.Background()

	task := seedTask(t, store, 3, func(task *models.Task) error {
		task.Progress = 60
		return nil
	})
	enqueueFor(t, store, task, models.OperationUpdate, 3)

	err := c.cycle(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
	assert.Len(t, client.BatchSyncCalls(), 1, "auth failures are not retried")
	assert.True(t, c.authPaused.Load())

	// the operation is requeued without a retry penalty
	pending, err := store.Pending(ctx, "task-1")
	require.NoError(t, err)
	assert.Zero(t, pending.RetryCount)

	c.Resume()
	assert.False(t, c.authPaused.Load())
}

func TestSyncNowRunsThroughGate(t *testing.T) {
	client := &httpapi.ClientAPIMock{
		DeltaSyncFunc: emptyDelta,
	}
	c, _ := newTestCoordinator(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = c.Run(ctx)
	}()

	require.NoError(t, c.SyncNow(ctx))
	assert.NotEmpty(t, client.DeltaSyncCalls())

	cancel()
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestStatusSubscribe(t *testing.T) {
	client := &httpapi.ClientAPIMock{DeltaSyncFunc: emptyDelta}
	c, _ := newTestCoordinator(t, client)

	updates, cancel := c.Subscribe()
	defer cancel()

	first := <-updates
	assert.False(t, first.IsSyncing, "initial snapshot arrives on subscribe")

	c.status.update(func(s *Status) { s.Pending = 3 })
	got := <-updates
	assert.Equal(t, 3, got.Pending)
}
