// Package sync drives synchronization between the local store and the
// server: a single supervising goroutine pushes queued operations, pulls
// remote deltas, resolves divergence and broadcasts engine status.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	httpapi "github.com/avoronov/goalkeeper/internal/client/api"
	"github.com/avoronov/goalkeeper/internal/client/resolver"
	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/errs"
	"github.com/avoronov/goalkeeper/internal/models"
	"github.com/avoronov/goalkeeper/pkg/api"
)

// TokenSource supplies a valid access token for authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Config tunes the coordinator loop.
type Config struct {
	PushBatchSize int
	PullInterval  time.Duration
	RetryBase     time.Duration
	PushAttempts  uint64
	PullAttempts  uint64
}

func (c Config) withDefaults() Config {
	if c.PushBatchSize <= 0 {
		c.PushBatchSize = 50
	}
	if c.PullInterval <= 0 {
		c.PullInterval = 30 * time.Second
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.PushAttempts == 0 {
		c.PushAttempts = 3
	}
	if c.PullAttempts == 0 {
		c.PullAttempts = 2
	}
	return c
}

// Deps are the collaborators the coordinator works against.
type Deps struct {
	Store     storage.ObjectStore
	Queue     storage.SyncQueue
	Conflicts storage.ConflictStorage
	Changes   storage.ChangeLog
	Metadata  storage.MetadataStorage
	Client    httpapi.ClientAPI
	Tokens    TokenSource
	Logger    *slog.Logger
}

// Coordinator owns the sync loop. All push and pull work happens on the
// goroutine inside Run, so at most one cycle is in flight at any time.
type Coordinator struct {
	store     storage.ObjectStore
	queue     storage.SyncQueue
	conflicts storage.ConflictStorage
	changes   storage.ChangeLog
	metadata  storage.MetadataStorage
	client    httpapi.ClientAPI
	tokens    TokenSource
	logger    *slog.Logger
	cfg       Config

	status     *statusBroadcaster
	force      chan chan error
	authPaused atomic.Bool
}

// NewCoordinator wires a coordinator. Run must be called to start the loop.
func NewCoordinator(deps Deps, cfg Config) *Coordinator {
	return &Coordinator{
		store:     deps.Store,
		queue:     deps.Queue,
		conflicts: deps.Conflicts,
		changes:   deps.Changes,
		metadata:  deps.Metadata,
		client:    deps.Client,
		tokens:    deps.Tokens,
		logger:    deps.Logger,
		cfg:       cfg.withDefaults(),
		status:    newStatusBroadcaster(),
		force:     make(chan chan error, 1),
	}
}

// Status returns the latest engine snapshot.
func (c *Coordinator) Status(ctx context.Context) Status {
	c.refreshCounts(ctx)
	return c.status.Current()
}

// Subscribe returns a stream of status snapshots and a cancel function.
func (c *Coordinator) Subscribe() (<-chan Status, func()) {
	return c.status.Subscribe()
}

// ForceSync asks the loop to run a cycle as soon as possible. Signals
// coalesce: forcing an already-forced loop is a no-op.
func (c *Coordinator) ForceSync() {
	select {
	case c.force <- nil:
	default:
	}
}

// SyncNow runs one push+pull cycle through the run gate and waits for its
// result. Run must be active.
func (c *Coordinator) SyncNow(ctx context.Context) error {
	done := make(chan error, 1)
	select {
	case c.force <- done:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resume lifts an auth pause after re-login and schedules a cycle.
func (c *Coordinator) Resume() {
	c.authPaused.Store(false)
	c.ForceSync()
}

// Run executes the sync loop until ctx is cancelled. The periodic ticker
// skips cycles while sync is paused on an auth failure; forced cycles always
// attempt.
func (c *Coordinator) Run(ctx context.Context) error {
	c.refreshCounts(ctx)

	ticker := time.NewTicker(c.cfg.PullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.authPaused.Load() {
				continue
			}
			if err := c.cycle(ctx); err != nil {
				c.logger.Warn("sync cycle failed", "error", err)
			}
		case done := <-c.force:
			err := c.cycle(ctx)
			if err != nil {
				c.logger.Warn("forced sync cycle failed", "error", err)
			}
			if done != nil {
				done <- err
			}
		}
	}
}

// cycle runs one full push+pull pass and updates the status snapshot.
func (c *Coordinator) cycle(ctx context.Context) error {
	c.status.update(func(s *Status) { s.IsSyncing = true })
	defer c.status.update(func(s *Status) { s.IsSyncing = false })

	err := c.push(ctx)
	if err == nil {
		err = c.pull(ctx)
	}

	c.refreshCounts(ctx)
	switch {
	case err == nil:
		c.authPaused.Store(false)
		c.status.update(func(s *Status) {
			s.IsOnline = true
			s.LastSyncAt = time.Now()
			s.LastError = ""
		})
	case errs.IsAuth(err):
		c.authPaused.Store(true)
		c.status.update(func(s *Status) { s.LastError = err.Error() })
	case errs.IsNetwork(err):
		c.status.update(func(s *Status) {
			s.IsOnline = false
			s.LastError = err.Error()
		})
	default:
		c.status.update(func(s *Status) { s.LastError = err.Error() })
	}
	return err
}

// push drains one batch from the queue, grouped per object type, and applies
// the server's per-operation verdicts.
func (c *Coordinator) push(ctx context.Context) error {
	ops, err := c.queue.DequeueBatch(ctx, c.cfg.PushBatchSize)
	if err != nil {
		return fmt.Errorf("failed to dequeue batch: %w", err)
	}
	if len(ops) == 0 {
		return nil
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	clientID, err := c.metadata.ClientID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load client id: %w", err)
	}

	byType := make(map[models.ObjectType][]*models.SyncOperation)
	for _, op := range ops {
		byType[op.ObjectType] = append(byType[op.ObjectType], op)
	}

	for _, objectType := range models.ObjectTypes {
		group := byType[objectType]
		if len(group) == 0 {
			continue
		}
		if err := c.pushGroup(ctx, token, clientID, group); err != nil {
			return err
		}
	}
	return nil
}

// pushGroup submits one per-type batch. Operations are marked syncing only
// here, right before their own dispatch, so a failure in an earlier group
// never strands a later group in the syncing state.
func (c *Coordinator) pushGroup(ctx context.Context, token, clientID string, ops []*models.SyncOperation) error {
	req := api.BatchSyncRequest{
		ClientID:   clientID,
		Operations: make([]api.BatchOperation, 0, len(ops)),
	}
	for _, op := range ops {
		batchOp := api.BatchOperation{
			ObjectID:   op.ObjectID,
			ObjectType: string(op.ObjectType),
			Operation:  string(op.Operation),
			Data:       op.Payload,
			Version:    op.Version,
		}
		if op.Operation != models.OperationCreate {
			version := op.Version
			batchOp.IfMatchVersion = &version
		}
		req.Operations = append(req.Operations, batchOp)
	}

	for _, op := range ops {
		if err := c.markStatus(ctx, op, models.SyncStatusSyncing); err != nil {
			return err
		}
	}

	var resp *api.BatchSyncResponse
	err := c.withRetry(ctx, c.cfg.PushAttempts, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.client.BatchSync(ctx, token, req)
		return callErr
	})
	if err != nil {
		// nothing reached the server as far as we know: requeue
		for _, op := range ops {
			c.revertToDirty(ctx, op)
			if !errs.IsAuth(err) {
				c.rescheduleOp(ctx, op)
			}
		}
		return err
	}

	if len(resp.Results) != len(ops) {
		for _, op := range ops {
			c.revertToDirty(ctx, op)
		}
		return fmt.Errorf("server returned %d results for %d operations", len(resp.Results), len(ops))
	}
	for i, result := range resp.Results {
		if err := c.applyResult(ctx, ops[i], result); err != nil {
			return err
		}
	}
	return nil
}

// applyResult processes one server verdict for a pushed operation.
func (c *Coordinator) applyResult(ctx context.Context, op *models.SyncOperation, result api.OperationResult) error {
	switch result.Status {
	case api.ResultSuccess:
		confirmed, err := c.confirm(ctx, op, result.NewVersion)
		if err != nil {
			return err
		}
		if confirmed {
			if err := c.queue.Remove(ctx, op.ID); err != nil {
				return fmt.Errorf("failed to remove confirmed operation: %w", err)
			}
		} else if err := c.rebasePending(ctx, op, result.NewVersion); err != nil {
			return err
		}
		c.appendChange(ctx, op.ObjectID, op.ObjectType, op.Operation, op.Payload)
		c.status.update(func(s *Status) { s.Total++ })
		return nil

	case api.ResultConflict:
		if err := c.resolveConflict(ctx, op, result); err != nil {
			return err
		}
		if err := c.queue.Remove(ctx, op.ID); err != nil {
			return fmt.Errorf("failed to remove conflicted operation: %w", err)
		}
		c.status.update(func(s *Status) { s.Total++ })
		return nil

	default: // transient server-side error for this operation
		c.revertToDirty(ctx, op)
		c.rescheduleOp(ctx, op)
		return nil
	}
}

// confirm records the server version for a pushed operation. The pushed
// payload carries the LocalVersion it was built from; an edit made while the
// call was in flight raised the stored counter past it, in which case the
// object keeps its dirty flag and confirm reports false.
func (c *Coordinator) confirm(ctx context.Context, op *models.SyncOperation, version int64) (bool, error) {
	pushed, err := models.DecodeEntity(op.ObjectType, op.Payload)
	if err != nil {
		return false, fmt.Errorf("failed to decode pushed payload for %s %s: %w", op.ObjectType, op.ObjectID, err)
	}

	confirmed, err := c.store.ConfirmSynced(ctx, op.ObjectType, op.ObjectID, version, pushed.Meta().LocalVersion)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to confirm %s %s: %w", op.ObjectType, op.ObjectID, err)
	}
	return confirmed, nil
}

// rebasePending keeps the queue slot for an object that mutated while its
// previous snapshot was being pushed. The server has accepted that snapshot,
// so the slot becomes an update against the freshly assigned version; a
// coalesced delete stays a delete.
func (c *Coordinator) rebasePending(ctx context.Context, op *models.SyncOperation, version int64) error {
	pending, err := c.queue.Pending(ctx, op.ObjectID)
	if err != nil {
		if errors.Is(err, storage.ErrOperationNotFound) {
			return nil
		}
		return err
	}

	kind := models.OperationUpdate
	if pending.Operation == models.OperationDelete {
		kind = models.OperationDelete
	}
	if err := c.queue.Rebase(ctx, pending.ID, kind, version); err != nil {
		return fmt.Errorf("failed to rebase pending operation for %s: %w", op.ObjectID, err)
	}
	return nil
}

// resolveConflict merges the local copy with the server's current data,
// records the divergence and applies the merged result locally.
func (c *Coordinator) resolveConflict(ctx context.Context, op *models.SyncOperation, result api.OperationResult) error {
	remote, err := models.DecodeEntity(op.ObjectType, result.ServerData)
	if err != nil {
		return fmt.Errorf("failed to decode server data for %s: %w", op.ObjectID, err)
	}

	local, err := c.store.GetObject(ctx, op.ObjectType, op.ObjectID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// nothing local to merge, take the server copy
			return c.store.ApplyRemote(ctx, remote)
		}
		return err
	}

	return c.mergeDivergence(ctx, local, remote)
}

// mergeDivergence runs the resolver over a divergent pair, persists the
// conflict record and applies the merged entity as the new local truth.
func (c *Coordinator) mergeDivergence(ctx context.Context, local, remote models.Entity) error {
	objectType := local.ObjectType()
	localVersion := local.Meta().Version
	remoteVersion := remote.Meta().Version

	res, err := resolver.Resolve(objectType, local, remote, localVersion, remoteVersion)
	if err != nil {
		return fmt.Errorf("failed to resolve %s %s: %w", objectType, local.Meta().ID, err)
	}

	localSnapshot, err := models.EncodeEntity(local)
	if err != nil {
		return err
	}
	remoteSnapshot, err := models.EncodeEntity(remote)
	if err != nil {
		return err
	}

	record := &models.ConflictRecord{
		ID:              uuid.New().String(),
		ObjectID:        local.Meta().ID,
		ObjectType:      objectType,
		LocalSnapshot:   localSnapshot,
		RemoteSnapshot:  remoteSnapshot,
		DivergentFields: res.DivergentFields,
		Strategy:        res.PrimaryStrategy(),
		LocalVersion:    localVersion,
		RemoteVersion:   remoteVersion,
		ManualReview:    res.RequiresManualReview,
		Resolved:        !res.RequiresManualReview,
		CreatedAt:       time.Now(),
	}
	if record.Resolved {
		record.ResolvedAt = record.CreatedAt
	}
	if err := c.conflicts.SaveConflict(ctx, record); err != nil {
		return fmt.Errorf("failed to save conflict record: %w", err)
	}

	if err := c.store.ApplyRemote(ctx, res.Merged); err != nil {
		return fmt.Errorf("failed to apply merged %s %s: %w", objectType, local.Meta().ID, err)
	}

	mergedPayload, err := models.EncodeEntity(res.Merged)
	if err != nil {
		return err
	}
	c.appendChange(ctx, local.Meta().ID, objectType, models.OperationUpdate, mergedPayload)

	c.logger.Info("resolved conflict",
		"object_type", objectType,
		"object_id", local.Meta().ID,
		"fields", resolver.FieldSummary(res.Log),
		"manual_review", res.RequiresManualReview)
	return nil
}

// pull fetches remote deltas page by page and folds them into the store.
func (c *Coordinator) pull(ctx context.Context) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	since, err := c.metadata.GetCheckpoint(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	for {
		var resp *api.DeltaSyncResponse
		err := c.withRetry(ctx, c.cfg.PullAttempts, func(ctx context.Context) error {
			var callErr error
			resp, callErr = c.client.DeltaSync(ctx, token, since)
			return callErr
		})
		if err != nil {
			return err
		}

		for _, change := range resp.Changes {
			if err := c.applyChange(ctx, change); err != nil {
				return err
			}
		}

		if err := c.metadata.SaveCheckpoint(ctx, resp.CurrentTimestamp); err != nil {
			return fmt.Errorf("failed to save checkpoint: %w", err)
		}
		since = resp.CurrentTimestamp

		if !resp.HasMore {
			return nil
		}
	}
}

// applyChange folds one remote change into the local store.
func (c *Coordinator) applyChange(ctx context.Context, change api.DeltaChange) error {
	objectType := models.ObjectType(change.ObjectType)
	remote, err := models.DecodeEntity(objectType, change.Data)
	if err != nil {
		return fmt.Errorf("failed to decode delta for %s %s: %w", change.ObjectType, change.ObjectID, err)
	}
	remote.Meta().Version = change.Version

	local, err := c.store.GetObject(ctx, objectType, change.ObjectID)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return err
		}
		if change.Operation == api.OpDelete {
			return nil // never seen locally, nothing to tombstone
		}
		return c.store.ApplyRemote(ctx, remote)
	}

	// deletes win over any concurrent local edit
	if change.Operation == api.OpDelete {
		if pending, err := c.queue.Pending(ctx, change.ObjectID); err == nil && pending != nil {
			if err := c.queue.Remove(ctx, pending.ID); err != nil {
				return fmt.Errorf("failed to drop superseded operation: %w", err)
			}
		}
		return c.store.ApplyRemote(ctx, remote)
	}

	// a local tombstone is monotonic: a remote update never revives
	if local.Meta().Deleted() && remote.Meta().DeletedAt == nil {
		remote.Meta().DeletedAt = local.Meta().DeletedAt
	}

	switch local.Meta().SyncStatus {
	case models.SyncStatusClean:
		return c.store.ApplyRemote(ctx, remote)
	default:
		// local unsynced edits diverge from the incoming change
		if err := c.mergeDivergence(ctx, local, remote); err != nil {
			return err
		}
		return c.refreshPendingOp(ctx, local, remote.Meta().Version)
	}
}

// refreshPendingOp rebases a queued operation for the object onto the merged
// copy so the eventual push carries the post-merge payload and version.
func (c *Coordinator) refreshPendingOp(ctx context.Context, local models.Entity, remoteVersion int64) error {
	pending, err := c.queue.Pending(ctx, local.Meta().ID)
	if err != nil {
		if errors.Is(err, storage.ErrOperationNotFound) {
			return nil
		}
		return err
	}

	merged, err := c.store.GetObject(ctx, local.ObjectType(), local.Meta().ID)
	if err != nil {
		return err
	}
	payload, err := models.EncodeEntity(merged)
	if err != nil {
		return err
	}

	if err := c.store.MarkSyncStatus(ctx, local.ObjectType(), local.Meta().ID, models.SyncStatusDirty); err != nil {
		return err
	}
	return c.queue.Enqueue(ctx, &models.SyncOperation{
		ID:         uuid.New().String(),
		ObjectID:   pending.ObjectID,
		ObjectType: pending.ObjectType,
		Operation:  pending.Operation,
		Payload:    payload,
		Priority:   pending.Priority,
		Version:    remoteVersion,
		MaxRetries: pending.MaxRetries,
		CreatedAt:  time.Now(),
	})
}

// withRetry retries fn on transient network failures with exponential
// backoff; auth and permanent errors abort immediately.
func (c *Coordinator) withRetry(ctx context.Context, attempts uint64, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(c.cfg.RetryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && errs.IsNetwork(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Coordinator) markStatus(ctx context.Context, op *models.SyncOperation, status models.SyncStatus) error {
	err := c.store.MarkSyncStatus(ctx, op.ObjectType, op.ObjectID, status)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("failed to mark %s %s %s: %w", op.ObjectType, op.ObjectID, status, err)
	}
	return nil
}

func (c *Coordinator) revertToDirty(ctx context.Context, op *models.SyncOperation) {
	if err := c.markStatus(ctx, op, models.SyncStatusDirty); err != nil {
		c.logger.Warn("failed to revert sync status", "object_id", op.ObjectID, "error", err)
	}
}

// rescheduleOp pushes an operation's next attempt out with backoff and
// surfaces it on the status stream if the queue drops it for good.
func (c *Coordinator) rescheduleOp(ctx context.Context, op *models.SyncOperation) {
	dropped, err := c.queue.RescheduleWithBackoff(ctx, op.ID)
	if err != nil {
		c.logger.Warn("failed to reschedule operation", "op_id", op.ID, "error", err)
		return
	}
	if dropped == nil {
		return
	}
	c.logger.Error("operation dropped after exhausting retries",
		"op_id", dropped.ID,
		"object_type", dropped.ObjectType,
		"object_id", dropped.ObjectID,
		"retries", dropped.RetryCount)
	c.status.update(func(s *Status) {
		s.Total++
		s.LastError = fmt.Sprintf("%s %s %s dropped after %d attempts",
			dropped.Operation, dropped.ObjectType, dropped.ObjectID, dropped.RetryCount)
	})
}

func (c *Coordinator) appendChange(ctx context.Context, objectID string, objectType models.ObjectType, op models.OperationKind, payload []byte) {
	entry := &models.ChangeLogEntry{
		Timestamp:  time.Now(),
		ObjectID:   objectID,
		ObjectType: objectType,
		Operation:  op,
		NewPayload: payload,
		Synced:     true,
	}
	if err := c.changes.Append(ctx, entry); err != nil {
		c.logger.Warn("failed to append change log entry", "object_id", objectID, "error", err)
	}
}

func (c *Coordinator) refreshCounts(ctx context.Context) {
	pending, err := c.queue.PendingCount(ctx)
	if err != nil {
		c.logger.Warn("failed to count pending operations", "error", err)
		return
	}
	perType, err := c.queue.CountsByType(ctx)
	if err != nil {
		c.logger.Warn("failed to count operations per type", "error", err)
		return
	}
	c.status.update(func(s *Status) {
		s.Pending = pending
		s.PerType = perType
	})
}
