package managers

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/client/storage/boltdb"
	"github.com/avoronov/goalkeeper/internal/errs"
	"github.com/avoronov/goalkeeper/internal/models"
)

func newTestDeps(t *testing.T) (Deps, *boltdb.Storage, *int) {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "managers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	notified := 0
	deps := Deps{
		Store:   store,
		Queue:   store,
		Changes: store,
		Notify:  func() { notified++ },
	}
	return deps, store, &notified
}

func TestTaskCreateQueuesHighPriorityOperation(t *testing.T) {
	deps, store, notified := newTestDeps(t)
	m := NewTaskManager(deps)
	ctx := context.Background()

	task := &models.Task{Title: "Write launch plan"}
	require.NoError(t, m.Create(ctx, "user-1", task))

	assert.NotEmpty(t, task.ID, "id is generated when absent")
	assert.Equal(t, "user-1", task.OwnerID)
	assert.Equal(t, models.WorkStatusNotStarted, task.Status)

	got, err := m.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusDirty, got.SyncStatus)
	assert.EqualValues(t, 1, got.LocalVersion)

	op, err := store.Pending(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationCreate, op.Operation)
	assert.Equal(t, models.PriorityHigh, op.Priority)

	entries, err := store.Tail(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OperationCreate, entries[0].Operation)
	assert.False(t, entries[0].Synced)

	assert.Equal(t, 1, *notified)
}

func TestTaskCreateRejectsInvalidPayload(t *testing.T) {
	deps, store, _ := newTestDeps(t)
	m := NewTaskManager(deps)
	ctx := context.Background()

	err := m.Create(ctx, "user-1", &models.Task{Title: "   "})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing is stored or queued on validation failure")
}

func TestTaskUpdateCoalescesWithPendingCreate(t *testing.T) {
	deps, store, _ := newTestDeps(t)
	m := NewTaskManager(deps)
	ctx := context.Background()

	task := &models.Task{Title: "Write launch plan"}
	require.NoError(t, m.Create(ctx, "user-1", task))

	notes := "kickoff next week"
	_, err := m.Update(ctx, task.ID, TaskPatch{Notes: &notes})
	require.NoError(t, err)

	op, err := store.Pending(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationCreate, op.Operation,
		"server never saw the object, the slot stays a create")
	assert.Contains(t, string(op.Payload), "kickoff next week")

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTaskPatchPriorities(t *testing.T) {
	status := models.WorkStatusPaused
	title := "new title"

	assert.Equal(t, models.PriorityHigh, TaskPatch{Status: &status}.priority())
	assert.Equal(t, models.PriorityNormal, TaskPatch{Title: &title}.priority())
	assert.Equal(t, models.PriorityLow, TaskPatch{Tags: []string{"later"}}.priority())
}

func TestTaskUpdateProgressTransitions(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewTaskManager(deps)
	ctx := context.Background()

	task := &models.Task{Title: "Write launch plan"}
	require.NoError(t, m.Create(ctx, "user-1", task))

	got, err := m.UpdateProgress(ctx, task.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusInProgress, got.Status, "starting work leaves not_started")
	assert.Nil(t, got.CompletedAt)

	got, err = m.UpdateProgress(ctx, task.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	got, err = m.UpdateProgress(ctx, task.ID, 80)
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusInProgress, got.Status, "losing progress reopens the task")
	assert.Nil(t, got.CompletedAt)

	_, err = m.UpdateProgress(ctx, task.ID, 140)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestTaskDeleteSupersedesPendingUpdate(t *testing.T) {
	deps, store, _ := newTestDeps(t)
	m := NewTaskManager(deps)
	ctx := context.Background()

	task := &models.Task{Title: "Write launch plan"}
	require.NoError(t, m.Create(ctx, "user-1", task))
	require.NoError(t, m.Delete(ctx, task.ID))

	got, err := m.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted(), "soft delete keeps the object readable by id")

	live, err := m.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, live, "soft-deleted objects leave list results")

	op, err := store.Pending(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationDelete, op.Operation)
}

func TestTaskListFilters(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewTaskManager(deps)
	ctx := context.Background()

	for _, spec := range []struct {
		title  string
		goalID string
		status models.WorkStatus
	}{
		{"task a", "goal-1", models.WorkStatusInProgress},
		{"task b", "goal-1", models.WorkStatusNotStarted},
		{"task c", "goal-2", models.WorkStatusInProgress},
	} {
		task := &models.Task{Title: spec.title, GoalID: spec.goalID, Status: spec.status}
		require.NoError(t, m.Create(ctx, "user-1", task))
	}

	byGoal, err := m.ListByGoal(ctx, "goal-1")
	require.NoError(t, err)
	assert.Len(t, byGoal, 2)

	inProgress, err := m.ListByStatus(ctx, "user-1", models.WorkStatusInProgress)
	require.NoError(t, err)
	assert.Len(t, inProgress, 2)

	other, err := m.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestGoalUpdateStatusStampsCompletion(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewGoalManager(deps)
	ctx := context.Background()

	goal := &models.Goal{Title: "Run a marathon"}
	require.NoError(t, m.Create(ctx, "user-1", goal))

	completed := models.WorkStatusCompleted
	got, err := m.Update(ctx, goal.ID, GoalPatch{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	paused := models.WorkStatusPaused
	got, err = m.Update(ctx, goal.ID, GoalPatch{Status: &paused})
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt, "leaving completed clears the stamp")
}

func TestLifeAreaSetDefaultClearsSiblings(t *testing.T) {
	deps, store, _ := newTestDeps(t)
	m := NewLifeAreaManager(deps)
	ctx := context.Background()

	health := &models.LifeArea{Name: "Health", IsDefault: true}
	career := &models.LifeArea{Name: "Career"}
	require.NoError(t, m.Create(ctx, "user-1", health))
	require.NoError(t, m.Create(ctx, "user-1", career))

	require.NoError(t, m.SetDefault(ctx, "user-1", career.ID))

	areas, err := m.List(ctx, "user-1")
	require.NoError(t, err)
	defaults := 0
	for _, area := range areas {
		if area.IsDefault {
			defaults++
			assert.Equal(t, career.ID, area.ID)
		}
	}
	assert.Equal(t, 1, defaults, "exactly one default area per owner")

	// both touched areas are queued for sync
	for _, id := range []string{health.ID, career.ID} {
		op, err := store.Pending(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, op)
	}
}

func TestLifeAreaListOrdersBySortOrder(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewLifeAreaManager(deps)
	ctx := context.Background()

	for _, area := range []*models.LifeArea{
		{Name: "Zulu", SortOrder: 1},
		{Name: "Alpha", SortOrder: 2},
		{Name: "Beta", SortOrder: 1},
	} {
		require.NoError(t, m.Create(ctx, "user-1", area))
	}

	areas, err := m.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, areas, 3)
	assert.Equal(t, "Beta", areas[0].Name)
	assert.Equal(t, "Zulu", areas[1].Name)
	assert.Equal(t, "Alpha", areas[2].Name)
}

func TestPersonalProfileUpsert(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewPersonalProfileManager(deps)
	ctx := context.Background()

	_, err := m.Get(ctx, "user-1")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)

	name := "Alice"
	created, err := m.Upsert(ctx, "user-1", PersonalProfilePatch{
		DisplayName: &name,
		Preferences: map[string]string{"theme": "dark"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", created.DisplayName)

	tz := "Europe/Lisbon"
	updated, err := m.Upsert(ctx, "user-1", PersonalProfilePatch{
		Timezone:    &tz,
		Preferences: map[string]string{"week_start": "monday"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "second upsert patches the same profile")
	assert.Equal(t, "Europe/Lisbon", updated.Timezone)
	assert.Equal(t, map[string]string{"theme": "dark", "week_start": "monday"}, updated.Preferences)
}

func TestAssistantProfileStyleMergesOnUpdate(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewAssistantProfileManager(deps)
	ctx := context.Background()

	profile := &models.AssistantProfile{Name: "Coach", Style: map[string]string{"verbosity": "short"}}
	require.NoError(t, m.Create(ctx, "user-1", profile))

	updated, err := m.Update(ctx, profile.ID, AssistantProfilePatch{
		Style: map[string]string{"humor": "dry"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"verbosity": "short", "humor": "dry"}, updated.Style)
}

func TestAttachmentsListByParent(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewMediaAttachmentManager(deps)
	ctx := context.Background()

	for _, attachment := range []*models.MediaAttachment{
		{FileName: "plan.pdf", MimeType: "application/pdf", ParentID: "goal-1", ParentType: models.ObjectTypeGoal},
		{FileName: "route.png", MimeType: "image/png", ParentID: "goal-1", ParentType: models.ObjectTypeGoal},
		{FileName: "notes.txt", MimeType: "text/plain", ParentID: "task-1", ParentType: models.ObjectTypeTask},
	} {
		require.NoError(t, m.Attach(ctx, "user-1", attachment))
	}

	got, err := m.ListByParent(ctx, models.ObjectTypeGoal, "goal-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	err = m.Attach(ctx, "user-1", &models.MediaAttachment{FileName: "bad", MimeType: "pdf"})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestAttachContentRecordsChecksum(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	m := NewMediaAttachmentManager(deps)
	ctx := context.Background()

	content := "minimal pdf body"
	attachment := &models.MediaAttachment{
		FileName:   "plan.pdf",
		MimeType:   "application/pdf",
		ParentID:   "goal-1",
		ParentType: models.ObjectTypeGoal,
	}
	require.NoError(t, m.AttachContent(ctx, "user-1", attachment, strings.NewReader(content)))

	got, err := m.Get(ctx, attachment.ID)
	require.NoError(t, err)
	assert.EqualValues(t, len(content), got.SizeBytes)
	assert.Len(t, got.Checksum, 64)

	assert.NoError(t, m.Verify(got, strings.NewReader(content)))
	assert.Error(t, m.Verify(got, strings.NewReader("tampered")))
}
