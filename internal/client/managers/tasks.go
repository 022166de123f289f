package managers

import (
	"context"
	"time"

	"github.com/avoronov/goalkeeper/internal/models"
)

// TaskManager is the typed surface for tasks.
type TaskManager struct {
	base
}

// NewTaskManager creates a task manager.
func NewTaskManager(deps Deps) *TaskManager {
	return &TaskManager{base: newBase(deps)}
}

// TaskPatch lists the fields an update may change. Nil fields are untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Notes       *string
	Status      *models.WorkStatus
	GoalID      *string
	ProjectID   *string
	Tags        []string
	DueDate     *time.Time
}

// Create stores a new task and queues it for sync.
func (m *TaskManager) Create(ctx context.Context, ownerID string, task *models.Task) error {
	if task.Status == "" {
		task.Status = models.WorkStatusNotStarted
	}
	return m.create(ctx, task, ownerID, models.PriorityHigh)
}

// Get returns a task by id, soft-deleted included.
func (m *TaskManager) Get(ctx context.Context, id string) (*models.Task, error) {
	e, err := m.store.GetObject(ctx, models.ObjectTypeTask, id)
	if err != nil {
		return nil, err
	}
	return e.(*models.Task), nil
}

// List returns the owner's live tasks.
func (m *TaskManager) List(ctx context.Context, ownerID string) ([]*models.Task, error) {
	return m.query(ctx, ownedBy(ownerID))
}

// ListByGoal returns live tasks attached to a goal.
func (m *TaskManager) ListByGoal(ctx context.Context, goalID string) ([]*models.Task, error) {
	return m.query(ctx, func(e models.Entity) bool {
		return e.(*models.Task).GoalID == goalID
	})
}

// ListByProject returns live tasks attached to a project.
func (m *TaskManager) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	return m.query(ctx, func(e models.Entity) bool {
		return e.(*models.Task).ProjectID == projectID
	})
}

// ListByStatus returns the owner's live tasks in the given status.
func (m *TaskManager) ListByStatus(ctx context.Context, ownerID string, status models.WorkStatus) ([]*models.Task, error) {
	return m.query(ctx, func(e models.Entity) bool {
		task := e.(*models.Task)
		return task.Status == status && (ownerID == "" || task.OwnerID == ownerID)
	})
}

// Update applies a patch with the usual priority classes.
func (m *TaskManager) Update(ctx context.Context, id string, patch TaskPatch) (*models.Task, error) {
	updated, err := m.update(ctx, models.ObjectTypeTask, id, patch.priority(), func(e models.Entity) error {
		task := e.(*models.Task)
		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Notes != nil {
			task.Notes = *patch.Notes
		}
		if patch.Status != nil {
			applyStatus(&task.Status, &task.CompletedAt, *patch.Status, m.now())
		}
		if patch.GoalID != nil {
			task.GoalID = *patch.GoalID
		}
		if patch.ProjectID != nil {
			task.ProjectID = *patch.ProjectID
		}
		if patch.Tags != nil {
			task.Tags = patch.Tags
		}
		if patch.DueDate != nil {
			task.DueDate = patch.DueDate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.Task), nil
}

// UpdateProgress sets progress and auto-transitions the status lifecycle.
func (m *TaskManager) UpdateProgress(ctx context.Context, id string, progress int) (*models.Task, error) {
	updated, err := m.update(ctx, models.ObjectTypeTask, id, models.PriorityHigh, func(e models.Entity) error {
		task := e.(*models.Task)
		applyProgress(&task.Status, &task.Progress, &task.CompletedAt, progress, m.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.Task), nil
}

// Complete marks the task done.
func (m *TaskManager) Complete(ctx context.Context, id string) (*models.Task, error) {
	return m.UpdateProgress(ctx, id, 100)
}

// Delete soft-deletes the task and queues the remote delete.
func (m *TaskManager) Delete(ctx context.Context, id string) error {
	return m.remove(ctx, models.ObjectTypeTask, id)
}

func (m *TaskManager) query(ctx context.Context, pred func(models.Entity) bool) ([]*models.Task, error) {
	entities, err := m.store.QueryObjects(ctx, models.ObjectTypeTask, pred)
	if err != nil {
		return nil, err
	}
	tasks := make([]*models.Task, 0, len(entities))
	for _, e := range entities {
		tasks = append(tasks, e.(*models.Task))
	}
	return tasks, nil
}

func (p TaskPatch) priority() models.Priority {
	switch {
	case p.Status != nil:
		return models.PriorityHigh
	case p.Title != nil || p.Description != nil || p.Notes != nil || p.GoalID != nil || p.ProjectID != nil:
		return models.PriorityNormal
	default: // tags, due date
		return models.PriorityLow
	}
}
