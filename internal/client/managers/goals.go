package managers

import (
	"context"
	"time"

	"github.com/avoronov/goalkeeper/internal/models"
)

// GoalManager is the typed surface for goals.
type GoalManager struct {
	base
}

// NewGoalManager creates a goal manager.
func NewGoalManager(deps Deps) *GoalManager {
	return &GoalManager{base: newBase(deps)}
}

// GoalPatch lists the fields an update may change. Nil fields are untouched.
type GoalPatch struct {
	Title       *string
	Description *string
	Notes       *string
	Status      *models.WorkStatus
	LifeAreaID  *string
	Tags        []string
	TargetDate  *time.Time
}

// Create stores a new goal and queues it for sync. New objects push at high
// priority so they exist remotely before dependent edits arrive.
func (m *GoalManager) Create(ctx context.Context, ownerID string, goal *models.Goal) error {
	if goal.Status == "" {
		goal.Status = models.WorkStatusNotStarted
	}
	return m.create(ctx, goal, ownerID, models.PriorityHigh)
}

// Get returns a goal by id, soft-deleted included.
func (m *GoalManager) Get(ctx context.Context, id string) (*models.Goal, error) {
	e, err := m.store.GetObject(ctx, models.ObjectTypeGoal, id)
	if err != nil {
		return nil, err
	}
	return e.(*models.Goal), nil
}

// List returns the owner's live goals.
func (m *GoalManager) List(ctx context.Context, ownerID string) ([]*models.Goal, error) {
	return m.query(ctx, ownedBy(ownerID))
}

// ListByLifeArea returns live goals attached to a life area.
func (m *GoalManager) ListByLifeArea(ctx context.Context, lifeAreaID string) ([]*models.Goal, error) {
	return m.query(ctx, func(e models.Entity) bool {
		return e.(*models.Goal).LifeAreaID == lifeAreaID
	})
}

// Update applies a patch. Status changes push at high priority, tag-only
// edits at low, everything else at normal.
func (m *GoalManager) Update(ctx context.Context, id string, patch GoalPatch) (*models.Goal, error) {
	priority := patch.priority()
	updated, err := m.update(ctx, models.ObjectTypeGoal, id, priority, func(e models.Entity) error {
		goal := e.(*models.Goal)
		if patch.Title != nil {
			goal.Title = *patch.Title
		}
		if patch.Description != nil {
			goal.Description = *patch.Description
		}
		if patch.Notes != nil {
			goal.Notes = *patch.Notes
		}
		if patch.Status != nil {
			applyStatus(&goal.Status, &goal.CompletedAt, *patch.Status, m.now())
		}
		if patch.LifeAreaID != nil {
			goal.LifeAreaID = *patch.LifeAreaID
		}
		if patch.Tags != nil {
			goal.Tags = patch.Tags
		}
		if patch.TargetDate != nil {
			goal.TargetDate = patch.TargetDate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.Goal), nil
}

// UpdateProgress sets progress and auto-transitions the status lifecycle.
func (m *GoalManager) UpdateProgress(ctx context.Context, id string, progress int) (*models.Goal, error) {
	updated, err := m.update(ctx, models.ObjectTypeGoal, id, models.PriorityHigh, func(e models.Entity) error {
		goal := e.(*models.Goal)
		applyProgress(&goal.Status, &goal.Progress, &goal.CompletedAt, progress, m.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.Goal), nil
}

// Delete soft-deletes the goal and queues the remote delete.
func (m *GoalManager) Delete(ctx context.Context, id string) error {
	return m.remove(ctx, models.ObjectTypeGoal, id)
}

func (m *GoalManager) query(ctx context.Context, pred func(models.Entity) bool) ([]*models.Goal, error) {
	entities, err := m.store.QueryObjects(ctx, models.ObjectTypeGoal, pred)
	if err != nil {
		return nil, err
	}
	goals := make([]*models.Goal, 0, len(entities))
	for _, e := range entities {
		goals = append(goals, e.(*models.Goal))
	}
	return goals, nil
}

func (p GoalPatch) priority() models.Priority {
	switch {
	case p.Status != nil:
		return models.PriorityHigh
	case p.Title != nil || p.Description != nil || p.Notes != nil || p.LifeAreaID != nil:
		return models.PriorityNormal
	default: // tags, target date
		return models.PriorityLow
	}
}
