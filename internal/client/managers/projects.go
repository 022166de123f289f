package managers

import (
	"context"

	"github.com/avoronov/goalkeeper/internal/models"
)

// ProjectManager is the typed surface for projects.
type ProjectManager struct {
	base
}

// NewProjectManager creates a project manager.
func NewProjectManager(deps Deps) *ProjectManager {
	return &ProjectManager{base: newBase(deps)}
}

// ProjectPatch lists the fields an update may change.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *models.WorkStatus
	LifeAreaID  *string
	Keywords    []string
}

// Create stores a new project and queues it for sync.
func (m *ProjectManager) Create(ctx context.Context, ownerID string, project *models.Project) error {
	if project.Status == "" {
		project.Status = models.WorkStatusNotStarted
	}
	return m.create(ctx, project, ownerID, models.PriorityHigh)
}

// Get returns a project by id, soft-deleted included.
func (m *ProjectManager) Get(ctx context.Context, id string) (*models.Project, error) {
	e, err := m.store.GetObject(ctx, models.ObjectTypeProject, id)
	if err != nil {
		return nil, err
	}
	return e.(*models.Project), nil
}

// List returns the owner's live projects.
func (m *ProjectManager) List(ctx context.Context, ownerID string) ([]*models.Project, error) {
	return m.query(ctx, ownedBy(ownerID))
}

// ListByLifeArea returns live projects under a life area.
func (m *ProjectManager) ListByLifeArea(ctx context.Context, lifeAreaID string) ([]*models.Project, error) {
	return m.query(ctx, func(e models.Entity) bool {
		return e.(*models.Project).LifeAreaID == lifeAreaID
	})
}

// Update applies a patch with the usual priority classes.
func (m *ProjectManager) Update(ctx context.Context, id string, patch ProjectPatch) (*models.Project, error) {
	updated, err := m.update(ctx, models.ObjectTypeProject, id, patch.priority(), func(e models.Entity) error {
		project := e.(*models.Project)
		if patch.Name != nil {
			project.Name = *patch.Name
		}
		if patch.Description != nil {
			project.Description = *patch.Description
		}
		if patch.Status != nil {
			applyStatus(&project.Status, &project.CompletedAt, *patch.Status, m.now())
		}
		if patch.LifeAreaID != nil {
			project.LifeAreaID = *patch.LifeAreaID
		}
		if patch.Keywords != nil {
			project.Keywords = patch.Keywords
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.Project), nil
}

// UpdateProgress sets progress and auto-transitions the status lifecycle.
func (m *ProjectManager) UpdateProgress(ctx context.Context, id string, progress int) (*models.Project, error) {
	updated, err := m.update(ctx, models.ObjectTypeProject, id, models.PriorityHigh, func(e models.Entity) error {
		project := e.(*models.Project)
		applyProgress(&project.Status, &project.Progress, &project.CompletedAt, progress, m.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.Project), nil
}

// Delete soft-deletes the project and queues the remote delete.
func (m *ProjectManager) Delete(ctx context.Context, id string) error {
	return m.remove(ctx, models.ObjectTypeProject, id)
}

func (m *ProjectManager) query(ctx context.Context, pred func(models.Entity) bool) ([]*models.Project, error) {
	entities, err := m.store.QueryObjects(ctx, models.ObjectTypeProject, pred)
	if err != nil {
		return nil, err
	}
	projects := make([]*models.Project, 0, len(entities))
	for _, e := range entities {
		projects = append(projects, e.(*models.Project))
	}
	return projects, nil
}

func (p ProjectPatch) priority() models.Priority {
	switch {
	case p.Status != nil:
		return models.PriorityHigh
	case p.Name != nil || p.Description != nil || p.LifeAreaID != nil:
		return models.PriorityNormal
	default: // keywords
		return models.PriorityLow
	}
}
