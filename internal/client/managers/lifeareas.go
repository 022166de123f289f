package managers

import (
	"context"
	"fmt"
	"sort"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/models"
)

// LifeAreaManager is the typed surface for life areas.
type LifeAreaManager struct {
	base
}

// NewLifeAreaManager creates a life area manager.
func NewLifeAreaManager(deps Deps) *LifeAreaManager {
	return &LifeAreaManager{base: newBase(deps)}
}

// LifeAreaPatch lists the fields an update may change.
type LifeAreaPatch struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
	SortOrder   *int
}

// Create stores a new life area and queues it for sync.
func (m *LifeAreaManager) Create(ctx context.Context, ownerID string, area *models.LifeArea) error {
	return m.create(ctx, area, ownerID, models.PriorityHigh)
}

// Get returns a life area by id, soft-deleted included.
func (m *LifeAreaManager) Get(ctx context.Context, id string) (*models.LifeArea, error) {
	e, err := m.store.GetObject(ctx, models.ObjectTypeLifeArea, id)
	if err != nil {
		return nil, err
	}
	return e.(*models.LifeArea), nil
}

// List returns the owner's live areas ordered by SortOrder, then name.
func (m *LifeAreaManager) List(ctx context.Context, ownerID string) ([]*models.LifeArea, error) {
	entities, err := m.store.QueryObjects(ctx, models.ObjectTypeLifeArea, ownedBy(ownerID))
	if err != nil {
		return nil, err
	}
	areas := make([]*models.LifeArea, 0, len(entities))
	for _, e := range entities {
		areas = append(areas, e.(*models.LifeArea))
	}
	sort.Slice(areas, func(i, j int) bool {
		if areas[i].SortOrder != areas[j].SortOrder {
			return areas[i].SortOrder < areas[j].SortOrder
		}
		return areas[i].Name < areas[j].Name
	})
	return areas, nil
}

// Update applies a patch. Cosmetic fields are low priority.
func (m *LifeAreaManager) Update(ctx context.Context, id string, patch LifeAreaPatch) (*models.LifeArea, error) {
	priority := models.PriorityLow
	if patch.Name != nil || patch.Description != nil {
		priority = models.PriorityNormal
	}
	updated, err := m.update(ctx, models.ObjectTypeLifeArea, id, priority, func(e models.Entity) error {
		area := e.(*models.LifeArea)
		if patch.Name != nil {
			area.Name = *patch.Name
		}
		if patch.Description != nil {
			area.Description = *patch.Description
		}
		if patch.Color != nil {
			area.Color = *patch.Color
		}
		if patch.Icon != nil {
			area.Icon = *patch.Icon
		}
		if patch.SortOrder != nil {
			area.SortOrder = *patch.SortOrder
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.LifeArea), nil
}

// SetDefault marks one area as the owner's default and clears the flag on
// every sibling in the same transaction, so at most one default survives any
// interleaving.
func (m *LifeAreaManager) SetDefault(ctx context.Context, ownerID, id string) error {
	var changed []models.Entity
	err := m.store.Transact(ctx, func(tx storage.Tx) error {
		target, err := tx.Get(models.ObjectTypeLifeArea, id)
		if err != nil {
			return err
		}
		siblings, err := tx.List(models.ObjectTypeLifeArea)
		if err != nil {
			return err
		}

		for _, e := range siblings {
			area := e.(*models.LifeArea)
			if area.OwnerID != ownerID || area.ID == id || !area.IsDefault {
				continue
			}
			area.IsDefault = false
			if err := tx.PutLocal(area); err != nil {
				return err
			}
			changed = append(changed, area)
		}

		area := target.(*models.LifeArea)
		if !area.IsDefault {
			area.IsDefault = true
			if err := tx.PutLocal(area); err != nil {
				return err
			}
			changed = append(changed, area)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set default life area %s: %w", id, err)
	}

	for _, e := range changed {
		if err := m.enqueue(ctx, e, models.OperationUpdate, models.PriorityNormal, nil); err != nil {
			return err
		}
	}
	return nil
}

// Delete soft-deletes the area and queues the remote delete.
func (m *LifeAreaManager) Delete(ctx context.Context, id string) error {
	return m.remove(ctx, models.ObjectTypeLifeArea, id)
}
