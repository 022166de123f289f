package managers

import (
	"context"
	"errors"
	"fmt"

	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/models"
)

// AssistantProfileManager is the typed surface for assistant personas.
type AssistantProfileManager struct {
	base
}

// NewAssistantProfileManager creates an assistant profile manager.
func NewAssistantProfileManager(deps Deps) *AssistantProfileManager {
	return &AssistantProfileManager{base: newBase(deps)}
}

// AssistantProfilePatch lists the fields an update may change. Style entries
// merge into the existing map; a nil map leaves it untouched.
type AssistantProfilePatch struct {
	Name  *string
	Tone  *string
	Style map[string]string
}

// Create stores a new assistant profile and queues it for sync.
func (m *AssistantProfileManager) Create(ctx context.Context, ownerID string, profile *models.AssistantProfile) error {
	return m.create(ctx, profile, ownerID, models.PriorityNormal)
}

// Get returns an assistant profile by id.
func (m *AssistantProfileManager) Get(ctx context.Context, id string) (*models.AssistantProfile, error) {
	e, err := m.store.GetObject(ctx, models.ObjectTypeAssistantProfile, id)
	if err != nil {
		return nil, err
	}
	return e.(*models.AssistantProfile), nil
}

// List returns the owner's live assistant profiles.
func (m *AssistantProfileManager) List(ctx context.Context, ownerID string) ([]*models.AssistantProfile, error) {
	entities, err := m.store.QueryObjects(ctx, models.ObjectTypeAssistantProfile, ownedBy(ownerID))
	if err != nil {
		return nil, err
	}
	profiles := make([]*models.AssistantProfile, 0, len(entities))
	for _, e := range entities {
		profiles = append(profiles, e.(*models.AssistantProfile))
	}
	return profiles, nil
}

// Update applies a patch. Profile tweaks are metadata, so low priority.
func (m *AssistantProfileManager) Update(ctx context.Context, id string, patch AssistantProfilePatch) (*models.AssistantProfile, error) {
	updated, err := m.update(ctx, models.ObjectTypeAssistantProfile, id, models.PriorityLow, func(e models.Entity) error {
		profile := e.(*models.AssistantProfile)
		if patch.Name != nil {
			profile.Name = *patch.Name
		}
		if patch.Tone != nil {
			profile.Tone = *patch.Tone
		}
		if patch.Style != nil {
			if profile.Style == nil {
				profile.Style = make(map[string]string, len(patch.Style))
			}
			for k, v := range patch.Style {
				profile.Style[k] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.AssistantProfile), nil
}

// SetDefault marks one profile as default, clearing siblings atomically.
func (m *AssistantProfileManager) SetDefault(ctx context.Context, ownerID, id string) error {
	var changed []models.Entity
	err := m.store.Transact(ctx, func(tx storage.Tx) error {
		target, err := tx.Get(models.ObjectTypeAssistantProfile, id)
		if err != nil {
			return err
		}
		siblings, err := tx.List(models.ObjectTypeAssistantProfile)
		if err != nil {
			return err
		}

		for _, e := range siblings {
			profile := e.(*models.AssistantProfile)
			if profile.OwnerID != ownerID || profile.ID == id || !profile.IsDefault {
				continue
			}
			profile.IsDefault = false
			if err := tx.PutLocal(profile); err != nil {
				return err
			}
			changed = append(changed, profile)
		}

		profile := target.(*models.AssistantProfile)
		if !profile.IsDefault {
			profile.IsDefault = true
			if err := tx.PutLocal(profile); err != nil {
				return err
			}
			changed = append(changed, profile)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set default assistant profile %s: %w", id, err)
	}

	for _, e := range changed {
		if err := m.enqueue(ctx, e, models.OperationUpdate, models.PriorityNormal, nil); err != nil {
			return err
		}
	}
	return nil
}

// Delete soft-deletes the profile and queues the remote delete.
func (m *AssistantProfileManager) Delete(ctx context.Context, id string) error {
	return m.remove(ctx, models.ObjectTypeAssistantProfile, id)
}

// PersonalProfileManager manages the owner's single personal profile.
type PersonalProfileManager struct {
	base
}

// NewPersonalProfileManager creates a personal profile manager.
func NewPersonalProfileManager(deps Deps) *PersonalProfileManager {
	return &PersonalProfileManager{base: newBase(deps)}
}

// PersonalProfilePatch lists the fields an update may change. Preference
// entries merge into the existing map.
type PersonalProfilePatch struct {
	DisplayName *string
	Bio         *string
	Timezone    *string
	Preferences map[string]string
}

// Get returns the owner's profile, if one exists.
func (m *PersonalProfileManager) Get(ctx context.Context, ownerID string) (*models.PersonalProfile, error) {
	entities, err := m.store.QueryObjects(ctx, models.ObjectTypePersonalProfile, ownedBy(ownerID))
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, storage.ErrObjectNotFound
	}
	return entities[0].(*models.PersonalProfile), nil
}

// Upsert creates the owner's profile on first use, otherwise patches it.
func (m *PersonalProfileManager) Upsert(ctx context.Context, ownerID string, patch PersonalProfilePatch) (*models.PersonalProfile, error) {
	existing, err := m.Get(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			return nil, err
		}
		profile := &models.PersonalProfile{Preferences: map[string]string{}}
		applyPersonalPatch(profile, patch)
		if err := m.create(ctx, profile, ownerID, models.PriorityNormal); err != nil {
			return nil, err
		}
		return profile, nil
	}

	updated, err := m.update(ctx, models.ObjectTypePersonalProfile, existing.ID, models.PriorityLow, func(e models.Entity) error {
		applyPersonalPatch(e.(*models.PersonalProfile), patch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.(*models.PersonalProfile), nil
}

func applyPersonalPatch(profile *models.PersonalProfile, patch PersonalProfilePatch) {
	if patch.DisplayName != nil {
		profile.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	if patch.Timezone != nil {
		profile.Timezone = *patch.Timezone
	}
	if patch.Preferences != nil {
		if profile.Preferences == nil {
			profile.Preferences = make(map[string]string, len(patch.Preferences))
		}
		for k, v := range patch.Preferences {
			profile.Preferences[k] = v
		}
	}
}
