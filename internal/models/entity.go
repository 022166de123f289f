package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ObjectType identifies a domain entity kind. Every syncable object carries
// one so the store, queue and wire protocol can route it without reflection.
type ObjectType string

const (
	ObjectTypeGoal             ObjectType = "goal"
	ObjectTypeTask             ObjectType = "task"
	ObjectTypeProject          ObjectType = "project"
	ObjectTypeLifeArea         ObjectType = "life_area"
	ObjectTypeAssistantProfile ObjectType = "assistant_profile"
	ObjectTypePersonalProfile  ObjectType = "personal_profile"
	ObjectTypeMediaAttachment  ObjectType = "media_attachment"
)

// ObjectTypes lists every known object type in a stable order.
// Used for iteration (per-type queue counts, push batch grouping).
var ObjectTypes = []ObjectType{
	ObjectTypeGoal,
	ObjectTypeTask,
	ObjectTypeProject,
	ObjectTypeLifeArea,
	ObjectTypeAssistantProfile,
	ObjectTypePersonalProfile,
	ObjectTypeMediaAttachment,
}

// SyncStatus describes how a local object relates to the remote authority.
type SyncStatus string

const (
	SyncStatusClean    SyncStatus = "clean"    // matches the server copy
	SyncStatusDirty    SyncStatus = "dirty"    // has unsynced local mutations
	SyncStatusSyncing  SyncStatus = "syncing"  // dispatched, awaiting server result
	SyncStatusConflict SyncStatus = "conflict" // diverged from the server copy
)

// syncTransitions encodes the legal sync-status state machine.
// dirty is the implicit entry state for any new mutation; there is no
// terminal state.
var syncTransitions = map[SyncStatus][]SyncStatus{
	SyncStatusClean:    {SyncStatusDirty},
	SyncStatusDirty:    {SyncStatusSyncing, SyncStatusDirty},
	SyncStatusSyncing:  {SyncStatusClean, SyncStatusConflict, SyncStatusDirty},
	SyncStatusConflict: {SyncStatusClean, SyncStatusDirty},
}

// CanTransition reports whether moving from s to next is a legal
// sync-status transition.
func (s SyncStatus) CanTransition(next SyncStatus) bool {
	for _, allowed := range syncTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SyncMeta is the sync bookkeeping embedded in every entity.
//
// Version is server-assigned and authoritative: it changes only when a
// remote-confirmed result is applied. LocalVersion is the client mutation
// counter: it increments by exactly one per local mutation and is never
// reset, not even after a successful sync.
type SyncMeta struct {
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	SyncStatus   SyncStatus `json:"sync_status"`
	Version      int64      `json:"version"`
	LocalVersion int64      `json:"local_version"`
}

// Meta returns the embedded sync metadata. Entities embed SyncMeta, so this
// single method satisfies the Entity interface for all of them.
func (m *SyncMeta) Meta() *SyncMeta { return m }

// Deleted reports whether the object carries a soft-delete marker.
func (m *SyncMeta) Deleted() bool { return m.DeletedAt != nil }

// Entity is implemented by every syncable domain object.
type Entity interface {
	Meta() *SyncMeta
	ObjectType() ObjectType
}

// NewEntity returns a zero value of the given object type.
// Used when decoding wire or storage payloads back into typed objects.
func NewEntity(t ObjectType) (Entity, error) {
	switch t {
	case ObjectTypeGoal:
		return &Goal{}, nil
	case ObjectTypeTask:
		return &Task{}, nil
	case ObjectTypeProject:
		return &Project{}, nil
	case ObjectTypeLifeArea:
		return &LifeArea{}, nil
	case ObjectTypeAssistantProfile:
		return &AssistantProfile{}, nil
	case ObjectTypePersonalProfile:
		return &PersonalProfile{}, nil
	case ObjectTypeMediaAttachment:
		return &MediaAttachment{}, nil
	default:
		return nil, fmt.Errorf("unknown object type: %q", t)
	}
}

// EncodeEntity serializes an entity to JSON. Serialization happens only at
// the storage and wire boundaries; everything in between works on typed
// structs.
func EncodeEntity(e Entity) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", e.ObjectType(), err)
	}
	return data, nil
}

// DecodeEntity deserializes a JSON payload into a typed entity.
func DecodeEntity(t ObjectType, data []byte) (Entity, error) {
	e, err := NewEntity(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", t, err)
	}
	return e, nil
}

// CloneEntity creates a deep copy via the JSON boundary.
func CloneEntity(e Entity) (Entity, error) {
	data, err := EncodeEntity(e)
	if err != nil {
		return nil, err
	}
	return DecodeEntity(e.ObjectType(), data)
}
