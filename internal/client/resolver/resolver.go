// Package resolver merges divergent local and remote snapshots of one
// object. Resolve is a pure function: identical inputs always produce an
// identical merged entity and log, so both sides of a sync pair converge.
package resolver

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/avoronov/goalkeeper/internal/models"
)

// IncomingChangesMarker separates the local and remote halves of a textual
// merge so the user can spot the seam.
const IncomingChangesMarker = "<<< incoming changes >>>"

// Decision records how one divergent field was merged.
type Decision struct {
	Field    string                    `json:"field"`
	Strategy models.ResolutionStrategy `json:"strategy"`
	Winner   string                    `json:"winner"` // local, remote or merged
}

// Resolution is the outcome of merging one divergent object pair.
type Resolution struct {
	Merged               models.Entity
	Log                  []Decision
	DivergentFields      []string
	RequiresManualReview bool
}

// PrimaryStrategy summarizes the resolution for the conflict record.
func (r *Resolution) PrimaryStrategy() models.ResolutionStrategy {
	if r.RequiresManualReview {
		return models.StrategyTextualMerge
	}
	for _, d := range r.Log {
		if d.Strategy == models.StrategyAdditiveMerge {
			return models.StrategyAdditiveMerge
		}
	}
	return models.StrategyLatestWriteWins
}

// metaFields are merged by fixed rules, never by the strategy table.
var metaFields = map[string]bool{
	"sync_status":   true,
	"local_version": true,
	"updated_at":    true,
	"deleted_at":    true,
}

// remoteWinsFields always take the server's value: identity and lifecycle
// fields the server is authoritative for.
var remoteWinsFields = map[string]bool{
	"id":           true,
	"owner_id":     true,
	"created_at":   true,
	"version":      true,
	"progress":     true,
	"status":       true,
	"completed_at": true,
}

// textFields get a textual merge: an empty side yields the other, two
// differing non-empty sides are concatenated and flagged for review.
var textFields = map[string]bool{
	"description": true,
	"notes":       true,
	"bio":         true,
}

// listFields get an additive merge: union, deduplicated, order-independent.
var listFields = map[string]bool{
	"tags":        true,
	"keywords":    true,
	"attachments": true,
}

// strategyOverrides maps object types to per-field strategies that beat the
// name heuristic.
var strategyOverrides = map[models.ObjectType]map[string]models.ResolutionStrategy{
	models.ObjectTypeMediaAttachment: {
		"url":      models.StrategyRemoteWins, // server issues canonical URLs
		"checksum": models.StrategyRemoteWins,
	},
	models.ObjectTypeAssistantProfile: {
		"style": models.StrategyAdditiveMerge,
	},
	models.ObjectTypePersonalProfile: {
		"preferences": models.StrategyAdditiveMerge,
	},
}

// Resolve merges a divergent local/remote pair into one entity.
// The merged entity is always produced, even when a textual merge flags
// manual review; callers apply it optimistically and record the conflict.
func Resolve(objectType models.ObjectType, local, remote models.Entity, localVersion, remoteVersion int64) (*Resolution, error) {
	if local.ObjectType() != objectType || remote.ObjectType() != objectType {
		return nil, fmt.Errorf("object type mismatch: %s vs %s/%s",
			objectType, local.ObjectType(), remote.ObjectType())
	}

	localFields, err := toFieldMap(local)
	if err != nil {
		return nil, err
	}
	remoteFields, err := toFieldMap(remote)
	if err != nil {
		return nil, err
	}

	resolution := &Resolution{}
	merged := make(map[string]any, len(remoteFields))

	for _, field := range unionKeys(localFields, remoteFields) {
		lv, rv := localFields[field], remoteFields[field]
		if metaFields[field] {
			merged[field] = rv
			continue
		}
		if reflect.DeepEqual(lv, rv) {
			merged[field] = rv
			continue
		}

		resolution.DivergentFields = append(resolution.DivergentFields, field)

		strategy := strategyFor(objectType, field)
		value, winner := applyStrategy(strategy, lv, rv, local.Meta().UpdatedAt, remote.Meta().UpdatedAt, resolution)
		merged[field] = value
		resolution.Log = append(resolution.Log, Decision{Field: field, Strategy: strategy, Winner: winner})
	}

	entity, err := fromFieldMap(objectType, merged)
	if err != nil {
		return nil, err
	}

	meta := entity.Meta()
	meta.Version = remoteVersion
	if local.Meta().LocalVersion > meta.LocalVersion {
		meta.LocalVersion = local.Meta().LocalVersion
	}
	meta.UpdatedAt = laterOf(local.Meta().UpdatedAt, remote.Meta().UpdatedAt)
	meta.DeletedAt = mergeTombstone(local.Meta().DeletedAt, remote.Meta().DeletedAt)
	meta.SyncStatus = local.Meta().SyncStatus

	enforceInvariants(entity, resolution)

	resolution.Merged = entity
	return resolution, nil
}

// strategyFor picks the per-field strategy: type override first, then the
// name heuristic, latest-write-wins as the fallback.
func strategyFor(objectType models.ObjectType, field string) models.ResolutionStrategy {
	if overrides, ok := strategyOverrides[objectType]; ok {
		if strategy, ok := overrides[field]; ok {
			return strategy
		}
	}
	switch {
	case remoteWinsFields[field]:
		return models.StrategyRemoteWins
	case textFields[field]:
		return models.StrategyTextualMerge
	case listFields[field]:
		return models.StrategyAdditiveMerge
	default:
		return models.StrategyLatestWriteWins
	}
}

func applyStrategy(strategy models.ResolutionStrategy, lv, rv any, localTime, remoteTime time.Time, resolution *Resolution) (any, string) {
	switch strategy {
	case models.StrategyRemoteWins:
		return rv, "remote"
	case models.StrategyTextualMerge:
		value, merged := mergeText(lv, rv)
		if merged {
			resolution.RequiresManualReview = true
			return value, "merged"
		}
		if reflect.DeepEqual(value, rv) {
			return value, "remote"
		}
		return value, "local"
	case models.StrategyAdditiveMerge:
		return mergeAdditive(lv, rv), "merged"
	default: // latest-write-wins; ties go to remote for determinism
		if localTime.After(remoteTime) {
			return lv, "local"
		}
		return rv, "remote"
	}
}

// mergeText returns the non-empty side, or both sides joined with the
// incoming-changes marker when they differ. The second return reports
// whether a real concatenation happened.
func mergeText(lv, rv any) (any, bool) {
	ls, _ := lv.(string)
	rs, _ := rv.(string)
	switch {
	case ls == "":
		return rs, false
	case rs == "":
		return ls, false
	default:
		return ls + "\n" + IncomingChangesMarker + "\n" + rs, true
	}
}

// mergeAdditive unions two list or map values. Lists keep local order with
// unseen remote items appended; maps union keys with remote winning a clash.
func mergeAdditive(lv, rv any) any {
	if lm, ok := lv.(map[string]any); ok {
		rm, _ := rv.(map[string]any)
		out := make(map[string]any, len(lm)+len(rm))
		for k, v := range lm {
			out[k] = v
		}
		for k, v := range rm {
			out[k] = v
		}
		return out
	}

	ll, _ := lv.([]any)
	rl, _ := rv.([]any)
	seen := make(map[string]bool, len(ll)+len(rl))
	out := make([]any, 0, len(ll)+len(rl))
	for _, v := range append(append([]any{}, ll...), rl...) {
		key := fmt.Sprintf("%v", v)
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}

func mergeTombstone(local, remote *time.Time) *time.Time {
	// deletes are monotonic: once either side has a tombstone it stays
	switch {
	case remote != nil:
		return remote
	case local != nil:
		return local
	default:
		return nil
	}
}

func toFieldMap(e models.Entity) (map[string]any, error) {
	data, err := models.EncodeEntity(e)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s fields: %w", e.ObjectType(), err)
	}
	return fields, nil
}

func fromFieldMap(objectType models.ObjectType, fields map[string]any) (models.Entity, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged fields: %w", err)
	}
	return models.DecodeEntity(objectType, data)
}

func unionKeys(a, b map[string]any) []string {
	keys := make(map[string]bool, len(a)+len(b))
	for k := range a {
		keys[k] = true
	}
	for k := range b {
		keys[k] = true
	}
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// FieldSummary renders the log compactly for change-log payloads.
func FieldSummary(log []Decision) string {
	parts := make([]string, 0, len(log))
	for _, d := range log {
		parts = append(parts, fmt.Sprintf("%s=%s(%s)", d.Field, d.Strategy, d.Winner))
	}
	return strings.Join(parts, ", ")
}
