package models

import "time"

// ResolutionStrategy names the per-field merge rule the resolver applied.
type ResolutionStrategy string

const (
	StrategyRemoteWins      ResolutionStrategy = "remote_wins"
	StrategyLatestWriteWins ResolutionStrategy = "latest_write_wins"
	StrategyTextualMerge    ResolutionStrategy = "textual_merge"
	StrategyAdditiveMerge   ResolutionStrategy = "additive_merge"
	StrategyInvariant       ResolutionStrategy = "invariant"
)

// ConflictRecord captures one resolved divergence between a local and a
// remote snapshot. Records are immutable once written except for the
// Resolved flag.
type ConflictRecord struct {
	CreatedAt       time.Time          `json:"created_at"`
	ResolvedAt      time.Time          `json:"resolved_at"`
	ID              string             `json:"id"`
	ObjectID        string             `json:"object_id"`
	ObjectType      ObjectType         `json:"object_type"`
	LocalSnapshot   []byte             `json:"local_snapshot"`
	RemoteSnapshot  []byte             `json:"remote_snapshot"`
	DivergentFields []string           `json:"divergent_fields"`
	Strategy        ResolutionStrategy `json:"strategy"`
	LocalVersion    int64              `json:"local_version"`
	RemoteVersion   int64              `json:"remote_version"`
	ManualReview    bool               `json:"manual_review"`
	Resolved        bool               `json:"resolved"`
}

// ChangeLogEntry is an append-only audit record of a local or sync-applied
// write. Entries are never mutated; they exist for diagnostics and replay,
// not for reconciliation.
type ChangeLogEntry struct {
	Timestamp  time.Time     `json:"timestamp"`
	ObjectID   string        `json:"object_id"`
	ObjectType ObjectType    `json:"object_type"`
	Operation  OperationKind `json:"operation"`
	OldPayload []byte        `json:"old_payload,omitempty"`
	NewPayload []byte        `json:"new_payload,omitempty"`
	Seq        uint64        `json:"seq"`
	Synced     bool          `json:"synced"`
}
