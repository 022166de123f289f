package models

import "time"

// OperationKind is the remote-bound mutation kind.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// Priority orders pending operations in the sync queue.
// Higher values drain first.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// String returns the human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// SyncOperation is one pending remote-bound mutation in the durable queue.
//
// Version is the object's server version at enqueue time; the coordinator
// submits it as the optimistic-concurrency precondition. Seq is assigned by
// the queue on insert and breaks priority ties FIFO.
type SyncOperation struct {
	CreatedAt   time.Time     `json:"created_at"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	ID          string        `json:"id"`
	ObjectID    string        `json:"object_id"`
	ObjectType  ObjectType    `json:"object_type"`
	Operation   OperationKind `json:"operation"`
	Payload     []byte        `json:"payload"`
	Priority    Priority      `json:"priority"`
	Version     int64         `json:"version"`
	Seq         uint64        `json:"seq"`
	RetryCount  int           `json:"retry_count"`
	MaxRetries  int           `json:"max_retries"`
}

// Due reports whether the operation is eligible for dispatch at now.
func (op *SyncOperation) Due(now time.Time) bool {
	return !op.ScheduledAt.After(now)
}
