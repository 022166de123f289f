package api

import "encoding/json"

// Operation statuses returned per batch entry.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Operation kinds on the wire.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// BatchOperation is one remote-bound mutation inside a batch-sync request.
// Version is the client's last known server version of the object;
// IfMatchVersion, when set, is the optimistic-concurrency precondition the
// server must check before applying.
type BatchOperation struct {
	ObjectID       string          `json:"object_id"`
	ObjectType     string          `json:"object_type"`
	Operation      string          `json:"operation"`
	Data           json.RawMessage `json:"data,omitempty"`
	Version        int64           `json:"version"`
	IfMatchVersion *int64          `json:"if_match_version,omitempty"`
}

// BatchSyncRequest carries a batch of operations for one object type.
type BatchSyncRequest struct {
	Operations []BatchOperation `json:"operations"`
	ClientID   string           `json:"client_id"`
}

// OperationResult is the server's verdict for one submitted operation.
// Results preserve submission order, one entry per operation.
type OperationResult struct {
	ObjectID     string          `json:"object_id"`
	Status       string          `json:"status"`
	NewVersion   int64           `json:"new_version,omitempty"`
	ServerData   json.RawMessage `json:"server_data,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// BatchSyncResponse is the ordered list of per-operation results.
type BatchSyncResponse struct {
	Results []OperationResult `json:"results"`
}

// DeltaChange is one remote change inside a delta-sync response.
// Timestamp is the server-side modification time in unix milliseconds.
type DeltaChange struct {
	ObjectID   string          `json:"object_id"`
	ObjectType string          `json:"object_type"`
	Operation  string          `json:"operation"`
	Data       json.RawMessage `json:"data,omitempty"`
	Version    int64           `json:"version"`
	Timestamp  int64           `json:"timestamp"`
}

// DeltaSyncResponse lists remote changes since the requested checkpoint.
// CurrentTimestamp is the next checkpoint to persist; HasMore signals that
// another page should be fetched before advancing past it.
type DeltaSyncResponse struct {
	Changes          []DeltaChange `json:"changes"`
	CurrentTimestamp int64         `json:"current_timestamp"`
	HasMore          bool          `json:"has_more"`
}
