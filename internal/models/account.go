package models

import (
	"encoding/json"
	"time"
)

// User is a registered account on the sync server.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // encoded argon2id hash
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// RefreshToken is a stored refresh token. Only a digest of the token value
// is persisted; the value itself lives on the client.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredObject is the server-side row for one synchronized object. Payload
// is the client-encoded entity JSON; Version is the authoritative version
// the server assigns on every applied operation. UpdatedAtMS orders delta
// pages and doubles as the client checkpoint.
type StoredObject struct {
	ObjectID    string          `json:"object_id"`
	ObjectType  ObjectType      `json:"object_type"`
	OwnerID     string          `json:"owner_id"`
	Payload     json.RawMessage `json:"payload"`
	Version     int64           `json:"version"`
	Deleted     bool            `json:"deleted"`
	CreatedAtMS int64           `json:"created_at_ms"`
	UpdatedAtMS int64           `json:"updated_at_ms"`
}
