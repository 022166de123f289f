package storage

import "context"

// Session holds the authenticated account state persisted between runs so
// sync can resume after a restart.
type Session struct {
	Username     string `json:"username"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
}

// SessionStorage persists the auth session on the client.
type SessionStorage interface {
	// SaveSession stores the session, replacing any existing one.
	SaveSession(ctx context.Context, s *Session) error

	// GetSession returns the stored session.
	// Returns ErrSessionNotFound if no session exists.
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes the stored session (logout).
	DeleteSession(ctx context.Context) error
}
