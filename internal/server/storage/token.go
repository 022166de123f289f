package storage

import (
	"context"

	"github.com/avoronov/goalkeeper/internal/models"
)

// TokenStorage persists refresh token digests.
type TokenStorage interface {
	// SaveRefreshToken stores a refresh token record.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshToken retrieves a token record by digest.
	// Returns ErrTokenNotFound if no such token exists.
	GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// DeleteRefreshToken removes a token record by digest.
	// Returns ErrTokenNotFound if no such token exists.
	DeleteRefreshToken(ctx context.Context, tokenHash string) error

	// DeleteUserTokens removes every refresh token of a user and reports
	// how many were removed.
	DeleteUserTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredTokens removes expired tokens and reports how many
	// were removed.
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
