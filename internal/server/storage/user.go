// Package storage defines the persistence interfaces of the sync server.
package storage

import (
	"context"
	"time"

	"github.com/avoronov/goalkeeper/internal/models"
)

// UserStorage persists registered accounts.
type UserStorage interface {
	// CreateUser stores a new user.
	// Returns ErrUserAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves a user by username.
	// Returns ErrUserNotFound if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves a user by id.
	// Returns ErrUserNotFound if no such user exists.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateLastLogin stamps the last successful login.
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error
}
