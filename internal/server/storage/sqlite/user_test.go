package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/goalkeeper/internal/models"
	"github.com/avoronov/goalkeeper/internal/server/storage"
)

func testUser(username string) *models.User {
	return &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := testUser("alice_smith")
	require.NoError(t, s.CreateUser(ctx, user))

	byName, err := s.GetUserByUsername(ctx, "alice_smith")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, user.PasswordHash, byName.PasswordHash)
	assert.Nil(t, byName.LastLogin)

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice_smith", byID.Username)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, testUser("alice_smith")))
	err := s.CreateUser(ctx, testUser("alice_smith"))
	require.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetUserByUsername(context.Background(), "nobody")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUpdateLastLogin(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := testUser("alice_smith")
	require.NoError(t, s.CreateUser(ctx, user))

	when := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID, when))

	stored, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.Equal(t, when.Unix(), stored.LastLogin.Unix())

	require.ErrorIs(t, s.UpdateLastLogin(ctx, "missing", when), storage.ErrUserNotFound)
}
