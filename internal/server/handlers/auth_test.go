package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronov/goalkeeper/internal/server/auth"
	"github.com/avoronov/goalkeeper/internal/server/storage/sqlite"
	"github.com/avoronov/goalkeeper/pkg/api"
)

func newAuthHandler(t *testing.T) (*AuthHandler, *sqlite.Storage) {
	t.Helper()
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer := auth.NewTokenService("test-secret", 15*time.Minute, time.Hour)
	return NewAuthHandler(logger, store, store, issuer), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func registerUser(t *testing.T, h *AuthHandler, username, password string) string {
	t.Helper()
	rec := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: username, Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.UserID
}

func TestRegisterCreatesUser(t *testing.T) {
	h, _ := newAuthHandler(t)

	userID := registerUser(t, h, "alice_smith", "long-enough-password")
	assert.NotEmpty(t, userID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h, _ := newAuthHandler(t)
	registerUser(t, h, "alice_smith", "long-enough-password")

	rec := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice_smith", Password: "long-enough-password",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice_smith", Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	h, _ := newAuthHandler(t)
	registerUser(t, h, "alice_smith", "long-enough-password")

	rec := postJSON(t, h.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice_smith", Password: "long-enough-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := newAuthHandler(t)
	registerUser(t, h, "alice_smith", "long-enough-password")

	rec := postJSON(t, h.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice_smith", Password: "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownUserSameStatusAsWrongPassword(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "nobody_here", Password: "long-enough-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	h, _ := newAuthHandler(t)
	registerUser(t, h, "alice_smith", "long-enough-password")

	login := postJSON(t, h.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice_smith", Password: "long-enough-password",
	})
	require.Equal(t, http.StatusOK, login.Code)
	var pair api.TokenResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &pair))

	refresh := postJSON(t, h.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, refresh.Code, refresh.Body.String())
	var renewed api.TokenResponse
	require.NoError(t, json.Unmarshal(refresh.Body.Bytes(), &renewed))
	assert.NotEqual(t, pair.RefreshToken, renewed.RefreshToken)

	// the old token is gone after rotation
	replay := postJSON(t, h.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, replay.Code)
}

func TestRefreshUnknownToken(t *testing.T) {
	h, _ := newAuthHandler(t)

	rec := postJSON(t, h.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: "never-issued",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
