// Package auth manages the client account session: register, login, token
// refresh and the persisted session the sync loop draws access tokens from.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	httpapi "github.com/avoronov/goalkeeper/internal/client/api"
	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/errs"
	"github.com/avoronov/goalkeeper/internal/validation"
	"github.com/avoronov/goalkeeper/pkg/api"
)

// refreshSkew renews the access token this long before it expires so an
// in-flight sync call never races the expiry.
const refreshSkew = 30 * time.Second

// Service handles account authentication and session persistence.
type Service struct {
	client   httpapi.ClientAPI
	sessions storage.SessionStorage
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates an auth service.
func NewService(client httpapi.ClientAPI, sessions storage.SessionStorage, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a new account. It does not log in; call Login after.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.client.Register(ctx, api.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}
	return resp.UserID, nil
}

// Login authenticates and persists the session so sync can resume across
// restarts.
func (s *Service) Login(ctx context.Context, username, password string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	resp, err := s.client.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	session := &storage.Session{
		Username:     username,
		UserID:       userIDFromToken(resp.AccessToken),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.logger.Info("logged in", "username", username)
	return nil
}

// Logout removes the persisted session. Local data stays untouched.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.DeleteSession(ctx); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CurrentSession returns the persisted session, if any.
func (s *Service) CurrentSession(ctx context.Context) (*storage.Session, error) {
	return s.sessions.GetSession(ctx)
}

// IsAuthenticated reports whether a usable session exists.
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AccessToken returns a valid access token, transparently refreshing a pair
// that is about to expire. Satisfies the sync loop's token source.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return "", errs.Auth("access token", errors.New("not logged in"))
		}
		return "", err
	}

	expiresAt := time.Unix(session.ExpiresAt, 0)
	if s.now().Add(refreshSkew).Before(expiresAt) {
		return session.AccessToken, nil
	}

	resp, err := s.client.Refresh(ctx, api.RefreshRequest{RefreshToken: session.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	session.AccessToken = resp.AccessToken
	session.RefreshToken = resp.RefreshToken
	session.ExpiresAt = s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix()
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to persist refreshed session: %w", err)
	}

	s.logger.Debug("access token refreshed", "username", session.Username)
	return session.AccessToken, nil
}

// userIDFromToken extracts the subject claim without verifying the
// signature; the server remains the authority, the id is only kept for
// stamping locally created objects.
func userIDFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return subject
}
