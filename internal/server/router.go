// Package server assembles the HTTP API of the sync server.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/avoronov/goalkeeper/internal/server/auth"
	"github.com/avoronov/goalkeeper/internal/server/handlers"
	"github.com/avoronov/goalkeeper/internal/server/middleware"
	"github.com/avoronov/goalkeeper/internal/server/storage"
)

// Deps are the collaborators the router serves from.
type Deps struct {
	Logger  *slog.Logger
	Users   storage.UserStorage
	Tokens  storage.TokenStorage
	Objects storage.ObjectStorage
	Issuer  *auth.TokenService
	Version string
}

// NewRouter builds the full handler chain: recovery, access logging, per-IP
// rate limits on the credential endpoints and bearer auth on the sync ones.
func NewRouter(deps Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Logger, deps.Users, deps.Tokens, deps.Issuer)
	syncHandler := handlers.NewSyncHandler(deps.Logger, deps.Objects)
	healthHandler := handlers.NewHealthHandler(deps.Logger, deps.Version)

	requireAuth := middleware.Auth(deps.Logger, deps.Issuer)
	// credential guessing is the slow path by construction
	loginLimit := middleware.RateLimit(10, time.Minute, deps.Logger)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/auth/register", loginLimit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", loginLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/refresh", http.HandlerFunc(authHandler.Refresh))
	mux.Handle("POST /api/v1/sync/batch", requireAuth(http.HandlerFunc(syncHandler.BatchSync)))
	mux.Handle("GET /api/v1/sync/delta", requireAuth(http.HandlerFunc(syncHandler.DeltaSync)))
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	chain := middleware.LoggingWithSkip(deps.Logger, []string{"/api/v1/health"})(mux)
	return middleware.Recovery(deps.Logger)(chain)
}
