// Package engine assembles the offline-first client: local bolt storage,
// the HTTP API client, authentication, typed object managers and the sync
// coordinator, wired so local writes nudge the sync loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpapi "github.com/avoronov/goalkeeper/internal/client/api"
	"github.com/avoronov/goalkeeper/internal/client/auth"
	"github.com/avoronov/goalkeeper/internal/client/managers"
	"github.com/avoronov/goalkeeper/internal/client/storage"
	"github.com/avoronov/goalkeeper/internal/client/storage/boltdb"
	syncer "github.com/avoronov/goalkeeper/internal/client/sync"
)

// Config carries everything needed to assemble an engine.
type Config struct {
	ServerURL    string
	DBPath       string
	PullInterval time.Duration
	Logger       *slog.Logger
}

// Engine is the composed client. All fields are ready to use after New;
// background sync starts only when Run is called.
type Engine struct {
	Auth        *auth.Service
	Sync        *syncer.Coordinator
	Goals       *managers.GoalManager
	Tasks       *managers.TaskManager
	Projects    *managers.ProjectManager
	LifeAreas   *managers.LifeAreaManager
	Assistants  *managers.AssistantProfileManager
	Personal    *managers.PersonalProfileManager
	Attachments *managers.MediaAttachmentManager
	Conflicts   storage.ConflictStorage
	Changes     storage.ChangeLog

	store  *boltdb.Storage
	logger *slog.Logger
}

// New opens local storage and wires all collaborators.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	client := httpapi.NewClient(cfg.ServerURL)
	authSvc := auth.NewService(client, store, cfg.Logger)

	coordinator := syncer.NewCoordinator(syncer.Deps{
		Store:     store,
		Queue:     store,
		Conflicts: store,
		Changes:   store,
		Metadata:  store,
		Client:    client,
		Tokens:    authSvc,
		Logger:    cfg.Logger,
	}, syncer.Config{PullInterval: cfg.PullInterval})

	deps := managers.Deps{
		Store:   store,
		Queue:   store,
		Changes: store,
		Notify:  coordinator.ForceSync,
	}

	return &Engine{
		Auth:        authSvc,
		Sync:        coordinator,
		Goals:       managers.NewGoalManager(deps),
		Tasks:       managers.NewTaskManager(deps),
		Projects:    managers.NewProjectManager(deps),
		LifeAreas:   managers.NewLifeAreaManager(deps),
		Assistants:  managers.NewAssistantProfileManager(deps),
		Personal:    managers.NewPersonalProfileManager(deps),
		Attachments: managers.NewMediaAttachmentManager(deps),
		Conflicts:   store,
		Changes:     store,
		store:       store,
		logger:      cfg.Logger,
	}, nil
}

// Run drives the background sync loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	return e.Sync.Run(ctx)
}

// OwnerID returns the user id of the logged-in account, empty when logged out.
func (e *Engine) OwnerID(ctx context.Context) string {
	session, err := e.Auth.CurrentSession(ctx)
	if err != nil {
		return ""
	}
	return session.UserID
}

// Close releases local storage.
func (e *Engine) Close() error {
	return e.store.Close()
}
