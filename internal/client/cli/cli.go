// Package cli implements the goalkeeper command line client.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/avoronov/goalkeeper/internal/client/engine"
	"github.com/avoronov/goalkeeper/internal/client/iocli"
	"github.com/avoronov/goalkeeper/internal/config"
)

// App carries the assembled engine and terminal IO for all commands.
type App struct {
	engine *engine.Engine
	io     iocli.IO
}

// NewRootCommand builds the goalkeeper command tree. The engine is opened
// once before any subcommand runs and closed after it returns.
func NewRootCommand(version string) *cobra.Command {
	var (
		cfgPath   string
		serverURL string
		dbPath    string
	)
	app := &App{io: iocli.NewTerminal()}

	root := &cobra.Command{
		Use:           "goalkeeper",
		Short:         "Offline-first goal tracker",
		Long:          "goalkeeper keeps goals, tasks and projects locally and syncs them in the background.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient(cfgPath)
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.ServerURL = serverURL
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			eng, err := engine.New(cmd.Context(), engine.Config{
				ServerURL:    cfg.ServerURL,
				DBPath:       cfg.DBPath,
				PullInterval: cfg.PullInterval,
				Logger:       newLogger(cfg.Log),
			})
			if err != nil {
				return err
			}
			app.engine = eng
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if app.engine == nil {
				return nil
			}
			return app.engine.Close()
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config file")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (overrides config)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to local database (overrides config)")

	root.AddCommand(
		app.registerCommand(),
		app.loginCommand(),
		app.logoutCommand(),
		app.statusCommand(),
		app.syncCommand(),
		app.goalCommand(),
		app.taskCommand(),
		app.areaCommand(),
	)
	return root
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.goalkeeper.yaml"
}

func newLogger(cfg config.Log) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	// interactive runs keep logs out of the way unless a file is set
	if cfg.File == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return slog.New(slog.NewJSONHandler(logWriter(cfg), &slog.HandlerOptions{Level: level}))
}

// ownerID resolves the logged-in account or fails with a hint.
func (a *App) ownerID(cmd *cobra.Command) (string, error) {
	owner := a.engine.OwnerID(cmd.Context())
	if owner == "" {
		return "", fmt.Errorf("not logged in, run 'goalkeeper login' first")
	}
	return owner, nil
}

// runSyncCycle drives exactly one foreground sync cycle.
func (a *App) runSyncCycle(cmd *cobra.Command) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.engine.Run(loopCtx)
	}()

	err := a.engine.Sync.SyncNow(ctx)
	stop()
	<-done
	return err
}
