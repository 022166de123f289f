package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/avoronov/goalkeeper/internal/config"
	"github.com/avoronov/goalkeeper/internal/server"
	"github.com/avoronov/goalkeeper/internal/server/auth"
	"github.com/avoronov/goalkeeper/internal/server/storage/sqlite"
)

// Version information set via ldflags during build
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	cfgPath := flag.String("config", "", "Path to config file")
	address := flag.String("address", "", "Listen address (overrides config)")
	dbPath := flag.String("db", "", "Path to sqlite database (overrides config)")
	jwtSecret := flag.String("jwt-secret", "", "JWT signing secret (overrides config)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("goalkeeper server %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		os.Exit(0)
	}

	cfg, err := config.LoadServer(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *jwtSecret != "" {
		cfg.JWTSecret = *jwtSecret
	}
	if secret := os.Getenv("GOALKEEPER_JWT_SECRET"); cfg.JWTSecret == "" && secret != "" {
		cfg.JWTSecret = secret
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "Error: jwt secret is required (config, --jwt-secret or GOALKEEPER_JWT_SECRET)")
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	router := server.NewRouter(server.Deps{
		Logger:  logger,
		Users:   store,
		Tokens:  store,
		Objects: store,
		Issuer:  auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Version: Version,
	})

	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Address, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
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

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}
