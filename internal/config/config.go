// Package config loads YAML configuration for the client and server
// binaries. Missing files are not an error; defaults apply and flags in the
// binaries may override individual values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Client configures the goalkeeper client binary.
type Client struct {
	ServerURL    string        `yaml:"server_url"`
	DBPath       string        `yaml:"db_path"`
	PullInterval time.Duration `yaml:"pull_interval"`
	Log          Log           `yaml:"log"`
}

// Server configures the goalkeeper server binary.
type Server struct {
	Address         string        `yaml:"address"`
	DatabasePath    string        `yaml:"database_path"`
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Log             Log           `yaml:"log"`
}

// Log configures structured logging output. An empty File logs to stderr.
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultClient returns the client defaults.
func DefaultClient() Client {
	return Client{
		ServerURL:    "http://localhost:8080",
		DBPath:       "goalkeeper.db",
		PullInterval: 30 * time.Second,
		Log:          defaultLog(),
	}
}

// DefaultServer returns the server defaults. JWTSecret has no default and
// must be set via file or flag.
func DefaultServer() Server {
	return Server{
		Address:         ":8080",
		DatabasePath:    "goalkeeper-server.db",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 720 * time.Hour,
		ShutdownTimeout: 10 * time.Second,
		Log:             defaultLog(),
	}
}

func defaultLog() Log {
	return Log{Level: "info", MaxSizeMB: 50, MaxBackups: 3}
}

// LoadClient reads the client config from path, falling back to defaults
// when the file does not exist.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if err := loadInto(path, &cfg); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// LoadServer reads the server config from path, falling back to defaults
// when the file does not exist.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := loadInto(path, &cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func loadInto(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}
