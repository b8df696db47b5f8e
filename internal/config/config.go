// Package config provides application configuration loaded from environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT, default=15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT, default=15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT, default=60s"`
}

// DatabaseConfig selects the storage engine. SQLite is the default local store.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER, default=sqlite"`
	Path   string `env:"DB_PATH, default=synageion.db"`
	DSN    string `env:"DATABASE_DSN"`
	Debug  bool   `env:"DB_DEBUG, default=false"`
}

// AuthConfig holds credential rules, the admin bootstrap account and session settings.
type AuthConfig struct {
	AdminUsername     string        `env:"ADMIN_USERNAME, default=admin"`
	AdminPassword     string        `env:"ADMIN_PASSWORD"`
	SeedUsersFile     string        `env:"SEED_USERS_FILE"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	SessionTimeout    time.Duration `env:"SESSION_TIMEOUT, default=30m"`
	MinUsernameLength int           `env:"MIN_USERNAME_LENGTH, default=4"`
	MinPasswordLength int           `env:"MIN_PASSWORD_LENGTH, default=6"`
}

// LogConfig controls verbosity and destination. An empty File logs to stdout only.
type LogConfig struct {
	Level string `env:"LOG_LEVEL, default=info"`
	File  string `env:"LOG_FILE"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	DefaultLang string `env:"DEFAULT_LANG, default=de"`
	Dev         bool   `env:"DEV, default=false"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string { return ":" + s.Port }

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l, which lets tests pass a map.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("config: DATABASE_DSN is required for DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Auth.SessionTimeout <= 0 {
		return fmt.Errorf("config: SESSION_TIMEOUT must be positive")
	}
	if c.Auth.MinUsernameLength < 1 || c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("config: minimum credential lengths must be at least 1")
	}
	return nil
}
