// Package daemon manages the typerace server lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/t-race/typerace/internal/app/engagement"
	"github.com/t-race/typerace/internal/infra/retry"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds all server configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Store      StoreConfig      `toml:"store"`
	Engagement EngagementConfig `toml:"engagement"`
	Logging    LoggingConfig    `toml:"logging"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver        string `toml:"driver"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	Timeout       string `toml:"timeout"`
}

// EngagementConfig tunes the achievement engine.
type EngagementConfig struct {
	HistoryLimit   int    `toml:"history_limit"`
	PersistRetries int    `toml:"persist_retries"`
	RetryBaseDelay string `toml:"retry_base_delay"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// TelemetryConfig controls metrics export.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := typeraceHome()
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			Dir:           homeDir,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "typerace",
			Timeout:       "5s",
		},
		Engagement: EngagementConfig{
			HistoryLimit:   engagement.DefaultHistoryLimit,
			PersistRetries: 2,
			RetryBaseDelay: "50ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads .env files and ~/.typerace/config.toml, falling back to
// defaults, then applies environment overrides.
func LoadConfig() (Config, error) {
	// Existing environment variables win over .env entries.
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(typeraceHome(), ".env"))

	cfg := DefaultConfig()
	path := filepath.Join(typeraceHome(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("TYPERACE_STORE"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Store.MongoURI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.Store.MongoDatabase = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TYPERACE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("TYPERACE_PORT %q is not a valid port", v)
		}
		cfg.API.Port = port
	}
	return nil
}

// SaveConfig writes the config to ~/.typerace/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(typeraceHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// RetryConfig builds the unlock-persistence backoff.
func (c Config) RetryConfig() retry.Config {
	rc := retry.DefaultConfig()
	if c.Engagement.PersistRetries >= 0 {
		rc.MaxRetries = c.Engagement.PersistRetries
	}
	rc.BaseDelay = parseDuration(c.Engagement.RetryBaseDelay, rc.BaseDelay)
	return rc
}

// StoreTimeout is the per-request deadline for store operations.
func (c Config) StoreTimeout() time.Duration {
	return parseDuration(c.Store.Timeout, 5*time.Second)
}

// typeraceHome returns the typerace data directory.
func typeraceHome() string {
	if env := os.Getenv("TYPERACE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".typerace")
}

// Home is exported for use by other packages.
func Home() string {
	return typeraceHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
