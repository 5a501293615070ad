// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Engine   EngineConfig   `toml:"engine"`
	Events   EventsConfig   `toml:"events"`
}

type ServerConfig struct {
	LogLevel     string   `toml:"log_level"`
	PollInterval duration `toml:"poll_interval"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// EngineConfig controls the filter membership engine.
type EngineConfig struct {
	RebuildOnStart bool     `toml:"rebuild_on_start"`
	FlushInterval  duration `toml:"flush_interval"`
	EventBuffer    int      `toml:"event_buffer"`
}

type EventsConfig struct {
	Retention duration `toml:"retention"`
}

// duration wraps time.Duration so TOML values like "30s" parse directly.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads, parses, and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation parses the configuration file but skips
// validation, used by commands that inspect or repair a config.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.PollInterval.Duration == 0 {
		cfg.Server.PollInterval.Duration = 5 * time.Second
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/aniarr.db"
	}
	if cfg.Engine.FlushInterval.Duration == 0 {
		cfg.Engine.FlushInterval.Duration = 30 * time.Second
	}
	if cfg.Engine.EventBuffer == 0 {
		cfg.Engine.EventBuffer = 256
	}
	if cfg.Events.Retention.Duration == 0 {
		cfg.Events.Retention.Duration = 30 * 24 * time.Hour
	}

	return &cfg, missing, nil
}
