package config

import (
	"fmt"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Server.PollInterval.Duration < 0 {
		errs = append(errs, fmt.Sprintf("server.poll_interval: must not be negative, got %s", c.Server.PollInterval))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	if c.Engine.FlushInterval.Duration < 0 {
		errs = append(errs, fmt.Sprintf("engine.flush_interval: must not be negative, got %s", c.Engine.FlushInterval))
	}
	if c.Engine.EventBuffer < 0 {
		errs = append(errs, fmt.Sprintf("engine.event_buffer: must not be negative, got %d", c.Engine.EventBuffer))
	}

	if c.Events.Retention.Duration < time.Hour && c.Events.Retention.Duration != 0 {
		errs = append(errs, fmt.Sprintf("events.retention: must be at least 1h, got %s", c.Events.Retention))
	}

	return errs
}
