package config

import (
	"fmt"
	"net/url"
)

// Validate checks configuration for correctness and completeness.
// Returns a list of all validation errors found.
func (c *Config) Validate() []error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, fmt.Errorf("server.allowed_origins must not be empty"))
	}
	if c.Server.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit_per_minute must be positive, got %d", c.Server.RateLimitPerMinute))
	}

	if c.Catalog.URL == "" {
		errs = append(errs, fmt.Errorf("catalog.url is required"))
	} else if _, err := url.Parse(c.Catalog.URL); err != nil {
		errs = append(errs, fmt.Errorf("catalog.url is not a valid URL: %w", err))
	}
	if c.Catalog.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("catalog.ttl_seconds must be positive, got %d", c.Catalog.TTLSeconds))
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("catalog.timeout_seconds must be positive, got %d", c.Catalog.TimeoutSeconds))
	}

	if c.Agent.RuntimeBaseURL == "" {
		errs = append(errs, fmt.Errorf("agent.runtime_base_url is required"))
	} else if _, err := url.Parse(c.Agent.RuntimeBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("agent.runtime_base_url is not a valid URL: %w", err))
	}
	if c.Agent.ChatBaseURL == "" {
		errs = append(errs, fmt.Errorf("agent.chat_base_url is required"))
	}
	if c.Agent.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("agent.timeout_seconds must be positive, got %d", c.Agent.TimeoutSeconds))
	}

	if c.Session.ResolvedIdleSeconds <= 0 {
		errs = append(errs, fmt.Errorf("session.resolved_idle_seconds must be positive, got %d", c.Session.ResolvedIdleSeconds))
	}
	if c.Session.ErrorIdleSeconds <= 0 {
		errs = append(errs, fmt.Errorf("session.error_idle_seconds must be positive, got %d", c.Session.ErrorIdleSeconds))
	}

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	return errs
}
