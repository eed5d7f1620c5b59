// Package config provides configuration management for the orchestrator.
//
// Responsibilities:
//   - Load configuration from a YAML file and environment variables
//   - Validate configuration on startup
//   - Provide runtime access to all configuration
//   - Manage sensitive data (bearer tokens, API keys) via env overrides
//   - Establish reasonable defaults
//
// Configuration Sources (priority order, high to low):
//   1. Environment variables (GRIDWATCH_* prefix)
//   2. YAML config file (default: /etc/gridwatch/orchestrator.yaml)
//   3. Built-in defaults
package config

import "context"

// Config contains all configuration fields
type Config struct {
	// Server configuration
	Server struct {
		Port int
		Host string
		// AllowedOrigins is a list of origins permitted to open WebSocket
		// connections. Use ["*"] to allow any origin (development only).
		AllowedOrigins []string
		// RateLimitPerMinute caps remediation-trigger requests per client.
		RateLimitPerMinute int
	}

	// Catalog upstream configuration
	Catalog struct {
		URL            string // systems catalog endpoint
		BearerToken    string // optional bearer token
		TTLSeconds     int    // snapshot lifetime
		TimeoutSeconds int    // fetch timeout
	}

	// Agent runtime configuration
	Agent struct {
		AgentID          string // agent addressed by remediation sends
		APIKey           string // bearer token for the A2A endpoint
		RuntimeBaseURL   string // A2A runtime base (e.g. http://localhost:9000)
		ChatBaseURL      string // chat UI base for derived chat URLs
		ConversationsURL string // optional conversation-creation endpoint
		TimeoutSeconds   int    // remediation call timeout
	}

	// Resolver configuration
	Resolver struct {
		// AliasMap is a JSON object string mapping local asset ids to
		// canonical catalog ids. Malformed input degrades to no aliases.
		AliasMap string
	}

	// Session lifecycle configuration
	Session struct {
		ResolvedIdleSeconds int // delay before resolved returns to idle
		ErrorIdleSeconds    int // delay before error returns to idle
	}

	// Database configuration
	Database struct {
		Path string // SQLite file, ":memory:" for non-persistent storage
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
		Path   string
	}
}

// Manager defines the interface for configuration access.
type Manager interface {
	// Load loads configuration from all sources.
	Load(ctx context.Context) error

	// Get returns the current configuration.
	Get(ctx context.Context) *Config

	// Validate validates configuration is correct and complete.
	Validate(ctx context.Context) error

	// Watch watches for configuration file changes and reloads.
	Watch(ctx context.Context) <-chan Config
}

// NewManager creates a configuration manager reading the given file.
func NewManager(configPath string) (Manager, error) {
	return &viperManager{
		configPath: configPath,
		config:     DefaultConfig(),
		watchChan:  make(chan Config, 1),
	}, nil
}

// NewManagerWithDefaults creates a manager with the default config path.
func NewManagerWithDefaults() (Manager, error) {
	return NewManager("/etc/gridwatch/orchestrator.yaml")
}
