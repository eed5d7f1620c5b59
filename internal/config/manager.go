package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// viperManager implements Manager using Viper.
type viperManager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
	watchChan  chan Config
}

// Load loads configuration from all sources.
func (m *viperManager) Load(ctx context.Context) error {
	m.viper = viper.New()

	m.viper.SetConfigFile(m.configPath)
	m.viper.SetConfigType("yaml")

	m.viper.SetEnvPrefix("GRIDWATCH")
	m.viper.AutomaticEnv()
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	m.setDefaults()

	// Config file is optional; defaults plus env vars are a complete source.
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// file not found, use defaults
		} else if os.IsNotExist(err) {
			// file not found, use defaults
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	m.unmarshalConfig()
	m.applyEnvOverrides()

	return nil
}

// Get returns the current configuration.
func (m *viperManager) Get(ctx context.Context) *Config {
	return m.config
}

// Validate validates configuration is correct and complete.
func (m *viperManager) Validate(ctx context.Context) error {
	errs := m.config.Validate()
	if len(errs) > 0 {
		var errMsgs []string
		for _, err := range errs {
			errMsgs = append(errMsgs, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errMsgs, "\n  - "))
	}
	return nil
}

// Watch watches for configuration file changes and reloads.
func (m *viperManager) Watch(ctx context.Context) <-chan Config {
	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		m.unmarshalConfig()
		m.applyEnvOverrides()
		select {
		case m.watchChan <- *m.config:
		default:
			// channel full, skip this update
		}
	})

	return m.watchChan
}

// setDefaults sets default values in viper.
func (m *viperManager) setDefaults() {
	defaults := DefaultConfig()

	// Server defaults
	m.viper.SetDefault("server.port", defaults.Server.Port)
	m.viper.SetDefault("server.host", defaults.Server.Host)
	m.viper.SetDefault("server.allowed_origins", defaults.Server.AllowedOrigins)
	m.viper.SetDefault("server.rate_limit_per_minute", defaults.Server.RateLimitPerMinute)

	// Catalog defaults
	m.viper.SetDefault("catalog.url", defaults.Catalog.URL)
	m.viper.SetDefault("catalog.bearer_token", defaults.Catalog.BearerToken)
	m.viper.SetDefault("catalog.ttl_seconds", defaults.Catalog.TTLSeconds)
	m.viper.SetDefault("catalog.timeout_seconds", defaults.Catalog.TimeoutSeconds)

	// Agent defaults
	m.viper.SetDefault("agent.agent_id", defaults.Agent.AgentID)
	m.viper.SetDefault("agent.api_key", defaults.Agent.APIKey)
	m.viper.SetDefault("agent.runtime_base_url", defaults.Agent.RuntimeBaseURL)
	m.viper.SetDefault("agent.chat_base_url", defaults.Agent.ChatBaseURL)
	m.viper.SetDefault("agent.conversations_url", defaults.Agent.ConversationsURL)
	m.viper.SetDefault("agent.timeout_seconds", defaults.Agent.TimeoutSeconds)

	// Resolver defaults
	m.viper.SetDefault("resolver.alias_map", defaults.Resolver.AliasMap)

	// Session defaults
	m.viper.SetDefault("session.resolved_idle_seconds", defaults.Session.ResolvedIdleSeconds)
	m.viper.SetDefault("session.error_idle_seconds", defaults.Session.ErrorIdleSeconds)

	// Database defaults
	m.viper.SetDefault("database.path", defaults.Database.Path)

	// Logging defaults
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("logging.path", defaults.Logging.Path)
}

// unmarshalConfig unmarshals viper config into Config struct.
func (m *viperManager) unmarshalConfig() {
	cfg := &Config{}

	// Server
	cfg.Server.Port = m.viper.GetInt("server.port")
	cfg.Server.Host = m.viper.GetString("server.host")
	cfg.Server.AllowedOrigins = m.viper.GetStringSlice("server.allowed_origins")
	cfg.Server.RateLimitPerMinute = m.viper.GetInt("server.rate_limit_per_minute")

	// Catalog
	cfg.Catalog.URL = m.viper.GetString("catalog.url")
	cfg.Catalog.BearerToken = m.viper.GetString("catalog.bearer_token")
	cfg.Catalog.TTLSeconds = m.viper.GetInt("catalog.ttl_seconds")
	cfg.Catalog.TimeoutSeconds = m.viper.GetInt("catalog.timeout_seconds")

	// Agent
	cfg.Agent.AgentID = m.viper.GetString("agent.agent_id")
	cfg.Agent.APIKey = m.viper.GetString("agent.api_key")
	cfg.Agent.RuntimeBaseURL = m.viper.GetString("agent.runtime_base_url")
	cfg.Agent.ChatBaseURL = m.viper.GetString("agent.chat_base_url")
	cfg.Agent.ConversationsURL = m.viper.GetString("agent.conversations_url")
	cfg.Agent.TimeoutSeconds = m.viper.GetInt("agent.timeout_seconds")

	// Resolver
	cfg.Resolver.AliasMap = m.viper.GetString("resolver.alias_map")

	// Session
	cfg.Session.ResolvedIdleSeconds = m.viper.GetInt("session.resolved_idle_seconds")
	cfg.Session.ErrorIdleSeconds = m.viper.GetInt("session.error_idle_seconds")

	// Database
	cfg.Database.Path = m.viper.GetString("database.path")

	// Logging
	cfg.Logging.Level = m.viper.GetString("logging.level")
	cfg.Logging.Format = m.viper.GetString("logging.format")
	cfg.Logging.Path = m.viper.GetString("logging.path")

	m.config = cfg
}

// applyEnvOverrides applies environment variable overrides for sensitive data.
func (m *viperManager) applyEnvOverrides() {
	// Catalog bearer token from environment
	if token := os.Getenv("GRIDWATCH_CATALOG_TOKEN"); token != "" {
		m.config.Catalog.BearerToken = token
	}

	// Agent API key from environment
	if apiKey := os.Getenv("GRIDWATCH_AGENT_API_KEY"); apiKey != "" {
		m.config.Agent.APIKey = apiKey
	}

	// Agent id from environment
	if agentID := os.Getenv("GRIDWATCH_AGENT_ID"); agentID != "" {
		m.config.Agent.AgentID = agentID
	}

	// Alias map from environment
	if aliasMap := os.Getenv("GRIDWATCH_SYSTEM_ID_MAP"); aliasMap != "" {
		m.config.Resolver.AliasMap = aliasMap
	}
}
