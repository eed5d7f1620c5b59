package config

// DefaultConfig returns a configuration with usable development defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Port = 8090
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.RateLimitPerMinute = 30

	cfg.Catalog.URL = "http://localhost:8010/systems"
	cfg.Catalog.BearerToken = ""
	cfg.Catalog.TTLSeconds = 15
	cfg.Catalog.TimeoutSeconds = 5

	cfg.Agent.AgentID = ""
	cfg.Agent.APIKey = ""
	cfg.Agent.RuntimeBaseURL = "http://localhost:9000"
	cfg.Agent.ChatBaseURL = "http://localhost:3000"
	cfg.Agent.ConversationsURL = ""
	cfg.Agent.TimeoutSeconds = 15

	cfg.Resolver.AliasMap = "{}"

	cfg.Session.ResolvedIdleSeconds = 4
	cfg.Session.ErrorIdleSeconds = 3

	cfg.Database.Path = "gridwatch.db"

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	cfg.Logging.Path = "logs/orchestrator.log"

	return cfg
}
