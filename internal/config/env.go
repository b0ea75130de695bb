package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config for flag-less container deployments where a config
// file is more trouble than it is worth.
type envConfig struct {
	BaseURL        string   `env:"INVITE_FRONT_BASE_URL" envDefault:"http://localhost:8080"`
	Addr           string   `env:"INVITE_FRONT_ADDR" envDefault:":8080"`
	AllowedOrigins []string `env:"INVITE_FRONT_ALLOWED_ORIGINS"`

	AgentEndpoint string `env:"INVITE_FRONT_AGENT_ENDPOINT,required"`
	AgentID       string `env:"INVITE_FRONT_AGENT_ID,required"`
	AgentAPIKey   string `env:"INVITE_FRONT_AGENT_API_KEY,required"`

	Channel        string `env:"INVITE_FRONT_CHANNEL" envDefault:"general"`
	DefaultContext string `env:"INVITE_FRONT_DEFAULT_CONTEXT"`

	SessionTTL             time.Duration `env:"INVITE_FRONT_SESSION_TTL"`
	SessionCleanupInterval time.Duration `env:"INVITE_FRONT_SESSION_CLEANUP_INTERVAL"`
	SessionMax             int           `env:"INVITE_FRONT_SESSION_MAX"`
}

// FromEnv builds a validated Config entirely from environment variables.
func FromEnv() (Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	config := Config{
		Server: ServerConfig{
			BaseURL:        raw.BaseURL,
			Addr:           raw.Addr,
			AllowedOrigins: raw.AllowedOrigins,
		},
		Agent: AgentConfig{
			Endpoint: raw.AgentEndpoint,
			AgentID:  raw.AgentID,
			APIKey:   Secret(raw.AgentAPIKey),
		},
		Invite: InviteConfig{
			Channel:        raw.Channel,
			DefaultContext: raw.DefaultContext,
		},
	}

	if raw.SessionTTL != 0 || raw.SessionCleanupInterval != 0 || raw.SessionMax != 0 {
		config.Sessions = &SessionConfig{
			TTL:             raw.SessionTTL,
			CleanupInterval: raw.SessionCleanupInterval,
			MaxSessions:     raw.SessionMax,
		}
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}
