package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// ServerConfig is the HTTP surface of the console.
type ServerConfig struct {
	BaseURL string `json:"baseURL"`
	Addr    string `json:"addr"`
	// AllowedOrigins configures CORS for the JSON API, for when the form is
	// embedded in another internal tool. Empty means same-origin only in
	// production and allow-all in development.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// AgentConfig points at the agent-invocation API. The API key is the only
// secret in the system and must come from the environment.
type AgentConfig struct {
	Endpoint string `json:"endpoint"`
	AgentID  string `json:"agentId"`
	APIKey   Secret `json:"apiKey"`
}

// InviteConfig carries the invitation defaults embedded into every
// instruction sent to the agent.
type InviteConfig struct {
	// Channel is the Slack channel people are invited to.
	Channel string `json:"channel"`
	// DefaultContext overrides the built-in personalization fallback used
	// when the operator leaves the message field empty.
	DefaultContext string `json:"defaultContext,omitempty"`
}

// SessionConfig tunes the in-memory UI session store.
type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxSessions     int
}

// Config is the resolved application configuration, identical regardless of
// whether it came from a JSON file or from environment variables.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Agent    AgentConfig    `json:"agent"`
	Invite   InviteConfig   `json:"invite"`
	Sessions *SessionConfig `json:"sessions,omitempty"`
}

// RawConfigValue represents a value that could be a plain string or an env
// reference. Only used during parsing, never in the final config.
type RawConfigValue struct {
	value string
}

// ParseConfigValue parses a JSON value that is either a plain string or a
// {"$env": "VAR_NAME"} reference resolved against the process environment.
//
// The explicit JSON syntax was chosen over bash-like $VAR substitution: config
// files get touched in shell contexts (startup scripts, CI), where $VAR risks
// accidental expansion before the file is ever parsed, and a value that
// legitimately contains $ must survive intact.
func ParseConfigValue(raw json.RawMessage) (*RawConfigValue, error) {
	// Try plain string first
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return &RawConfigValue{value: str}, nil
	}

	// Try reference object
	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return nil, fmt.Errorf("unknown reference type in config value")
	}

	value := os.Getenv(envVar)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s not set", envVar)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return &RawConfigValue{value: value}, nil
}

// UnmarshalJSON implements custom unmarshaling for AgentConfig, resolving
// env references immediately.
func (a *AgentConfig) UnmarshalJSON(data []byte) error {
	type rawAgent struct {
		Endpoint json.RawMessage `json:"endpoint"`
		AgentID  json.RawMessage `json:"agentId"`
		APIKey   json.RawMessage `json:"apiKey"`
	}

	var raw rawAgent
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Endpoint != nil {
		parsed, err := ParseConfigValue(raw.Endpoint)
		if err != nil {
			return fmt.Errorf("parsing endpoint: %w", err)
		}
		a.Endpoint = parsed.value
	}

	if raw.AgentID != nil {
		parsed, err := ParseConfigValue(raw.AgentID)
		if err != nil {
			return fmt.Errorf("parsing agentId: %w", err)
		}
		a.AgentID = parsed.value
	}

	if raw.APIKey != nil {
		parsed, err := ParseConfigValue(raw.APIKey)
		if err != nil {
			return fmt.Errorf("parsing apiKey: %w", err)
		}
		a.APIKey = Secret(parsed.value)
	}

	return nil
}

// UnmarshalJSON implements custom unmarshaling for SessionConfig, parsing
// human-readable durations.
func (s *SessionConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		TTL             string `json:"ttl"`
		CleanupInterval string `json:"cleanupInterval"`
		MaxSessions     *int   `json:"maxSessions"` // Pointer to detect explicit 0
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.TTL != "" {
		ttl, err := time.ParseDuration(raw.TTL)
		if err != nil {
			return fmt.Errorf("parsing ttl: %w", err)
		}
		s.TTL = ttl
	}

	if raw.CleanupInterval != "" {
		interval, err := time.ParseDuration(raw.CleanupInterval)
		if err != nil {
			return fmt.Errorf("parsing cleanupInterval: %w", err)
		}
		s.CleanupInterval = interval
	}

	// 0 is a valid value, means unlimited
	if raw.MaxSessions != nil {
		s.MaxSessions = *raw.MaxSessions
	}

	return nil
}
