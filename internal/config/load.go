package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Load loads and processes the config file with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, "v1") {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// Parse directly into the typed Config struct. The custom UnmarshalJSON
	// methods resolve env references immediately.
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig validates the config structure before environment
// resolution. The API key must never appear as a literal in the file.
func validateRawConfig(rawConfig map[string]any) error {
	agent, ok := rawConfig["agent"].(map[string]any)
	if !ok {
		return nil
	}

	value, exists := agent["apiKey"]
	if !exists {
		return nil
	}

	if _, isString := value.(string); isString {
		return fmt.Errorf("agent.apiKey must use environment variable reference for security")
	}
	if refMap, isMap := value.(map[string]any); isMap {
		if _, hasEnv := refMap["$env"]; !hasEnv {
			return fmt.Errorf("agent.apiKey must use {\"$env\": \"VAR_NAME\"} format")
		}
	}
	return nil
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.Server.BaseURL == "" {
		return fmt.Errorf("server.baseURL is required")
	}
	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if config.Agent.Endpoint == "" {
		return fmt.Errorf("agent.endpoint is required")
	}
	if !strings.HasPrefix(config.Agent.Endpoint, "http://") && !strings.HasPrefix(config.Agent.Endpoint, "https://") {
		return fmt.Errorf("agent.endpoint must be an http(s) URL")
	}
	if config.Agent.AgentID == "" {
		return fmt.Errorf("agent.agentId is required")
	}
	if config.Agent.APIKey == "" {
		return fmt.Errorf("agent.apiKey is required")
	}

	if config.Invite.Channel == "" {
		return fmt.Errorf("invite.channel is required")
	}

	if sessions := config.Sessions; sessions != nil {
		if sessions.TTL < 0 {
			return fmt.Errorf("sessions.ttl cannot be negative")
		}
		if sessions.CleanupInterval < 0 {
			return fmt.Errorf("sessions.cleanupInterval cannot be negative")
		}
		if sessions.MaxSessions < 0 {
			return fmt.Errorf("sessions.maxSessions cannot be negative")
		}
	}

	return nil
}
