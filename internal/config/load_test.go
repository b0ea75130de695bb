package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadResolvesEnvReferences(t *testing.T) {
	t.Setenv("TEST_AGENT_API_KEY", "sk-test-123")

	path := writeConfigFile(t, `{
		"version": "v1",
		"server": {"baseURL": "https://invites.example.com", "addr": ":8080"},
		"agent": {
			"endpoint": "https://agents.example.com/v1/invoke",
			"agentId": "slack-inviter",
			"apiKey": {"$env": "TEST_AGENT_API_KEY"}
		},
		"invite": {"channel": "general"}
	}`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://invites.example.com", config.Server.BaseURL)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, "slack-inviter", config.Agent.AgentID)
	assert.Equal(t, Secret("sk-test-123"), config.Agent.APIKey)
	assert.Equal(t, "general", config.Invite.Channel)
	assert.Nil(t, config.Sessions)
}

func TestLoadRejectsLiteralAPIKey(t *testing.T) {
	path := writeConfigFile(t, `{
		"version": "v1",
		"server": {"baseURL": "https://invites.example.com", "addr": ":8080"},
		"agent": {
			"endpoint": "https://agents.example.com/v1/invoke",
			"agentId": "slack-inviter",
			"apiKey": "sk-literal-oops"
		},
		"invite": {"channel": "general"}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment variable reference")
}

func TestLoadFailsWhenEnvVarUnset(t *testing.T) {
	path := writeConfigFile(t, `{
		"version": "v1",
		"server": {"baseURL": "https://invites.example.com", "addr": ":8080"},
		"agent": {
			"endpoint": "https://agents.example.com/v1/invoke",
			"agentId": "slack-inviter",
			"apiKey": {"$env": "DEFINITELY_NOT_SET_VAR"}
		},
		"invite": {"channel": "general"}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFINITELY_NOT_SET_VAR")
}

func TestLoadRequiresVersion(t *testing.T) {
	path := writeConfigFile(t, `{
		"server": {"baseURL": "https://invites.example.com", "addr": ":8080"},
		"agent": {"endpoint": "https://a.example.com", "agentId": "x", "apiKey": {"$env": "K"}},
		"invite": {"channel": "general"}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := writeConfigFile(t, `{
		"version": "v2",
		"server": {"baseURL": "https://invites.example.com", "addr": ":8080"},
		"agent": {"endpoint": "https://a.example.com", "agentId": "x", "apiKey": {"$env": "K"}},
		"invite": {"channel": "general"}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version")
}

func TestLoadParsesSessionDurations(t *testing.T) {
	t.Setenv("TEST_AGENT_API_KEY", "sk-test-123")

	path := writeConfigFile(t, `{
		"version": "v1",
		"server": {"baseURL": "https://invites.example.com", "addr": ":8080"},
		"agent": {
			"endpoint": "https://agents.example.com/v1/invoke",
			"agentId": "slack-inviter",
			"apiKey": {"$env": "TEST_AGENT_API_KEY"}
		},
		"invite": {"channel": "general"},
		"sessions": {"ttl": "1h", "cleanupInterval": "10m", "maxSessions": 500}
	}`)

	config, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, config.Sessions)
	assert.Equal(t, "1h0m0s", config.Sessions.TTL.String())
	assert.Equal(t, "10m0s", config.Sessions.CleanupInterval.String())
	assert.Equal(t, 500, config.Sessions.MaxSessions)
}

func TestValidateConfigRequiresHTTPEndpoint(t *testing.T) {
	config := &Config{
		Server: ServerConfig{BaseURL: "https://invites.example.com", Addr: ":8080"},
		Agent: AgentConfig{
			Endpoint: "agents.example.com/v1/invoke",
			AgentID:  "slack-inviter",
			APIKey:   "sk-test",
		},
		Invite: InviteConfig{Channel: "general"},
	}

	err := ValidateConfig(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http(s)")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("INVITE_FRONT_AGENT_ENDPOINT", "https://agents.example.com/v1/invoke")
	t.Setenv("INVITE_FRONT_AGENT_ID", "slack-inviter")
	t.Setenv("INVITE_FRONT_AGENT_API_KEY", "sk-env-456")
	t.Setenv("INVITE_FRONT_CHANNEL", "welcome")
	t.Setenv("INVITE_FRONT_SESSION_TTL", "45m")

	config, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", config.Server.BaseURL)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, Secret("sk-env-456"), config.Agent.APIKey)
	assert.Equal(t, "welcome", config.Invite.Channel)
	require.NotNil(t, config.Sessions)
	assert.Equal(t, "45m0s", config.Sessions.TTL.String())
}

func TestFromEnvMissingRequired(t *testing.T) {
	t.Setenv("INVITE_FRONT_AGENT_ENDPOINT", "")
	t.Setenv("INVITE_FRONT_AGENT_ID", "")
	t.Setenv("INVITE_FRONT_AGENT_API_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestSecretRedaction(t *testing.T) {
	secret := Secret("very-secret-key")
	assert.Equal(t, "***", secret.String())

	data, err := secret.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"***"`, string(data))

	assert.Equal(t, "", Secret("").String())
}
