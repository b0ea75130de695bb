package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// ValidationResult holds validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidationError represents a validation issue
type ValidationError struct {
	Path    string
	Message string
}

// IsValid returns true if there are no errors
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

// ValidateFile validates a config file structure without requiring env vars
// to be set. Used by the -validate CLI mode to lint a file before deploy.
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Check JSON syntax
	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
		})
		return result, nil
	}

	// Check for bash-style syntax
	checkBashStyleSyntax(rawConfig, "", result)

	// Check version
	version, ok := rawConfig["version"].(string)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "version",
			Message: "version field is required. Hint: Add \"version\": \"v1\"",
		})
	} else if !strings.HasPrefix(version, "v1") {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "version",
			Message: fmt.Sprintf("unsupported version '%s' - use 'v1' or 'v1-<variant>'", version),
		})
	}

	validateServerStructure(rawConfig, result)
	validateAgentStructure(rawConfig, result)
	validateInviteStructure(rawConfig, result)

	if sessions, ok := rawConfig["sessions"].(map[string]any); ok {
		validateSessionsStructure(sessions, result)
	}

	return result, nil
}

func validateServerStructure(rawConfig map[string]any, result *ValidationResult) {
	server, ok := rawConfig["server"].(map[string]any)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "server",
			Message: "server field is required and must be an object",
		})
		return
	}

	if _, ok := server["baseURL"]; !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "server.baseURL",
			Message: "baseURL is required. Example: \"https://invites.yourcompany.com\"",
		})
	}
	if _, ok := server["addr"]; !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "server.addr",
			Message: "addr is required. Example: \":8080\" or \"0.0.0.0:8080\"",
		})
	}

	if origins, exists := server["allowedOrigins"]; exists {
		if _, ok := origins.([]any); !ok {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "server.allowedOrigins",
				Message: "allowedOrigins must be an array of origin strings",
			})
		}
	}
}

func validateAgentStructure(rawConfig map[string]any, result *ValidationResult) {
	agent, ok := rawConfig["agent"].(map[string]any)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "agent",
			Message: "agent field is required and must be an object",
		})
		return
	}

	if _, ok := agent["endpoint"]; !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "agent.endpoint",
			Message: "endpoint is required. Example: \"https://agents.example.com/v1/invoke\"",
		})
	}
	if _, ok := agent["agentId"]; !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "agent.agentId",
			Message: "agentId is required",
		})
	}

	apiKey, ok := agent["apiKey"]
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "agent.apiKey",
			Message: "apiKey is required. Use {\"$env\": \"AGENT_API_KEY\"}",
		})
		return
	}
	if err := validateEnvVarReference(apiKey, "apiKey", "agent.apiKey"); err != nil {
		result.Errors = append(result.Errors, *err)
	}
}

func validateInviteStructure(rawConfig map[string]any, result *ValidationResult) {
	invite, ok := rawConfig["invite"].(map[string]any)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "invite",
			Message: "invite field is required and must be an object",
		})
		return
	}

	if channel, ok := invite["channel"].(string); !ok || channel == "" {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "invite.channel",
			Message: "channel is required. Example: \"general\"",
		})
	}
}

// validateEnvVarReference validates that a secret field uses the env
// reference format rather than a literal
func validateEnvVarReference(value any, fieldName, path string) *ValidationError {
	switch v := value.(type) {
	case string:
		// Check if it looks like a bash-style env var
		bashStyleRegex := regexp.MustCompile(`\$\{?([A-Z_][A-Z0-9_]*)\}?`)
		if matches := bashStyleRegex.FindStringSubmatch(v); len(matches) > 1 {
			varName := matches[1]
			return &ValidationError{
				Path:    path,
				Message: fmt.Sprintf("found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead. Hint: JSON syntax prevents accidental shell expansion and ensures security", v, varName),
			}
		}
		// Plain string value
		return &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s must use environment variable reference {\"$env\": \"YOUR_ENV_VAR\"} instead of plain text '%s'. Hint: This prevents secrets from being stored in config files", fieldName, v),
		}
	case map[string]any:
		if _, hasEnv := v["$env"]; !hasEnv {
			return &ValidationError{
				Path:    path,
				Message: fmt.Sprintf("%s must use {\"$env\": \"YOUR_ENV_VAR\"} format, not %v", fieldName, v),
			}
		}
		return nil
	default:
		return &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s must be an environment variable reference {\"$env\": \"YOUR_ENV_VAR\"}, not %T", fieldName, value),
		}
	}
}

// checkBashStyleSyntax recursively checks for bash-style env var syntax
func checkBashStyleSyntax(value any, path string, result *ValidationResult) {
	bashStyleRegex := regexp.MustCompile(`\$\{?[A-Z_][A-Z0-9_]*\}?`)

	switch v := value.(type) {
	case string:
		if matches := bashStyleRegex.FindAllString(v, -1); len(matches) > 0 {
			for _, match := range matches {
				varName := strings.Trim(match, "${}")
				result.Warnings = append(result.Warnings, ValidationError{
					Path:    path,
					Message: fmt.Sprintf("found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead. Hint: JSON syntax prevents accidental shell expansion in scripts/CI and ensures unambiguous parsing", match, varName),
				})
			}
		}
	case map[string]any:
		// Skip if this is already an env ref
		if _, hasEnv := v["$env"]; hasEnv {
			return
		}

		for key, val := range v {
			newPath := path
			if newPath == "" {
				newPath = key
			} else {
				newPath = path + "." + key
			}
			checkBashStyleSyntax(val, newPath, result)
		}
	case []any:
		for i, item := range v {
			newPath := fmt.Sprintf("%s[%d]", path, i)
			checkBashStyleSyntax(item, newPath, result)
		}
	}
}

func validateSessionsStructure(sessions map[string]any, result *ValidationResult) {
	var ttlStr, cleanupStr string
	var hasTTL, hasCleanup bool

	if t, ok := sessions["ttl"].(string); ok {
		ttlStr = t
		hasTTL = true
		if _, err := time.ParseDuration(t); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "sessions.ttl",
				Message: fmt.Sprintf("invalid duration '%s' - use Go duration syntax like \"30m\"", t),
			})
		}
	}

	if c, ok := sessions["cleanupInterval"].(string); ok {
		cleanupStr = c
		hasCleanup = true
		if _, err := time.ParseDuration(c); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "sessions.cleanupInterval",
				Message: fmt.Sprintf("invalid duration '%s' - use Go duration syntax like \"5m\"", c),
			})
		}
	}

	if hasTTL && hasCleanup {
		ttlDur, err1 := time.ParseDuration(ttlStr)
		cleanupDur, err2 := time.ParseDuration(cleanupStr)

		if err1 == nil && err2 == nil && cleanupDur > ttlDur {
			result.Warnings = append(result.Warnings, ValidationError{
				Path: "sessions",
				Message: fmt.Sprintf(
					"cleanupInterval (%s) is longer than ttl (%s). Expired sessions will remain in memory until cleanup runs.",
					cleanupStr, ttlStr,
				),
			})
		}
	}
}
