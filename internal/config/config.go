// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Provider names accepted in configuration
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Defaults applied by MergeWithDefaults
const (
	DefaultProvider        = ProviderOpenAI
	DefaultModel           = "gpt-4o-mini"
	DefaultMaxOutputTokens = 1200
	DefaultTimeoutSeconds  = 90
	DefaultPort            = 8080
	DefaultVariants        = 2
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Generation service
	Provider        string `json:"provider,omitempty"`          // "openai" or "gemini"
	Model           string `json:"model,omitempty"`             // Default model identifier
	BaseURL         string `json:"base_url,omitempty"`          // OpenAI-compatible endpoint override
	APIKey          string `json:"api_key,omitempty"`           // Generation service credential
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"` // Token ceiling per reply
	TimeoutSeconds  int    `json:"timeout_seconds,omitempty"`   // Bound on a single generation call

	// Campaign defaults
	Variants int `json:"variants,omitempty"` // Variants per channel

	// Infrastructure
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Port        int    `json:"port,omitempty"`         // HTTP port for serve
	LogLevel    string `json:"log_level,omitempty"`    // trace, debug, info, warn, error
	LogFormat   string `json:"log_format,omitempty"`   // console or json
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, &ConfigurationError{Message: "config path is empty"}
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("failed to read config file %s", path),
			Cause:   err,
		}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigurationError{
			Message: "failed to parse config JSON",
			Cause:   err,
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	switch c.Provider {
	case "", ProviderOpenAI, ProviderGemini:
	default:
		return &ConfigurationError{Message: fmt.Sprintf("unknown provider %q", c.Provider)}
	}

	if c.MaxOutputTokens < 0 {
		return &ConfigurationError{Message: "'max_output_tokens' must be non-negative"}
	}
	if c.TimeoutSeconds < 0 {
		return &ConfigurationError{Message: "'timeout_seconds' must be non-negative"}
	}
	if c.Variants < 0 || c.Variants > 5 {
		return &ConfigurationError{Message: "'variants' must be between 1 and 5"}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &ConfigurationError{Message: "'port' is out of range"}
	}

	switch c.LogFormat {
	case "", "console", "json":
	default:
		return &ConfigurationError{Message: fmt.Sprintf("unknown log format %q", c.LogFormat)}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Fields still empty after the merge receive the package defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.MaxOutputTokens == 0 {
		result.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if result.Variants == 0 {
		result.Variants = defaults.Variants
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	result.applyBuiltins()
	return result
}

func (c *Config) applyBuiltins() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Model == "" {
		if c.Provider == ProviderGemini {
			c.Model = "gemini-2.5-flash"
		} else {
			c.Model = DefaultModel
		}
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Variants == 0 {
		c.Variants = DefaultVariants
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// FromEnv builds a Config from environment variables.
// It is intended as the defaults argument of MergeWithDefaults.
func FromEnv() Config {
	cfg := Config{
		Provider:    strings.ToLower(os.Getenv("COPY_PROVIDER")),
		Model:       os.Getenv("COPY_MODEL"),
		BaseURL:     os.Getenv("OPENAI_BASE_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
	}
	return cfg
}

// Timeout returns the bound on a single generation call
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// APIKeyEnvVar returns the environment variable holding the credential for a provider
func APIKeyEnvVar(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// ResolveAPIKey returns the generation credential from the config or the environment.
// A missing credential is a ConfigurationError; callers resolve it once at startup.
func (c *Config) ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key, nil
	}
	envVar := APIKeyEnvVar(c.Provider)
	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		return key, nil
	}
	return "", &ConfigurationError{
		Message: fmt.Sprintf("%s is missing; add it to .env or your shell environment", envVar),
	}
}
