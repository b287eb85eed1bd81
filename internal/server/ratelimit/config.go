package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits one endpoint
type Rule struct {
	Method string
	Path   string        // exact request path
	Limit  int           // requests per window
	Window time.Duration // refill period for Limit tokens
	Burst  int           // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration
type Config struct {
	Enabled         bool
	Rules           []Rule
	Whitelist       map[string]bool
	CleanupInterval time.Duration
	IdleTTL         time.Duration // buckets unused for this long are dropped
}

// DefaultRules limits the generation endpoints, which each cost one or more
// generation calls, and the compliance check more leniently.
func DefaultRules(generateLimit int, window time.Duration) []Rule {
	return []Rule{
		{Method: http.MethodPost, Path: "/generate", Limit: generateLimit, Window: window, Burst: 2},
		{Method: http.MethodPost, Path: "/generate/stream", Limit: generateLimit, Window: window, Burst: 2},
		{Method: http.MethodPost, Path: "/compliance/check", Limit: 600, Window: time.Minute, Burst: 60},
	}
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Rules:           DefaultRules(30, time.Hour),
		Whitelist:       map[string]bool{},
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
	}
}

// LoadConfig loads rate limiting configuration from environment variables
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", true)
	cfg.Rules = DefaultRules(
		getEnvInt("RATE_LIMIT_GENERATE_LIMIT", 30),
		getEnvDuration("RATE_LIMIT_GENERATE_WINDOW", time.Hour),
	)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	return cfg
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
