package llm

import (
	"context"
	"fmt"

	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/rs/zerolog"
)

// Request is one structured generation call
type Request struct {
	System          string // system instruction
	User            string // user instruction
	Model           string // empty uses the client default
	MaxOutputTokens int    // zero uses the client default
}

// Client is an abstraction over generation providers
type Client interface {
	// GenerateJSON sends one request and returns the reply text, expected to hold a JSON object.
	// Failures are reported as *TransportError or *ProtocolError.
	GenerateJSON(ctx context.Context, req Request) (string, error)
	// Provider identifies the backing service
	Provider() Provider
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a client for the configured provider
func NewClient(ctx context.Context, cfg *Config, apiKey string, logger zerolog.Logger) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if apiKey == "" {
		return nil, &config.ConfigurationError{Message: fmt.Sprintf("API key is required for provider %s", cfg.Provider)}
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg, apiKey, logger), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, apiKey, logger)
	default:
		return nil, &config.ConfigurationError{Message: fmt.Sprintf("unsupported provider %q", cfg.Provider)}
	}
}
