// Package llm provides the generation service clients and reply parsing.
// Both supported providers sit behind the Client interface so callers can swap them freely.
package llm

// Provider represents a generation service provider
type Provider string

// Provider constants define supported providers
const (
	// ProviderOpenAI is any OpenAI-compatible chat completion endpoint
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultMaxOutputTokens bounds a single reply
const DefaultMaxOutputTokens = 1200

// Config holds the client configuration
type Config struct {
	Provider        Provider
	Model           string // used when a request names no model
	BaseURL         string // endpoint override, mainly for OpenAI-compatible gateways
	MaxOutputTokens int
}

// DefaultConfig returns the default configuration (OpenAI)
func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderOpenAI,
		Model:           "gpt-4o-mini",
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:        ProviderGemini,
		Model:           "gemini-2.5-flash",
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// ModelFor returns the requested model, falling back to the configured default
func (c *Config) ModelFor(requested string) string {
	if requested != "" {
		return requested
	}
	return c.Model
}

// TokensFor returns the requested token ceiling, falling back to the configured one
func (c *Config) TokensFor(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxOutputTokens > 0 {
		return c.MaxOutputTokens
	}
	return DefaultMaxOutputTokens
}

// WithModel returns a new Config with a different default model
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	newConfig.Model = model
	return &newConfig
}
