package llm

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

// OpenAIClient implements Client for OpenAI-compatible chat completion endpoints
type OpenAIClient struct {
	client openai.Client
	config *Config
	logger zerolog.Logger
}

// NewOpenAIClient creates a new OpenAI client. Retries are disabled; one request is one attempt.
func NewOpenAIClient(cfg *Config, apiKey string, logger zerolog.Logger) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		config: cfg,
		logger: logger.With().Str("provider", string(ProviderOpenAI)).Logger(),
	}
}

// GenerateJSON requests a JSON object reply
func (c *OpenAIClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	model := c.config.ModelFor(req.Model)
	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		MaxTokens: openai.Int(int64(c.config.TokensFor(req.MaxOutputTokens))),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyError(ProviderOpenAI, err)
	}

	c.logger.Debug().
		Str("model", model).
		Dur("duration", time.Since(start)).
		Int64("prompt_tokens", resp.Usage.PromptTokens).
		Int64("completion_tokens", resp.Usage.CompletionTokens).
		Msg("generation call completed")

	if len(resp.Choices) == 0 {
		return "", newProtocolError("reply has no choices", resp.RawJSON(), nil)
	}

	message := resp.Choices[0].Message
	text := messageText(message.RawJSON())
	if text == "" {
		text = message.Content
	}
	if strings.TrimSpace(text) == "" {
		return "", newProtocolError("reply has no content", message.RawJSON(), nil)
	}
	return text, nil
}

// Provider returns ProviderOpenAI
func (c *OpenAIClient) Provider() Provider {
	return ProviderOpenAI
}

// Close is a no-op; the HTTP client holds no dedicated resources
func (c *OpenAIClient) Close() error {
	return nil
}
