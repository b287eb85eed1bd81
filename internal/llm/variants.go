package llm

import (
	"context"
	"encoding/json"

	"github.com/jonathan/campaign-copy/internal/schemas"
	"github.com/jonathan/campaign-copy/internal/types"
)

type variantsReply struct {
	Variants []types.RawVariant `json:"variants"`
}

// GenerateVariants performs one generation call and parses the variants from its reply
func GenerateVariants(ctx context.Context, client Client, req Request) ([]types.RawVariant, error) {
	text, err := client.GenerateJSON(ctx, req)
	if err != nil {
		return nil, classifyError(client.Provider(), err)
	}
	return ParseVariants(text)
}

// ParseVariants extracts the variants array from a reply.
// The reply must be a JSON object whose "variants" array matches the variants schema.
func ParseVariants(text string) ([]types.RawVariant, error) {
	cleaned := CleanJSONBlock(text)
	if cleaned == "" {
		return nil, newProtocolError("reply is empty", text, nil)
	}
	if !json.Valid([]byte(cleaned)) {
		return nil, newProtocolError("reply is not valid JSON", text, nil)
	}
	if err := schemas.Validate(schemas.Variants, cleaned); err != nil {
		return nil, newProtocolError("reply does not contain a usable variants array", text, err)
	}

	var reply variantsReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, newProtocolError("reply could not be decoded", text, err)
	}

	for i := range reply.Variants {
		if reply.Variants[i].Hashtags == nil {
			reply.Variants[i].Hashtags = []string{}
		}
	}
	return reply.Variants, nil
}
