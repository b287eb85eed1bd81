package export

import (
	"encoding/json"
	"time"

	"github.com/jonathan/campaign-copy/internal/schemas"
	"github.com/jonathan/campaign-copy/internal/types"
)

// Document is the structured export of one run, carrying the full product record
type Document struct {
	GeneratedAt time.Time             `json:"generatedAt"`
	Product     types.Product         `json:"product"`
	Results     []types.ChannelResult `json:"results"`
}

// JSON renders the structured document and validates it against the export schema
func JSON(product types.Product, results []types.ChannelResult, generatedAt time.Time) ([]byte, error) {
	if results == nil {
		results = []types.ChannelResult{}
	}
	doc := Document{
		GeneratedAt: generatedAt.UTC().Truncate(time.Second),
		Product:     product,
		Results:     results,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &RenderError{Format: FormatJSON, Message: "failed to marshal document", Cause: err}
	}
	if err := schemas.Validate(schemas.Export, string(data)); err != nil {
		return nil, &RenderError{Format: FormatJSON, Message: "document does not match export schema", Cause: err}
	}
	return data, nil
}
