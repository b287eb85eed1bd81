// Package reference provides the static product library, brand style guides,
// distribution channels and campaign tones that generation runs read from.
package reference

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/campaign-copy/internal/types"
)

//go:embed library.json
var embeddedLibrary []byte

// Data is the serialized form of a Library
type Data struct {
	Products []types.Product                 `json:"products" validate:"required,min=1,dive"`
	Brands   map[string]types.BrandStyleGuide `json:"brands" validate:"required,min=1,dive"`
	Channels []types.Channel                 `json:"channels" validate:"required,min=1,dive"`
	Tones    []string                        `json:"tones" validate:"required,min=1,dive,required"`
}

// Library is an immutable, indexed view of reference data
type Library struct {
	data         Data
	productsByID map[string]int
	channelsByID map[string]int
}

// NotFoundError reports an unknown identifier
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Load builds the Library from the embedded library.json
func Load() (*Library, error) {
	var data Data
	if err := json.Unmarshal(embeddedLibrary, &data); err != nil {
		return nil, fmt.Errorf("failed to parse library.json: %w", err)
	}
	return New(data)
}

// New validates data and indexes it by identifier
func New(data Data) (*Library, error) {
	if err := validator.New().Struct(data); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}

	lib := &Library{
		data:         data,
		productsByID: make(map[string]int, len(data.Products)),
		channelsByID: make(map[string]int, len(data.Channels)),
	}

	for i, p := range data.Products {
		if _, dup := lib.productsByID[p.ID]; dup {
			return nil, fmt.Errorf("invalid reference data: duplicate product id %q", p.ID)
		}
		lib.productsByID[p.ID] = i
	}
	for i, c := range data.Channels {
		if _, dup := lib.channelsByID[c.ID]; dup {
			return nil, fmt.Errorf("invalid reference data: duplicate channel id %q", c.ID)
		}
		lib.channelsByID[c.ID] = i
	}

	return lib, nil
}

// Product returns a product by id
func (l *Library) Product(id string) (types.Product, error) {
	idx, ok := l.productsByID[id]
	if !ok {
		return types.Product{}, &NotFoundError{Kind: "product", ID: id}
	}
	return l.data.Products[idx], nil
}

// Products returns all products in library order
func (l *Library) Products() []types.Product {
	out := make([]types.Product, len(l.data.Products))
	copy(out, l.data.Products)
	return out
}

// Brand returns the style guide for a brand name.
// It satisfies prompting.BrandLookup.
func (l *Library) Brand(name string) (types.BrandStyleGuide, bool) {
	guide, ok := l.data.Brands[name]
	return guide, ok
}

// Channel returns a channel by id
func (l *Library) Channel(id string) (types.Channel, error) {
	idx, ok := l.channelsByID[id]
	if !ok {
		return types.Channel{}, &NotFoundError{Kind: "channel", ID: id}
	}
	return l.data.Channels[idx], nil
}

// ChannelsByID resolves ids in the order given
func (l *Library) ChannelsByID(ids []string) ([]types.Channel, error) {
	out := make([]types.Channel, 0, len(ids))
	for _, id := range ids {
		ch, err := l.Channel(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// Channels returns all channels in library order
func (l *Library) Channels() []types.Channel {
	out := make([]types.Channel, len(l.data.Channels))
	copy(out, l.data.Channels)
	return out
}

// Tones returns the campaign tones offered to users
func (l *Library) Tones() []string {
	out := make([]string, len(l.data.Tones))
	copy(out, l.data.Tones)
	return out
}
