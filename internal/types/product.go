// Package types provides type definitions for structured data used throughout the campaign-copy system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Product is a catalog entry that marketing copy is generated for
type Product struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Category       string   `json:"category" validate:"required"`
	Brand          string   `json:"brand" validate:"required"`
	Features       []string `json:"features" validate:"required,min=1,dive,required"`
	Benefits       []string `json:"benefits" validate:"required,min=1,dive,required"`
	Usage          string   `json:"usage"`
	TargetAudience string   `json:"target_audience"`
	PricePoint     string   `json:"price_point"`
	USP            string   `json:"usp"`
}

// BrandStyleGuide describes the voice a brand's copy must be written in
type BrandStyleGuide struct {
	Tone        string   `json:"tone" validate:"required"`
	VoiceTraits []string `json:"voice_traits"`
	DoWords     []string `json:"do_words"`
	DontWords   []string `json:"dont_words"`
	Tagline     string   `json:"tagline"`
}

// Channel is a distribution surface with its own format and length limit
type Channel struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	MaxLength int    `json:"max_length" validate:"gt=0"`
	Format    string `json:"format" validate:"required"`
}
