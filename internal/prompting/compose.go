// Package prompting renders the instruction pair sent to the generation service
// for one product, channel and campaign combination.
package prompting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/campaign-copy/internal/compliance"
	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/jonathan/campaign-copy/internal/prompts"
	"github.com/jonathan/campaign-copy/internal/types"
)

const promptFile = "generation.json"

// BrandLookup resolves a brand's style guide by brand name
type BrandLookup interface {
	Brand(name string) (types.BrandStyleGuide, bool)
}

// Prompt is a rendered system/user instruction pair
type Prompt struct {
	System string
	User   string
}

// Composer renders prompts. It performs no I/O and holds no mutable state.
type Composer struct {
	brands BrandLookup
	rules  *compliance.Catalog
}

// NewComposer creates a Composer over brand reference data and the rule catalog
func NewComposer(brands BrandLookup, rules *compliance.Catalog) *Composer {
	return &Composer{brands: brands, rules: rules}
}

// Compose renders the prompts for req. A product whose brand has no style
// guide, or that has no category, is a configuration error.
func (c *Composer) Compose(req types.GenerationRequest) (Prompt, error) {
	product := req.Product
	if strings.TrimSpace(product.Category) == "" {
		return Prompt{}, &config.ConfigurationError{
			Message: fmt.Sprintf("product %q has no category", product.ID),
		}
	}
	brand, ok := c.brands.Brand(product.Brand)
	if !ok {
		return Prompt{}, &config.ConfigurationError{
			Message: fmt.Sprintf("no brand style guide for %q (product %s)", product.Brand, product.ID),
		}
	}

	system, err := c.renderSystem(product, brand)
	if err != nil {
		return Prompt{}, err
	}
	user, err := renderUser(req)
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{System: system, User: user}, nil
}

func (c *Composer) renderSystem(product types.Product, brand types.BrandStyleGuide) (string, error) {
	template, err := prompts.Get(promptFile, "system")
	if err != nil {
		return "", &config.ConfigurationError{Message: "system prompt template unavailable", Cause: err}
	}

	rulesText, err := c.rulesText(product.Category)
	if err != nil {
		return "", err
	}

	return prompts.Format(template, map[string]string{
		"Brand":       product.Brand,
		"BrandTone":   brand.Tone,
		"VoiceTraits": strings.Join(brand.VoiceTraits, ", "),
		"DoWords":     strings.Join(brand.DoWords, ", "),
		"DontWords":   strings.Join(brand.DontWords, ", "),
		"Tagline":     brand.Tagline,
		"Category":    product.Category,
		"Rules":       rulesText,
	}), nil
}

// rulesText lists every rule of the category as a generation guardrail
func (c *Composer) rulesText(category string) (string, error) {
	rules := c.rules.RulesFor(category)
	if len(rules) == 0 {
		none, err := prompts.Get(promptFile, "no-rules")
		if err != nil {
			return "", &config.ConfigurationError{Message: "no-rules prompt unavailable", Cause: err}
		}
		return none, nil
	}

	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		lines = append(lines, fmt.Sprintf("- %s: %s", strings.ToUpper(r.Severity.String()), r.Name))
	}
	return strings.Join(lines, "\n"), nil
}

func renderUser(req types.GenerationRequest) (string, error) {
	template, err := prompts.Get(promptFile, "user")
	if err != nil {
		return "", &config.ConfigurationError{Message: "user prompt template unavailable", Cause: err}
	}

	direction := ""
	if d := strings.TrimSpace(req.Direction); d != "" {
		directionTemplate, err := prompts.Get(promptFile, "direction")
		if err != nil {
			return "", &config.ConfigurationError{Message: "direction prompt template unavailable", Cause: err}
		}
		direction = prompts.Format(directionTemplate, map[string]string{"Direction": d})
	}

	p := req.Product
	return prompts.Format(template, map[string]string{
		"VariantCount":   strconv.Itoa(req.VariantCount),
		"ProductName":    p.Name,
		"Category":       p.Category,
		"Features":       strings.Join(p.Features, ", "),
		"Benefits":       strings.Join(p.Benefits, ", "),
		"Usage":          p.Usage,
		"TargetAudience": p.TargetAudience,
		"PricePoint":     p.PricePoint,
		"USP":            p.USP,
		"ChannelName":    req.Channel.Name,
		"ChannelFormat":  req.Channel.Format,
		"MaxLength":      strconv.Itoa(req.Channel.MaxLength),
		"Tone":           req.Tone,
		"Occasion":       req.Occasion,
		"Direction":      direction,
	}), nil
}
