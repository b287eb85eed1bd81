package prompting

import (
	"errors"
	"testing"

	"github.com/jonathan/campaign-copy/internal/compliance"
	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/jonathan/campaign-copy/internal/reference"
	"github.com/jonathan/campaign-copy/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComposer(t *testing.T) (*Composer, *reference.Library) {
	t.Helper()
	lib, err := reference.Load()
	require.NoError(t, err)
	return NewComposer(lib, compliance.MustLoad()), lib
}

func request(t *testing.T, lib *reference.Library, productID, channelID string) types.GenerationRequest {
	t.Helper()
	p, err := lib.Product(productID)
	require.NoError(t, err)
	ch, err := lib.Channel(channelID)
	require.NoError(t, err)
	return types.GenerationRequest{
		Product:      p,
		Channel:      ch,
		Tone:         "Playful",
		Occasion:     "Spring Launch",
		VariantCount: 3,
		Model:        "gpt-4o-mini",
	}
}

func TestCompose_SystemPrompt(t *testing.T) {
	c, lib := newTestComposer(t)

	prompt, err := c.Compose(request(t, lib, "p3", "instagram"))
	require.NoError(t, err)

	assert.Contains(t, prompt.System, `BRAND VOICE GUIDE for "EcoClean Home"`)
	assert.Contains(t, prompt.System, "Avoid These Words: toxic, chemical-free (misleading), 100% safe, kills all")
	assert.Contains(t, prompt.System, "Brand Tagline: Clean Home, Clean Planet")
	assert.Contains(t, prompt.System, "COMPLIANCE RULES for Household:")
	assert.Contains(t, prompt.System, "- CRITICAL: No absolute safety claims")
	assert.Contains(t, prompt.System, "- WARNING: Efficacy claims need qualification")
	for _, field := range []string{`"label"`, `"headline"`, `"body"`, `"cta"`, `"hashtags"`, `"complianceNotes"`} {
		assert.Contains(t, prompt.System, field)
	}
	assert.Contains(t, prompt.System, "respond ONLY with valid JSON")
	assert.NotContains(t, prompt.System, "{{.")
}

func TestCompose_UserPrompt(t *testing.T) {
	c, lib := newTestComposer(t)

	req := request(t, lib, "p1", "sms")
	prompt, err := c.Compose(req)
	require.NoError(t, err)

	assert.Contains(t, prompt.User, "Create 3 distinct marketing content variants")
	assert.Contains(t, prompt.User, "PRODUCT: PureGlow Vitamin C Serum")
	assert.Contains(t, prompt.User, "CHANNEL: SMS/WhatsApp")
	assert.Contains(t, prompt.User, "MAX LENGTH: 160 characters")
	assert.Contains(t, prompt.User, "CAMPAIGN TONE: Playful")
	assert.Contains(t, prompt.User, "SEASON/OCCASION: Spring Launch")
	assert.NotContains(t, prompt.User, "ADDITIONAL DIRECTION")
	assert.NotContains(t, prompt.User, "{{.")

	req.Direction = "  Mention the spring bundle  "
	prompt, err = c.Compose(req)
	require.NoError(t, err)
	assert.Contains(t, prompt.User, "ADDITIONAL DIRECTION: Mention the spring bundle\n")
}

func TestCompose_Deterministic(t *testing.T) {
	c, lib := newTestComposer(t)
	req := request(t, lib, "p2", "email")

	first, err := c.Compose(req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Compose(req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompose_CategoryWithoutRules(t *testing.T) {
	c, lib := newTestComposer(t)
	req := request(t, lib, "p1", "email")
	req.Product.Category = "Pet Supplies"

	prompt, err := c.Compose(req)
	require.NoError(t, err)
	assert.Contains(t, prompt.System, "No category-specific rules apply.")
}

func TestCompose_MissingReferenceData(t *testing.T) {
	c, lib := newTestComposer(t)

	t.Run("unknown brand", func(t *testing.T) {
		req := request(t, lib, "p1", "email")
		req.Product.Brand = "Nobody Inc."
		_, err := c.Compose(req)
		require.Error(t, err)
		var cfgErr *config.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, err.Error(), "Nobody Inc.")
	})

	t.Run("missing category", func(t *testing.T) {
		req := request(t, lib, "p1", "email")
		req.Product.Category = ""
		_, err := c.Compose(req)
		var cfgErr *config.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
	})
}
