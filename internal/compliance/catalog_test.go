package compliance

import (
	"errors"
	"testing"

	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/jonathan/campaign-copy/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedRules(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, c.Version())
	assert.Equal(t, []string{"Skincare", "Food & Beverage", "Household", "Haircare", "Baby Care"}, c.Categories())

	household := c.RulesFor("Household")
	require.Len(t, household, 4)
	assert.Equal(t, "No absolute safety claims", household[0].Name)
	assert.Equal(t, types.SeverityCritical, household[0].Severity)
	assert.Equal(t, "Efficacy claims need qualification", household[3].Name)
	assert.Equal(t, types.SeverityWarning, household[3].Severity)
}

func TestMustLoad_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { MustLoad() })
}

func TestRulesFor_UnknownCategory(t *testing.T) {
	c := MustLoad()
	rules := c.RulesFor("Pet Supplies")
	assert.NotNil(t, rules)
	assert.Empty(t, rules)
}

func TestRulesFor_ReturnsCopy(t *testing.T) {
	c := MustLoad()
	rules := c.RulesFor("Skincare")
	rules[0].Name = "mutated"

	assert.Equal(t, "No disease treatment claims", c.RulesFor("Skincare")[0].Name)
}

func TestNewCatalog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		specs   []CategorySpec
		wantErr string
	}{
		{
			name:    "bad pattern",
			specs:   []CategorySpec{{Category: "Toys", Rules: []RuleSpec{{Name: "broken", Severity: "critical", Pattern: "(unclosed"}}}},
			wantErr: `invalid rule "broken"`,
		},
		{
			name:    "bad severity",
			specs:   []CategorySpec{{Category: "Toys", Rules: []RuleSpec{{Name: "odd", Severity: "fatal", Pattern: "x"}}}},
			wantErr: "unknown severity",
		},
		{
			name:    "empty pattern",
			specs:   []CategorySpec{{Category: "Toys", Rules: []RuleSpec{{Name: "empty", Severity: "info"}}}},
			wantErr: "pattern is empty",
		},
		{
			name: "duplicate category",
			specs: []CategorySpec{
				{Category: "Toys"},
				{Category: "Toys"},
			},
			wantErr: "duplicate rule category",
		},
		{
			name:    "empty category",
			specs:   []CategorySpec{{Category: ""}},
			wantErr: "category name is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCatalog(tt.specs)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, err.Error(), tt.wantErr)

			var cfgErr *config.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "rule errors are configuration errors")
		})
	}
}
