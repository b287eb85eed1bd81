package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Ordering(t *testing.T) {
	assert.Less(t, int(SeverityInfo), int(SeverityWarning))
	assert.Less(t, int(SeverityWarning), int(SeverityCritical))
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{input: "critical", want: SeverityCritical},
		{input: "WARNING", want: SeverityWarning},
		{input: " info ", want: SeverityInfo},
		{input: "fatal", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerdict_Labels(t *testing.T) {
	assert.Equal(t, "Compliant", VerdictCompliant.String())
	assert.Equal(t, "Minor Notes", VerdictMinorNotes.String())
	assert.Equal(t, "Caution", VerdictCaution.String())
	assert.Equal(t, "Needs Review", VerdictNeedsReview.String())

	v, err := ParseVerdict("needs review")
	require.NoError(t, err)
	assert.Equal(t, VerdictNeedsReview, v)

	_, err = ParseVerdict("Unknown")
	assert.Error(t, err)
}

func TestContentVariant_JSONMarshaling(t *testing.T) {
	variant := ContentVariant{
		Label:        "Variant A",
		Headline:     "Glow up",
		Body:         "Brighter skin in weeks.",
		CallToAction: "Shop now",
		Hashtags:     []string{"glow", "vitaminC"},
		Issues: []ComplianceIssue{
			{RuleName: "No guaranteed results claims", Severity: SeverityCritical, MatchedTerms: []string{"guaranteed"}},
		},
		Verdict: VerdictNeedsReview,
	}

	jsonBytes, err := json.MarshalIndent(variant, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"cta": "Shop now"`)
	assert.Contains(t, string(jsonBytes), `"severity": "critical"`)
	assert.Contains(t, string(jsonBytes), `"verdict": "Needs Review"`)

	var decoded ContentVariant
	require.NoError(t, json.Unmarshal(jsonBytes, &decoded))
	assert.Equal(t, variant, decoded)
}

func TestRawVariant_ComplianceText(t *testing.T) {
	v := RawVariant{Headline: "Fresh", Body: "Clean home.", CTA: "Buy"}
	assert.Equal(t, "Fresh Clean home. Buy", v.ComplianceText())
}
