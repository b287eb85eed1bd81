package types

// GenerationRequest carries everything needed to generate copy for one channel
type GenerationRequest struct {
	Product      Product `json:"product"`
	Channel      Channel `json:"channel"`
	Tone         string  `json:"tone"`
	Occasion     string  `json:"occasion"`
	VariantCount int     `json:"variant_count"`
	Direction    string  `json:"direction,omitempty"`
	Model        string  `json:"model"`
}

// RawVariant is one variant exactly as returned by the generation service
type RawVariant struct {
	Label           string   `json:"label"`
	Headline        string   `json:"headline"`
	Body            string   `json:"body"`
	CTA             string   `json:"cta"`
	Hashtags        []string `json:"hashtags"`
	ComplianceNotes string   `json:"complianceNotes"`
}

// ComplianceText is the text scanned by the compliance evaluator
func (v RawVariant) ComplianceText() string {
	return v.Headline + " " + v.Body + " " + v.CTA
}

// ContentVariant is a generated variant enriched with system-derived compliance results.
// It is built once by the pipeline and not modified afterwards.
type ContentVariant struct {
	Label           string            `json:"label"`
	Headline        string            `json:"headline"`
	Body            string            `json:"body"`
	CallToAction    string            `json:"cta"`
	Hashtags        []string          `json:"hashtags"`
	ComplianceNotes string            `json:"compliance_notes"`
	Issues          []ComplianceIssue `json:"issues"`
	Verdict         Verdict           `json:"verdict"`
}

// ChannelResult groups the variants generated for one channel
type ChannelResult struct {
	ChannelID   string           `json:"channel_id"`
	ChannelName string           `json:"channel_name"`
	Variants    []ContentVariant `json:"variants"`
}
