package export

import (
	"encoding/csv"
	"strings"

	"github.com/jonathan/campaign-copy/internal/types"
)

var csvHeader = []string{"channel", "label", "headline", "body", "cta", "hashtags", "complianceNotes", "verdict"}

// CSV renders one row per variant
func CSV(results []types.ChannelResult) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", &RenderError{Format: FormatCSV, Message: "failed to write header", Cause: err}
	}
	for _, result := range results {
		for _, v := range result.Variants {
			row := []string{
				result.ChannelName,
				v.Label,
				v.Headline,
				v.Body,
				v.CallToAction,
				strings.Join(v.Hashtags, ", "),
				v.ComplianceNotes,
				v.Verdict.String(),
			}
			if err := w.Write(row); err != nil {
				return "", &RenderError{Format: FormatCSV, Message: "failed to write row", Cause: err}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", &RenderError{Format: FormatCSV, Message: "failed to flush", Cause: err}
	}
	return sb.String(), nil
}
