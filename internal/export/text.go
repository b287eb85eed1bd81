// Package export renders generation results as plain text, CSV and JSON documents.
package export

import (
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/jonathan/campaign-copy/internal/types"
)

//go:embed transcript.tmpl
var transcriptTemplate string

var transcript = template.Must(template.New("transcript").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"join":  func(items []string) string { return strings.Join(items, ", ") },
	"upper": strings.ToUpper,
	"rule":  func() string { return strings.Repeat("-", 60) },
}).Parse(transcriptTemplate))

type transcriptData struct {
	GeneratedAt string
	Product     types.Product
	Results     []types.ChannelResult
}

// Text renders a human-readable transcript grouped by channel, then variant
func Text(product types.Product, results []types.ChannelResult, generatedAt time.Time) (string, error) {
	var sb strings.Builder
	err := transcript.Execute(&sb, transcriptData{
		GeneratedAt: generatedAt.Format(time.RFC3339),
		Product:     product,
		Results:     results,
	})
	if err != nil {
		return "", &TemplateError{Message: "failed to execute transcript template", Cause: err}
	}
	return sb.String(), nil
}
