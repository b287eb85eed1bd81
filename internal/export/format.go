package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/campaign-copy/internal/types"
)

// Format names an export rendering
type Format string

// Supported formats
const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name; "text" is accepted for txt
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want txt, csv or json)", s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render renders results in the given format
func Render(format Format, product types.Product, results []types.ChannelResult, generatedAt time.Time) ([]byte, error) {
	switch format {
	case FormatText:
		text, err := Text(product, results, generatedAt)
		return []byte(text), err
	case FormatCSV:
		text, err := CSV(results)
		return []byte(text), err
	case FormatJSON:
		return JSON(product, results, generatedAt)
	default:
		return nil, &RenderError{Format: format, Message: "unsupported format"}
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FileName returns a download name such as "ecoclean-all-purpose-spray.csv"
func FileName(product types.Product, format Format) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(product.Name), "-"), "-")
	if slug == "" {
		slug = "campaign-content"
	}
	return slug + "." + string(format)
}
