// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/campaign-copy/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to max runes, ending in "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// PrintRunRequest outputs what is about to be generated.
func (p *Printer) PrintRunRequest(product types.Product, channels []types.Channel, tone, occasion string, variants int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Product:  %s\n", product.Name))
	sb.WriteString(fmt.Sprintf("Brand:    %s\n", product.Brand))
	sb.WriteString(fmt.Sprintf("Category: %s\n", product.Category))
	sb.WriteString(fmt.Sprintf("Tone:     %s\n", tone))
	if occasion != "" {
		sb.WriteString(fmt.Sprintf("Occasion: %s\n", occasion))
	}
	sb.WriteString(fmt.Sprintf("Variants: %d per channel\n", variants))
	sb.WriteString("\nChannels:\n")
	for _, ch := range channels {
		sb.WriteString(fmt.Sprintf("  • %s (max %d chars)\n", ch.Name, ch.MaxLength))
	}

	p.printBox("GENERATION REQUEST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintChannelResult outputs the variants of one channel with their verdicts.
func (p *Printer) PrintChannelResult(result types.ChannelResult) {
	if len(result.Variants) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(result.Variants), maxItemsToShow)
	for i := 0; i < count; i++ {
		v := result.Variants[i]
		sb.WriteString(fmt.Sprintf("%s  [%s]\n", v.Label, v.Verdict))
		sb.WriteString(fmt.Sprintf("  %s\n", v.Headline))
		sb.WriteString(fmt.Sprintf("  CTA: %s\n", v.CallToAction))
		for _, issue := range v.Issues {
			sb.WriteString(fmt.Sprintf("  ⚠ %s: %s\n", issue.Severity, issue.RuleName))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(result.Variants) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more variants", len(result.Variants)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(result.ChannelName), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompliance outputs the result of an ad hoc compliance check.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCompliance(issues []types.ComplianceIssue, verdict types.Verdict) {
	if len(issues) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO COMPLIANCE ISSUES FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Verdict: %s\n", verdict))
	sb.WriteString(fmt.Sprintf("Found %d issues:\n\n", len(issues)))

	for i, issue := range issues {
		sb.WriteString(fmt.Sprintf("⚠ [%s] %s\n", issue.Severity, issue.RuleName))
		sb.WriteString(fmt.Sprintf("  matches: %s\n", strings.Join(issue.MatchedTerms, ", ")))
		if i < len(issues)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("COMPLIANCE ISSUES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs verdict counts across all channels.
func (p *Printer) PrintSummary(results []types.ChannelResult) {
	if len(results) == 0 {
		return
	}

	counts := map[types.Verdict]int{}
	total := 0
	for _, r := range results {
		for _, v := range r.Variants {
			counts[v.Verdict]++
			total++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Channels: %d   Variants: %d\n\n", len(results), total))
	for _, verdict := range []types.Verdict{
		types.VerdictCompliant,
		types.VerdictMinorNotes,
		types.VerdictCaution,
		types.VerdictNeedsReview,
	} {
		sb.WriteString(fmt.Sprintf("%-14s %d\n", verdict.String()+":", counts[verdict]))
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
