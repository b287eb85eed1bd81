package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the criticality tier of a compliance rule.
// Higher values dominate lower ones when deriving a verdict.
type Severity int

const (
	// SeverityInfo marks rules that only warrant a note
	SeverityInfo Severity = iota + 1
	// SeverityWarning marks rules that need qualification or substantiation
	SeverityWarning
	// SeverityCritical marks rules whose violation blocks publication
	SeverityCritical
)

// String returns the lowercase name used in rule files and JSON
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity converts a severity name into a Severity
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalJSON encodes the severity as its name
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity name
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Verdict is the aggregate compliance label for a piece of copy
type Verdict int

const (
	// VerdictCompliant means no rule matched
	VerdictCompliant Verdict = iota
	// VerdictMinorNotes means only info rules matched
	VerdictMinorNotes
	// VerdictCaution means at least one warning rule matched and no critical rule
	VerdictCaution
	// VerdictNeedsReview means at least one critical rule matched
	VerdictNeedsReview
)

// String returns the human-readable label shown to reviewers
func (v Verdict) String() string {
	switch v {
	case VerdictCompliant:
		return "Compliant"
	case VerdictMinorNotes:
		return "Minor Notes"
	case VerdictCaution:
		return "Caution"
	case VerdictNeedsReview:
		return "Needs Review"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// ParseVerdict converts a label produced by String back into a Verdict
func ParseVerdict(s string) (Verdict, error) {
	for _, v := range []Verdict{VerdictCompliant, VerdictMinorNotes, VerdictCaution, VerdictNeedsReview} {
		if strings.EqualFold(v.String(), strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown verdict %q", s)
}

// MarshalJSON encodes the verdict as its label
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes a verdict label
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseVerdict(label)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ComplianceIssue records that one rule matched a piece of text
type ComplianceIssue struct {
	RuleName     string   `json:"rule"`
	Severity     Severity `json:"severity"`
	MatchedTerms []string `json:"matched_terms"` // deduplicated, sorted
}
