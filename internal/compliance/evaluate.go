package compliance

import (
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/campaign-copy/internal/types"
)

// Evaluator applies a category's rules to free text
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator creates an Evaluator over the given catalog
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Evaluate returns one issue per matching rule, in rule declaration order.
// Each issue carries the distinct matched substrings, sorted, as they appear in text.
func (e *Evaluator) Evaluate(text, category string) []types.ComplianceIssue {
	issues := []types.ComplianceIssue{}
	if text == "" {
		return issues
	}

	for _, rule := range e.catalog.RulesFor(category) {
		terms := matchTerms(rule, text)
		if len(terms) == 0 {
			continue
		}
		issues = append(issues, types.ComplianceIssue{
			RuleName:     rule.Name,
			Severity:     rule.Severity,
			MatchedTerms: terms,
		})
	}

	return issues
}

// Check evaluates text and derives its verdict in one call
func (e *Evaluator) Check(text, category string) ([]types.ComplianceIssue, types.Verdict) {
	issues := e.Evaluate(text, category)
	return issues, VerdictFor(issues)
}

// matchTerms collects the word-delimited matches of a rule. A match rejected
// for sitting inside a word resumes the scan one rune past its start, so a
// valid match overlapping it ("contains" after "dismay contains") is still found.
func matchTerms(rule Rule, text string) []string {
	seen := make(map[string]struct{})
	var terms []string

	pos := 0
	for pos <= len(text) {
		loc := rule.Pattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]

		if start == end || !boundaryOK(text, start, end) {
			_, width := utf8.DecodeRuneInString(text[start:])
			if width == 0 {
				break
			}
			pos = start + width
			continue
		}

		term := text[start:end]
		if _, dup := seen[term]; !dup {
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
		pos = end
	}

	if len(terms) == 0 {
		return nil
	}
	sort.Strings(terms)
	return terms
}

// boundaryOK rejects matches embedded in a larger word ("cure" in "curettage").
// An edge is only checked when the match itself begins or ends with a word
// character, so phrases such as "100%" or "#1" still match next to spaces.
func boundaryOK(text string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:end])
	if isWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
	}

	last, _ := utf8.DecodeLastRuneInString(text[start:end])
	if isWordRune(last) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}

	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// VerdictFor derives the aggregate verdict from the most severe issue present.
// critical > warning > info > none.
func VerdictFor(issues []types.ComplianceIssue) types.Verdict {
	var worst types.Severity
	for _, issue := range issues {
		if issue.Severity > worst {
			worst = issue.Severity
		}
	}

	switch worst {
	case types.SeverityCritical:
		return types.VerdictNeedsReview
	case types.SeverityWarning:
		return types.VerdictCaution
	case types.SeverityInfo:
		return types.VerdictMinorNotes
	default:
		return types.VerdictCompliant
	}
}
