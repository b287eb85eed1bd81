// Package compliance classifies marketing copy against per-category rule sets.
// Rules are loaded from the embedded rules.json and compiled once; a rule that
// fails to compile is a configuration error and the process should not start.
package compliance

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/jonathan/campaign-copy/internal/types"
)

//go:embed rules.json
var embeddedRules []byte

// Rule is a compiled compliance rule. Patterns match case-insensitively.
type Rule struct {
	Name     string
	Severity types.Severity
	Pattern  *regexp.Regexp
}

// RuleSpec is the uncompiled form of a rule as it appears in rules.json
type RuleSpec struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Pattern  string `json:"pattern"`
}

// CategorySpec lists the rules of one category in declaration order
type CategorySpec struct {
	Category string     `json:"category"`
	Rules    []RuleSpec `json:"rules"`
}

type rawCatalog struct {
	Version    int            `json:"version"`
	Categories []CategorySpec `json:"categories"`
}

// Catalog holds the compiled rules per category. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	version    int
	categories []string
	rules      map[string][]Rule
}

// Load compiles the embedded rule file
func Load() (*Catalog, error) {
	var raw rawCatalog
	if err := json.Unmarshal(embeddedRules, &raw); err != nil {
		return nil, &config.ConfigurationError{Message: "failed to parse rules.json", Cause: err}
	}
	c, err := NewCatalog(raw.Categories)
	if err != nil {
		return nil, err
	}
	c.version = raw.Version
	return c, nil
}

// MustLoad compiles the embedded rule file, panicking on failure.
// Use this at process start where a broken rule file is fatal.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load compliance rules: %v", err))
	}
	return c
}

// NewCatalog compiles the given category specs, keeping declaration order.
func NewCatalog(specs []CategorySpec) (*Catalog, error) {
	c := &Catalog{
		categories: make([]string, 0, len(specs)),
		rules:      make(map[string][]Rule, len(specs)),
	}

	for _, cat := range specs {
		if cat.Category == "" {
			return nil, &config.ConfigurationError{Message: "rule category name is empty"}
		}
		if _, exists := c.rules[cat.Category]; exists {
			return nil, &config.ConfigurationError{Message: fmt.Sprintf("duplicate rule category %q", cat.Category)}
		}

		compiled := make([]Rule, 0, len(cat.Rules))
		for _, spec := range cat.Rules {
			rule, err := compileRule(spec)
			if err != nil {
				return nil, &config.ConfigurationError{
					Message: fmt.Sprintf("invalid rule %q in category %q", spec.Name, cat.Category),
					Cause:   err,
				}
			}
			compiled = append(compiled, rule)
		}

		c.categories = append(c.categories, cat.Category)
		c.rules[cat.Category] = compiled
	}

	return c, nil
}

func compileRule(spec RuleSpec) (Rule, error) {
	if spec.Name == "" {
		return Rule{}, fmt.Errorf("rule name is empty")
	}
	if spec.Pattern == "" {
		return Rule{}, fmt.Errorf("pattern is empty")
	}
	severity, err := types.ParseSeverity(spec.Severity)
	if err != nil {
		return Rule{}, err
	}
	re, err := regexp.Compile("(?i)(?:" + spec.Pattern + ")")
	if err != nil {
		return Rule{}, fmt.Errorf("failed to compile pattern: %w", err)
	}
	return Rule{Name: spec.Name, Severity: severity, Pattern: re}, nil
}

// RulesFor returns the rules of a category in declaration order.
// Unknown categories have no rules.
func (c *Catalog) RulesFor(category string) []Rule {
	rules := c.rules[category]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Categories returns the categories that have rules, in file order
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// Version is the version stamp of the loaded rule file (0 for catalogs built in code)
func (c *Catalog) Version() int {
	return c.version
}
