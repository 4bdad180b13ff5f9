// Package schema defines the canonical entities of the rule corpus:
// rules, prompt templates, and the query descriptor used to match
// against them.
//
// Raw records arriving from YAML/JSON/Markdown parsers are normalized
// into these types before anything else touches them. Enum-like fields
// (rule type, severity) are closed types parsed at that boundary —
// an unknown value is a validation error, not a silent passthrough.
package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ─── Enums ───────────────────────────────────────────────────────────────────

// RuleType classifies what aspect of content a rule governs.
type RuleType string

// Rule types.
const (
	RuleTypeStyle       RuleType = "style"
	RuleTypeContent     RuleType = "content"
	RuleTypeFormat      RuleType = "format"
	RuleTypePerformance RuleType = "performance"
	RuleTypeSecurity    RuleType = "security"
)

// ParseRuleType converts a raw string into a RuleType.
// Unknown values are a *ValidationError.
func ParseRuleType(s string) (RuleType, error) {
	switch RuleType(strings.ToLower(strings.TrimSpace(s))) {
	case RuleTypeStyle:
		return RuleTypeStyle, nil
	case RuleTypeContent:
		return RuleTypeContent, nil
	case RuleTypeFormat:
		return RuleTypeFormat, nil
	case RuleTypePerformance:
		return RuleTypePerformance, nil
	case RuleTypeSecurity:
		return RuleTypeSecurity, nil
	}
	return "", &ValidationError{Field: "rule_type", Message: fmt.Sprintf("unknown rule type %q", s)}
}

// Severity is the severity attached to a rule's validation config.
type Severity string

// Severities, ordered from most to least severe.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity converts a raw string into a Severity.
// An empty string defaults to warning.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return SeverityWarning, nil
	case SeverityError:
		return SeverityError, nil
	case SeverityWarning:
		return SeverityWarning, nil
	case SeverityInfo:
		return SeverityInfo, nil
	}
	return "", &ValidationError{Field: "severity", Message: fmt.Sprintf("unknown severity %q", s)}
}

// ─── Rule ────────────────────────────────────────────────────────────────────

// ruleIDPattern is the identifier grammar for rules: a "CR-" prefix
// followed by alphanumerics, dashes, and underscores.
var ruleIDPattern = regexp.MustCompile(`^CR-[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Example is a good/bad illustration attached to a rule condition.
type Example struct {
	Good        string `json:"good,omitempty" yaml:"good,omitempty"`
	Bad         string `json:"bad,omitempty" yaml:"bad,omitempty"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// RuleCondition is one graded guideline inside a rule. Conditions are
// ordered; order is preserved through import and merge.
type RuleCondition struct {
	Condition   string    `json:"condition" yaml:"condition"`
	Guideline   string    `json:"guideline" yaml:"guideline"`
	Priority    int       `json:"priority" yaml:"priority"`
	Enforcement bool      `json:"enforcement,omitempty" yaml:"enforcement,omitempty"`
	Examples    []Example `json:"examples,omitempty" yaml:"examples,omitempty"`
	Pattern     string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	AntiPattern string    `json:"anti_pattern,omitempty" yaml:"anti_pattern,omitempty"`
}

// RuleValidation is the external-tool validation config carried by a
// rule. The core never runs these tools; it only stores the config for
// the transport layer's linter collaborators.
type RuleValidation struct {
	Tools          []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	Severity       Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
	AutoFix        bool     `json:"auto_fix,omitempty" yaml:"auto_fix,omitempty"`
	TimeoutSeconds int      `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Rule is a declarative guideline with applicability tags and graded
// conditions. rule_id is immutable once created; "deletion" is a
// soft-delete that clears Active.
type Rule struct {
	RuleID      string    `json:"rule_id" yaml:"rule_id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	Author      string    `json:"author,omitempty" yaml:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`

	RuleType     RuleType `json:"rule_type" yaml:"rule_type"`
	Languages    []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	Domains      []string `json:"domains,omitempty" yaml:"domains,omitempty"`
	ContentTypes []string `json:"content_types,omitempty" yaml:"content_types,omitempty"`
	TaskTypes    []string `json:"task_types,omitempty" yaml:"task_types,omitempty"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	Conditions []RuleCondition `json:"rules" yaml:"rules"`
	Validation RuleValidation  `json:"validation,omitempty" yaml:"validation,omitempty"`

	Active      bool    `json:"active" yaml:"active"`
	UsageCount  int     `json:"usage_count,omitempty" yaml:"usage_count,omitempty"`
	SuccessRate float64 `json:"success_rate,omitempty" yaml:"success_rate,omitempty"`
}

// Normalize cleans set-valued fields in place: tags/languages/domains/
// content_types are lowercased, trimmed, deduplicated, and emptied-out
// entries dropped. Condition priorities default to 5 when unset.
func (r *Rule) Normalize() {
	r.Tags = normalizeSet(r.Tags)
	r.Languages = normalizeSet(r.Languages)
	r.Domains = normalizeSet(r.Domains)
	r.ContentTypes = normalizeSet(r.ContentTypes)
	r.TaskTypes = normalizeSet(r.TaskTypes)
	for i := range r.Conditions {
		if r.Conditions[i].Priority == 0 {
			r.Conditions[i].Priority = 5
		}
	}
	if r.Version == "" {
		r.Version = "1.0.0"
	}
}

// Validate checks the rule's invariants. It returns a *ValidationError
// describing the first violation found.
func (r *Rule) Validate() error {
	if !ruleIDPattern.MatchString(r.RuleID) {
		return &ValidationError{Field: "rule_id", Message: fmt.Sprintf("%q does not match the CR- identifier grammar", r.RuleID)}
	}
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if _, err := ParseRuleType(string(r.RuleType)); err != nil {
		return err
	}
	if len(r.Languages) == 0 && len(r.Domains) == 0 && len(r.ContentTypes) == 0 {
		return &ValidationError{Field: "languages", Message: "rule must declare at least one of languages, domains, or content_types"}
	}
	if len(r.Conditions) == 0 {
		return &ValidationError{Field: "rules", Message: "rule must have at least one condition"}
	}
	for i, c := range r.Conditions {
		if strings.TrimSpace(c.Guideline) == "" {
			return &ValidationError{Field: fmt.Sprintf("rules[%d].guideline", i), Message: "guideline is required"}
		}
		if c.Priority < 1 || c.Priority > 10 {
			return &ValidationError{Field: fmt.Sprintf("rules[%d].priority", i), Message: fmt.Sprintf("priority %d outside [1,10]", c.Priority)}
		}
	}
	if r.SuccessRate < 0 || r.SuccessRate > 1 {
		return &ValidationError{Field: "success_rate", Message: fmt.Sprintf("success_rate %v outside [0,1]", r.SuccessRate)}
	}
	return nil
}

// MaxPriority returns the highest condition priority, used as a search
// tie-break. Returns 0 for a rule with no conditions.
func (r *Rule) MaxPriority() int {
	max := 0
	for _, c := range r.Conditions {
		if c.Priority > max {
			max = c.Priority
		}
	}
	return max
}

// Clone returns a deep copy. Snapshot reads from the corpus store hand
// out clones so callers can never mutate stored entities in place.
func (r *Rule) Clone() *Rule {
	out := *r
	out.Languages = append([]string(nil), r.Languages...)
	out.Domains = append([]string(nil), r.Domains...)
	out.ContentTypes = append([]string(nil), r.ContentTypes...)
	out.TaskTypes = append([]string(nil), r.TaskTypes...)
	out.Tags = append([]string(nil), r.Tags...)
	out.Validation.Tools = append([]string(nil), r.Validation.Tools...)
	out.Conditions = make([]RuleCondition, len(r.Conditions))
	for i, c := range r.Conditions {
		cc := c
		cc.Examples = append([]Example(nil), c.Examples...)
		out.Conditions[i] = cc
	}
	return &out
}

// normalizeSet lowercases, trims, dedupes, and drops empty entries,
// preserving first-seen order.
func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
