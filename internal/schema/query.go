package schema

import "strings"

// Query limits.
const (
	DefaultQueryLimit = 10
	MaxQueryLimit     = 100
)

// Query is the descriptor of a search/match request. Every field is
// optional; an empty query matches everything (bounded by Limit).
// Queries are never persisted.
type Query struct {
	Text            string   `json:"query,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Domains         []string `json:"domains,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	ContentTypes    []string `json:"content_types,omitempty"`
	RuleTypes       []string `json:"rule_types,omitempty"`
	Limit           int      `json:"limit,omitempty"`
	IncludeInactive bool     `json:"include_inactive,omitempty"`
}

// Normalize lowercases and dedupes the set-valued fields, clamps Limit
// into [1, MaxQueryLimit], and drops unknown rule_type values. Search is
// deliberately permissive: a bad rule_type in a query is ignored, not
// rejected, so free-form callers still get results.
func (q *Query) Normalize() {
	q.Text = strings.TrimSpace(q.Text)
	q.Languages = normalizeSet(q.Languages)
	q.Domains = normalizeSet(q.Domains)
	q.Tags = normalizeSet(q.Tags)
	q.ContentTypes = normalizeSet(q.ContentTypes)

	var types []string
	for _, raw := range q.RuleTypes {
		if rt, err := ParseRuleType(raw); err == nil {
			types = append(types, string(rt))
		}
	}
	q.RuleTypes = normalizeSet(types)

	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
}

// IsEmpty reports whether the query constrains nothing beyond the limit.
func (q *Query) IsEmpty() bool {
	return q.Text == "" &&
		len(q.Languages) == 0 &&
		len(q.Domains) == 0 &&
		len(q.Tags) == 0 &&
		len(q.ContentTypes) == 0 &&
		len(q.RuleTypes) == 0
}
