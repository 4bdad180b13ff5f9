// Package merge decides what happens when an incoming record collides
// with one already in the corpus, and applies whole batches of records
// under a single conflict policy.
//
// Resolution itself is pure: Resolve never touches a store, it only
// computes the record that would result. The Importer wraps it with
// store writes and per-record bookkeeping so one bad record never
// aborts a batch.
package merge

import (
	"fmt"
	"time"

	"rulehub/internal/schema"
)

// Policy selects conflict behavior for a batch.
type Policy string

// Conflict policies.
const (
	// PolicyReject keeps the existing record and marks the incoming
	// one rejected.
	PolicyReject Policy = "reject"
	// PolicyOverwrite replaces the existing record wholesale.
	PolicyOverwrite Policy = "overwrite"
	// PolicyMerge unions set fields and version-gates scalar fields.
	PolicyMerge Policy = "merge"
)

// ParsePolicy converts a raw string into a Policy. An empty string
// defaults to merge, matching the import tool's default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyMerge, nil
	case PolicyReject:
		return PolicyReject, nil
	case PolicyOverwrite:
		return PolicyOverwrite, nil
	case PolicyMerge:
		return PolicyMerge, nil
	}
	return "", &schema.ValidationError{Field: "policy", Message: fmt.Sprintf("unknown conflict policy %q", s)}
}

// Outcome is the per-record result of an import.
type Outcome string

// Record outcomes.
const (
	OutcomeCreated  Outcome = "created"
	OutcomeUpdated  Outcome = "updated"
	OutcomeMerged   Outcome = "merged"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Resolution is the computed result of one conflict decision.
type Resolution struct {
	Rule     *schema.Rule
	Outcome  Outcome
	Warnings []string
}

// Resolve computes the record that results from an incoming rule under
// the given policy. existing may be nil (no conflict). The returned
// rule is freshly allocated; neither input is mutated.
func Resolve(existing, incoming *schema.Rule, policy Policy, now time.Time) Resolution {
	if existing == nil {
		out := incoming.Clone()
		if out.CreatedAt.IsZero() {
			out.CreatedAt = now
		}
		out.UpdatedAt = now
		return Resolution{Rule: out, Outcome: OutcomeCreated}
	}

	switch policy {
	case PolicyReject:
		return Resolution{Rule: existing.Clone(), Outcome: OutcomeRejected}
	case PolicyOverwrite:
		out := incoming.Clone()
		out.CreatedAt = existing.CreatedAt
		out.UpdatedAt = now
		return Resolution{Rule: out, Outcome: OutcomeUpdated}
	default:
		merged, warnings := mergeRules(existing, incoming)
		merged.UpdatedAt = now
		return Resolution{Rule: merged, Outcome: OutcomeMerged, Warnings: warnings}
	}
}

// mergeRules unions the applicability sets and takes the incoming
// scalar content only when the incoming version is newer. Usage stats
// always survive from the existing record.
func mergeRules(existing, incoming *schema.Rule) (*schema.Rule, []string) {
	out := existing.Clone()
	var warnings []string

	cmp, wellFormed := schema.CompareVersions(incoming.Version, existing.Version)
	if !wellFormed {
		warnings = append(warnings, fmt.Sprintf(
			"rule %s: comparing malformed versions %q and %q lexicographically",
			existing.RuleID, incoming.Version, existing.Version))
	}

	if cmp > 0 {
		out.Name = incoming.Name
		out.Description = incoming.Description
		out.Version = incoming.Version
		out.Author = incoming.Author
		out.RuleType = incoming.RuleType
		out.Conditions = cloneConditions(incoming.Conditions)
		out.Validation = incoming.Validation
		out.Validation.Tools = append([]string(nil), incoming.Validation.Tools...)
		out.Active = incoming.Active
	}

	out.Languages = unionSet(existing.Languages, incoming.Languages)
	out.Domains = unionSet(existing.Domains, incoming.Domains)
	out.ContentTypes = unionSet(existing.ContentTypes, incoming.ContentTypes)
	out.TaskTypes = unionSet(existing.TaskTypes, incoming.TaskTypes)
	out.Tags = unionSet(existing.Tags, incoming.Tags)

	// Usage history belongs to the corpus, not the incoming file.
	out.UsageCount = existing.UsageCount
	out.SuccessRate = existing.SuccessRate
	out.CreatedAt = existing.CreatedAt

	return out, warnings
}

// unionSet merges two normalized sets, preserving the first set's order
// and appending unseen values from the second.
func unionSet(a, b []string) []string {
	out := append([]string(nil), a...)
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func cloneConditions(conds []schema.RuleCondition) []schema.RuleCondition {
	out := make([]schema.RuleCondition, len(conds))
	for i, c := range conds {
		cc := c
		cc.Examples = append([]schema.Example(nil), c.Examples...)
		out[i] = cc
	}
	return out
}
