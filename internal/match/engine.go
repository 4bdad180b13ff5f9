// Package match ranks corpus entities against a query descriptor.
//
// Scoring is a deterministic weighted sum of per-field overlap ratios.
// Weights for fields absent from the query are redistributed
// proportionally among the present fields, so a narrow query (say,
// languages only) is scored on the same [0,1] scale as a broad one —
// a plain weighted sum without renormalization would silently penalize
// narrow queries.
//
// The engine is read-only over store snapshots: scoring never mutates
// an entity, and usage tracking is a separate explicit operation on the
// corpus store.
package match

import (
	"sort"
	"strings"

	"rulehub/internal/corpus"
	"rulehub/internal/schema"
)

// Weights holds the relative importance of each query field. The
// defaults are the tuned values used across the service; they are
// injected rather than hardcoded at scoring sites so they can be
// overridden from config.
type Weights struct {
	Language    float64 `yaml:"language"`
	Domain      float64 `yaml:"domain"`
	Tag         float64 `yaml:"tag"`
	ContentType float64 `yaml:"content_type"`
	Text        float64 `yaml:"text"`
}

// DefaultWeights returns the standard field weights.
func DefaultWeights() Weights {
	return Weights{
		Language:    0.30,
		Domain:      0.25,
		Tag:         0.20,
		ContentType: 0.15,
		Text:        0.10,
	}
}

// RankedResult is a rule with its relevance score and the fields that
// contributed to the match.
type RankedResult struct {
	Rule          *schema.Rule `json:"rule"`
	Score         float64      `json:"score"`
	MatchedFields []string     `json:"matched_fields,omitempty"`
}

// Engine scores and ranks corpus entities.
type Engine struct {
	store      *corpus.Store
	weights    Weights
	maxResults int
}

// NewEngine creates an Engine over the given store. maxResults caps how
// many results Search returns regardless of the query limit; zero or
// negative falls back to the default query limit.
func NewEngine(store *corpus.Store, weights Weights, maxResults int) *Engine {
	if maxResults <= 0 {
		maxResults = schema.DefaultQueryLimit
	}
	return &Engine{store: store, weights: weights, maxResults: maxResults}
}

// Search returns rules ranked against the query. An empty corpus or a
// query nothing matches yields an empty list, never an error.
func (e *Engine) Search(q schema.Query) []RankedResult {
	if q.Limit <= 0 || q.Limit > e.maxResults {
		q.Limit = e.maxResults
	}
	q.Normalize()

	ruleTypes := make(map[string]bool, len(q.RuleTypes))
	for _, rt := range q.RuleTypes {
		ruleTypes[rt] = true
	}

	var results []RankedResult
	for _, r := range e.store.Rules() {
		if !r.Active && !q.IncludeInactive {
			continue
		}
		// rule_types is a hard filter, applied before scoring.
		if len(ruleTypes) > 0 && !ruleTypes[string(r.RuleType)] {
			continue
		}
		score, fields := e.scoreRule(r, &q)
		results = append(results, RankedResult{Rule: r, Score: score, MatchedFields: fields})
	}

	sort.Slice(results, func(i, j int) bool { return lessRanked(results[i], results[j]) })

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

// lessRanked orders results by score desc, then highest condition
// priority desc, then updated_at desc, then rule_id asc — the last leg
// makes ranking fully deterministic.
func lessRanked(a, b RankedResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if ap, bp := a.Rule.MaxPriority(), b.Rule.MaxPriority(); ap != bp {
		return ap > bp
	}
	if !a.Rule.UpdatedAt.Equal(b.Rule.UpdatedAt) {
		return a.Rule.UpdatedAt.After(b.Rule.UpdatedAt)
	}
	return a.Rule.RuleID < b.Rule.RuleID
}

// scoreRule computes the renormalized weighted overlap score in [0,1]
// plus the list of fields that overlapped at all.
func (e *Engine) scoreRule(r *schema.Rule, q *schema.Query) (float64, []string) {
	type fieldScore struct {
		name    string
		weight  float64
		overlap float64
	}

	var present []fieldScore
	if len(q.Languages) > 0 {
		present = append(present, fieldScore{"languages", e.weights.Language, overlapRatio(r.Languages, q.Languages)})
	}
	if len(q.Domains) > 0 {
		present = append(present, fieldScore{"domains", e.weights.Domain, overlapRatio(r.Domains, q.Domains)})
	}
	if len(q.Tags) > 0 {
		present = append(present, fieldScore{"tags", e.weights.Tag, overlapRatio(r.Tags, q.Tags)})
	}
	if len(q.ContentTypes) > 0 {
		present = append(present, fieldScore{"content_types", e.weights.ContentType, overlapRatio(r.ContentTypes, q.ContentTypes)})
	}
	if q.Text != "" {
		present = append(present, fieldScore{"text", e.weights.Text, textScore(q.Text, r)})
	}

	// No scoring fields in the query: everything matches equally.
	if len(present) == 0 {
		return 1.0, nil
	}

	totalWeight := 0.0
	for _, f := range present {
		totalWeight += f.weight
	}
	if totalWeight == 0 {
		return 0.0, nil
	}

	score := 0.0
	var matched []string
	for _, f := range present {
		score += f.overlap * (f.weight / totalWeight)
		if f.overlap > 0 {
			matched = append(matched, f.name)
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score, matched
}

// overlapRatio is |ruleSet ∩ querySet| / |querySet|. Both sides are
// already normalized (lowercased, deduped).
func overlapRatio(ruleSet, querySet []string) float64 {
	if len(querySet) == 0 {
		return 0
	}
	have := make(map[string]bool, len(ruleSet))
	for _, v := range ruleSet {
		have[v] = true
	}
	hits := 0
	for _, v := range querySet {
		if have[v] {
			hits++
		}
	}
	return float64(hits) / float64(len(querySet))
}

// textScore is the fraction of query tokens found (case-insensitive
// substring) in the rule's name and description.
func textScore(text string, r *schema.Rule) float64 {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return 1.0
	}
	hay := strings.ToLower(r.Name + " " + r.Description)
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(hay, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// MatchesFilter is the unscored inclusion test used by the statistics
// aggregator: every field the query constrains must overlap. Active
// status is not considered here; callers decide how to treat inactive
// entities.
func MatchesFilter(r *schema.Rule, q *schema.Query) bool {
	if len(q.Languages) > 0 && overlapRatio(r.Languages, q.Languages) == 0 {
		return false
	}
	if len(q.Domains) > 0 && overlapRatio(r.Domains, q.Domains) == 0 {
		return false
	}
	if len(q.Tags) > 0 && overlapRatio(r.Tags, q.Tags) == 0 {
		return false
	}
	if len(q.ContentTypes) > 0 && overlapRatio(r.ContentTypes, q.ContentTypes) == 0 {
		return false
	}
	if len(q.RuleTypes) > 0 {
		ok := false
		for _, rt := range q.RuleTypes {
			if rt == string(r.RuleType) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if q.Text != "" && textScore(q.Text, r) == 0 {
		return false
	}
	return true
}
