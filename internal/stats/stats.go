// Package stats aggregates corpus-wide counts and usage figures in a
// single pass over a store snapshot.
package stats

import (
	"rulehub/internal/corpus"
	"rulehub/internal/match"
	"rulehub/internal/schema"
)

// Report is the aggregate view of the corpus, optionally narrowed by a
// query filter. Breakdown maps count every rule once per value it
// declares, so their sums can exceed Total.
type Report struct {
	Total       int            `json:"total_rules"`
	ActiveCount int            `json:"active_rules"`
	Templates   int            `json:"templates"`
	ByLanguage  map[string]int `json:"by_language,omitempty"`
	ByDomain    map[string]int `json:"by_domain,omitempty"`
	ByType      map[string]int `json:"by_type,omitempty"`
	ByTag       map[string]int `json:"by_tag,omitempty"`

	TotalUsage int `json:"total_usage"`
	// AverageSuccessRate averages over rules that have been used at
	// least once; unused rules carry no signal.
	AverageSuccessRate float64 `json:"average_success_rate"`
}

// Aggregate walks one snapshot of the store and tallies the report.
// A non-empty query narrows the tally to rules passing the unscored
// inclusion filter; inactive rules are counted in Total but only
// active ones feed the breakdowns.
func Aggregate(store *corpus.Store, q schema.Query) *Report {
	q.Normalize()

	r := &Report{
		Templates:  store.TemplateCount(),
		ByLanguage: make(map[string]int),
		ByDomain:   make(map[string]int),
		ByType:     make(map[string]int),
		ByTag:      make(map[string]int),
	}

	usedRules := 0
	rateSum := 0.0
	for _, rule := range store.Rules() {
		if !q.IsEmpty() && !match.MatchesFilter(rule, &q) {
			continue
		}
		r.Total++
		if !rule.Active {
			continue
		}
		r.ActiveCount++

		for _, l := range rule.Languages {
			r.ByLanguage[l]++
		}
		for _, d := range rule.Domains {
			r.ByDomain[d]++
		}
		for _, t := range rule.Tags {
			r.ByTag[t]++
		}
		r.ByType[string(rule.RuleType)]++

		r.TotalUsage += rule.UsageCount
		if rule.UsageCount > 0 {
			usedRules++
			rateSum += rule.SuccessRate
		}
	}
	if usedRules > 0 {
		r.AverageSuccessRate = rateSum / float64(usedRules)
	}
	return r
}
