package match

import (
	"sort"

	"rulehub/internal/schema"
)

// SelectTemplate picks the best-fit prompt template for the query,
// scoring only the classification fields templates carry (domains,
// languages, content_types) with the same renormalized weights.
//
// Eligibility: a wildcard template (no classification sets) always
// qualifies as a fallback; a template that declares classification sets
// but overlaps the constrained query on none of them is excluded. When
// the query constrains none of the selection fields, every template
// qualifies and priority decides.
//
// Returns schema.ErrNoTemplateMatch when nothing qualifies.
func (e *Engine) SelectTemplate(q schema.Query) (*schema.PromptTemplate, error) {
	q.Normalize()

	type candidate struct {
		tpl   *schema.PromptTemplate
		score float64
	}

	constrained := len(q.Languages) > 0 || len(q.Domains) > 0 || len(q.ContentTypes) > 0

	var candidates []candidate
	for _, t := range e.store.Templates() {
		score := e.scoreTemplate(t, &q)
		wildcard := len(t.Domains) == 0 && len(t.Languages) == 0 && len(t.ContentTypes) == 0
		if constrained && score == 0 && !wildcard {
			continue
		}
		candidates = append(candidates, candidate{tpl: t, score: score})
	}
	if len(candidates) == 0 {
		return nil, schema.ErrNoTemplateMatch
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.tpl.Priority != b.tpl.Priority {
			return a.tpl.Priority > b.tpl.Priority
		}
		return a.tpl.TemplateID < b.tpl.TemplateID
	})

	return candidates[0].tpl, nil
}

// scoreTemplate mirrors scoreRule restricted to the template selection
// fields, with weights renormalized over the fields the query provides.
func (e *Engine) scoreTemplate(t *schema.PromptTemplate, q *schema.Query) float64 {
	type fieldScore struct {
		weight  float64
		overlap float64
	}

	var present []fieldScore
	if len(q.Languages) > 0 {
		present = append(present, fieldScore{e.weights.Language, overlapRatio(t.Languages, q.Languages)})
	}
	if len(q.Domains) > 0 {
		present = append(present, fieldScore{e.weights.Domain, overlapRatio(t.Domains, q.Domains)})
	}
	if len(q.ContentTypes) > 0 {
		present = append(present, fieldScore{e.weights.ContentType, overlapRatio(t.ContentTypes, q.ContentTypes)})
	}
	if len(present) == 0 {
		return 1.0
	}

	totalWeight := 0.0
	for _, f := range present {
		totalWeight += f.weight
	}
	if totalWeight == 0 {
		return 0.0
	}

	score := 0.0
	for _, f := range present {
		score += f.overlap * (f.weight / totalWeight)
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
