// Package synth renders validation prompts for an external LLM from
// matched rules and a selected template.
//
// Synthesis computes the full result once (matched rules, selected
// template, rendered prompt) and then projects it down to the requested
// output mode, so every mode reports the same underlying computation.
// The synthesizer never invokes an LLM and never judges content itself.
package synth

import (
	"fmt"
	"sort"
	"strings"

	"rulehub/internal/corpus"
	"rulehub/internal/match"
	"rulehub/internal/schema"
)

// Mode selects how much of the computed result is returned.
type Mode string

// Output modes.
const (
	ModeResultOnly         Mode = "result_only"
	ModeResultWithPrompt   Mode = "result_with_prompt"
	ModeResultWithRules    Mode = "result_with_rules"
	ModeResultWithTemplate Mode = "result_with_template"
	ModeFull               Mode = "full"
)

// ParseMode converts a raw string into a Mode. An empty string defaults
// to result_with_prompt.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeResultWithPrompt, nil
	case ModeResultOnly, ModeResultWithPrompt, ModeResultWithRules, ModeResultWithTemplate, ModeFull:
		return Mode(s), nil
	}
	return "", &schema.ValidationError{Field: "output_mode", Message: fmt.Sprintf("unknown output mode %q", s)}
}

// RuleMatch is the per-rule line item present in every output mode.
type RuleMatch struct {
	RuleID string  `json:"rule_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}

// Result is the synthesized output, projected per Mode. Matches is
// always populated; the other fields are cleared for modes that do not
// request them.
type Result struct {
	Matches  []RuleMatch            `json:"matches"`
	Prompt   string                 `json:"prompt,omitempty"`
	Rules    []*schema.Rule         `json:"rules,omitempty"`
	Template *schema.PromptTemplate `json:"template,omitempty"`
}

// Synthesizer builds validation prompts over the corpus.
type Synthesizer struct {
	store  *corpus.Store
	engine *match.Engine
	topN   int
}

// New creates a Synthesizer. topN caps how many matched rules feed the
// prompt; zero or negative falls back to the default query limit.
func New(store *corpus.Store, engine *match.Engine, topN int) *Synthesizer {
	if topN <= 0 {
		topN = schema.DefaultQueryLimit
	}
	return &Synthesizer{store: store, engine: engine, topN: topN}
}

// Synthesize matches rules for the query, selects a template (or uses
// the explicit templateID override), renders the prompt, and projects
// the result by mode. Content is embedded in the prompt verbatim.
func (s *Synthesizer) Synthesize(content string, q schema.Query, mode Mode, templateID string) (*Result, error) {
	if q.Limit == 0 || q.Limit > s.topN {
		q.Limit = s.topN
	}
	q.Normalize()

	ranked := s.engine.Search(q)

	var tpl *schema.PromptTemplate
	var err error
	if templateID != "" {
		tpl, err = s.store.GetTemplate(templateID)
	} else {
		tpl, err = s.engine.SelectTemplate(q)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Matches:  make([]RuleMatch, 0, len(ranked)),
		Prompt:   renderPrompt(tpl.Template, content, ranked, &q),
		Template: tpl,
	}
	for _, r := range ranked {
		res.Matches = append(res.Matches, RuleMatch{RuleID: r.Rule.RuleID, Name: r.Rule.Name, Score: r.Score})
		res.Rules = append(res.Rules, r.Rule)
	}

	project(res, mode)
	return res, nil
}

// Enhance injects the matching rules' guidance into an arbitrary base
// prompt. Unlike Synthesize it needs no template: the rules block is
// appended to the prompt as a markdown section. The base prompt is
// carried verbatim; when nothing matches it comes back unchanged.
func (s *Synthesizer) Enhance(prompt string, q schema.Query) (string, []RuleMatch) {
	if q.Limit == 0 || q.Limit > s.topN {
		q.Limit = s.topN
	}
	q.Normalize()

	ranked := s.engine.Search(q)
	matches := make([]RuleMatch, 0, len(ranked))
	for _, r := range ranked {
		matches = append(matches, RuleMatch{RuleID: r.Rule.RuleID, Name: r.Rule.Name, Score: r.Score})
	}
	if len(ranked) == 0 {
		return prompt, matches
	}
	return prompt + "\n\n" + rulesBlock(ranked), matches
}

// project clears the fields the mode does not request.
func project(res *Result, mode Mode) {
	switch mode {
	case ModeResultOnly:
		res.Prompt, res.Rules, res.Template = "", nil, nil
	case ModeResultWithPrompt:
		res.Rules, res.Template = nil, nil
	case ModeResultWithRules:
		res.Prompt, res.Template = "", nil
	case ModeResultWithTemplate:
		res.Prompt, res.Rules = "", nil
	}
}

// renderPrompt substitutes the known placeholders in the template body.
// Placeholders it does not know are left untouched so template authors
// can see their own typos.
func renderPrompt(body, content string, ranked []match.RankedResult, q *schema.Query) string {
	replacer := strings.NewReplacer(
		schema.PlaceholderContent, content,
		schema.PlaceholderRules, rulesBlock(ranked),
		"{domain}", first(q.Domains),
		"{language}", first(q.Languages),
		"{content_type}", first(q.ContentTypes),
	)
	return replacer.Replace(body)
}

// rulesBlock formats the matched rules as a markdown section, each rule
// numbered with its guidelines ordered by priority.
func rulesBlock(ranked []match.RankedResult) string {
	if len(ranked) == 0 {
		return "(no applicable rules)"
	}

	var b strings.Builder
	b.WriteString("## Applicable rules\n")
	for i, r := range ranked {
		fmt.Fprintf(&b, "\n### Rule %d: %s\n", i+1, r.Rule.Name)
		if r.Rule.Description != "" {
			fmt.Fprintf(&b, "%s\n", r.Rule.Description)
		}
		conds := append([]schema.RuleCondition(nil), r.Rule.Conditions...)
		sort.SliceStable(conds, func(i, j int) bool { return conds[i].Priority > conds[j].Priority })
		for _, c := range conds {
			fmt.Fprintf(&b, "- %s\n", c.Guideline)
			for _, ex := range c.Examples {
				if ex.Good != "" {
					fmt.Fprintf(&b, "  Example:\n  ```\n  %s\n  ```\n", ex.Good)
				}
			}
		}
	}
	return b.String()
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
