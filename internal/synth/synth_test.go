package synth

import (
	"errors"
	"strings"
	"testing"

	"rulehub/internal/corpus"
	"rulehub/internal/match"
	"rulehub/internal/schema"
)

func newTestSynth(t *testing.T) (*Synthesizer, *corpus.Store) {
	t.Helper()
	store := corpus.New()
	engine := match.NewEngine(store, match.DefaultWeights(), 0)
	return New(store, engine, 5), store
}

func seed(store *corpus.Store) {
	store.PutRule(&schema.Rule{
		RuleID:      "CR-PY-1",
		Name:        "Docstring coverage",
		Description: "Public functions need docstrings",
		RuleType:    schema.RuleTypeContent,
		Languages:   []string{"python"},
		Conditions: []schema.RuleCondition{
			{Condition: "default", Guideline: "document every public function", Priority: 8},
			{Condition: "default", Guideline: "prefer one-line summaries", Priority: 3},
		},
		Active: true,
	})
	store.PutTemplate(&schema.PromptTemplate{
		TemplateID: "PT-CODE",
		Languages:  []string{"python"},
		Template:   "Review this {language} code against the rules.\n\n{rules}\n\n---\n{content}\n---",
		Priority:   5,
	})
}

func TestSynthesize_ContentVerbatim(t *testing.T) {
	s, store := newTestSynth(t)
	seed(store)

	// Content with placeholder-looking braces and markdown must land
	// in the prompt byte for byte.
	content := "def f(x):\n    return {\"k\": x}  # {weird} **markdown**"
	res, err := s.Synthesize(content, schema.Query{Languages: []string{"python"}}, ModeResultWithPrompt, "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(res.Prompt, content) {
		t.Errorf("prompt does not embed content verbatim:\n%s", res.Prompt)
	}
}

func TestSynthesize_PlaceholderRendering(t *testing.T) {
	s, store := newTestSynth(t)
	seed(store)

	res, err := s.Synthesize("code", schema.Query{Languages: []string{"python"}}, ModeFull, "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(res.Prompt, "Review this python code") {
		t.Errorf("{language} not substituted:\n%s", res.Prompt)
	}
	if !strings.Contains(res.Prompt, "Rule 1: Docstring coverage") {
		t.Errorf("{rules} block missing:\n%s", res.Prompt)
	}
	// Guidelines ordered by priority inside the block.
	hi := strings.Index(res.Prompt, "document every public function")
	lo := strings.Index(res.Prompt, "prefer one-line summaries")
	if hi == -1 || lo == -1 || hi > lo {
		t.Error("guidelines not ordered by priority in rules block")
	}
}

func TestSynthesize_UnknownPlaceholderUntouched(t *testing.T) {
	s, store := newTestSynth(t)
	store.PutRule(&schema.Rule{
		RuleID: "CR-A", Name: "r", RuleType: schema.RuleTypeStyle,
		Languages:  []string{"python"},
		Conditions: []schema.RuleCondition{{Guideline: "g", Priority: 5}},
		Active:     true,
	})
	store.PutTemplate(&schema.PromptTemplate{
		TemplateID: "PT-A",
		Template:   "{content} {unknown_thing}",
	})

	res, err := s.Synthesize("x", schema.Query{}, ModeResultWithPrompt, "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !strings.Contains(res.Prompt, "{unknown_thing}") {
		t.Errorf("unknown placeholder rewritten:\n%s", res.Prompt)
	}
}

func TestSynthesize_ModeProjection(t *testing.T) {
	// Scenario D: each mode is a projection of the same computation,
	// so shared fields agree across modes.
	s, store := newTestSynth(t)
	seed(store)
	q := schema.Query{Languages: []string{"python"}}

	full, err := s.Synthesize("code", q, ModeFull, "")
	if err != nil {
		t.Fatalf("Synthesize full: %v", err)
	}
	if full.Prompt == "" || len(full.Rules) == 0 || full.Template == nil {
		t.Fatal("full mode missing fields")
	}

	cases := []struct {
		mode                           Mode
		wantPrompt, wantRules, wantTpl bool
	}{
		{ModeResultOnly, false, false, false},
		{ModeResultWithPrompt, true, false, false},
		{ModeResultWithRules, false, true, false},
		{ModeResultWithTemplate, false, false, true},
	}
	for _, c := range cases {
		res, err := s.Synthesize("code", q, c.mode, "")
		if err != nil {
			t.Fatalf("Synthesize %s: %v", c.mode, err)
		}
		if len(res.Matches) != len(full.Matches) || res.Matches[0].Score != full.Matches[0].Score {
			t.Errorf("%s: matches diverge from full mode", c.mode)
		}
		if got := res.Prompt != ""; got != c.wantPrompt {
			t.Errorf("%s: prompt present=%v, want %v", c.mode, got, c.wantPrompt)
		}
		if got := len(res.Rules) > 0; got != c.wantRules {
			t.Errorf("%s: rules present=%v, want %v", c.mode, got, c.wantRules)
		}
		if got := res.Template != nil; got != c.wantTpl {
			t.Errorf("%s: template present=%v, want %v", c.mode, got, c.wantTpl)
		}
		if c.wantPrompt && res.Prompt != full.Prompt {
			t.Errorf("%s: prompt differs from full mode", c.mode)
		}
	}
}

func TestSynthesize_TemplateOverride(t *testing.T) {
	s, store := newTestSynth(t)
	seed(store)
	store.PutTemplate(&schema.PromptTemplate{TemplateID: "PT-ALT", Template: "ALT {content}"})

	res, err := s.Synthesize("code", schema.Query{Languages: []string{"python"}}, ModeFull, "PT-ALT")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Template.TemplateID != "PT-ALT" || !strings.HasPrefix(res.Prompt, "ALT ") {
		t.Errorf("explicit template id not honored: %s", res.Template.TemplateID)
	}

	if _, err := s.Synthesize("code", schema.Query{}, ModeFull, "PT-MISSING"); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("missing override template: err = %v, want ErrNotFound", err)
	}
}

func TestSynthesize_NoTemplates(t *testing.T) {
	s, store := newTestSynth(t)
	store.PutRule(&schema.Rule{
		RuleID: "CR-A", Name: "r", RuleType: schema.RuleTypeStyle,
		Languages:  []string{"python"},
		Conditions: []schema.RuleCondition{{Guideline: "g", Priority: 5}},
		Active:     true,
	})

	if _, err := s.Synthesize("code", schema.Query{}, ModeResultWithPrompt, ""); !errors.Is(err, schema.ErrNoTemplateMatch) {
		t.Errorf("err = %v, want ErrNoTemplateMatch", err)
	}
}

func TestSynthesize_NoMatchingRules(t *testing.T) {
	s, store := newTestSynth(t)
	seed(store)

	res, err := s.Synthesize("code", schema.Query{Languages: []string{"fortran"}, RuleTypes: []string{"security"}}, ModeResultWithPrompt, "PT-CODE")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(res.Matches) != 0 {
		t.Errorf("matches = %d, want 0", len(res.Matches))
	}
	if !strings.Contains(res.Prompt, "(no applicable rules)") {
		t.Errorf("empty rules block not rendered:\n%s", res.Prompt)
	}
}

func TestEnhance(t *testing.T) {
	s, store := newTestSynth(t)
	seed(store)

	base := "Refactor this function for readability."
	enhanced, matches := s.Enhance(base, schema.Query{Languages: []string{"python"}})

	if !strings.HasPrefix(enhanced, base) {
		t.Errorf("base prompt not carried verbatim:\n%s", enhanced)
	}
	if !strings.Contains(enhanced, "Rule 1: Docstring coverage") {
		t.Errorf("rules block not appended:\n%s", enhanced)
	}
	if !strings.Contains(enhanced, "document every public function") {
		t.Errorf("guidelines missing from appended block:\n%s", enhanced)
	}
	if len(matches) != 1 || matches[0].RuleID != "CR-PY-1" {
		t.Errorf("matches = %+v", matches)
	}
}

func TestEnhance_NoMatches(t *testing.T) {
	s, store := newTestSynth(t)
	seed(store)

	base := "Just do the thing."
	enhanced, matches := s.Enhance(base, schema.Query{Languages: []string{"fortran"}, RuleTypes: []string{"security"}})
	if enhanced != base {
		t.Errorf("prompt changed with no matches:\n%s", enhanced)
	}
	if len(matches) != 0 {
		t.Errorf("matches = %d, want 0", len(matches))
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeResultWithPrompt {
		t.Errorf("empty mode: %v %v, want result_with_prompt default", m, err)
	}
	if _, err := ParseMode("verbose"); err == nil {
		t.Error("unknown mode accepted")
	}
}
