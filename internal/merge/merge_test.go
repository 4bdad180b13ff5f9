package merge

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"rulehub/internal/corpus"
	"rulehub/internal/schema"
)

func baseRule(id string) *schema.Rule {
	return &schema.Rule{
		RuleID:    id,
		Name:      "Original name",
		Version:   "1.0.0",
		RuleType:  schema.RuleTypeStyle,
		Languages: []string{"python"},
		Tags:      []string{"naming"},
		Conditions: []schema.RuleCondition{
			{Condition: "default", Guideline: "original guideline", Priority: 5},
		},
		Active: true,
	}
}

func newTestImporter(store *corpus.Store) *Importer {
	im := NewImporter(store)
	im.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	im.newBatchID = func() string { return "batch-test" }
	return im
}

func TestResolve_Created(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	res := Resolve(nil, baseRule("CR-A"), PolicyMerge, now)
	if res.Outcome != OutcomeCreated {
		t.Fatalf("outcome = %s, want created", res.Outcome)
	}
	if !res.Rule.CreatedAt.Equal(now) || !res.Rule.UpdatedAt.Equal(now) {
		t.Error("timestamps not stamped on create")
	}
}

func TestResolve_Reject(t *testing.T) {
	existing := baseRule("CR-A")
	incoming := baseRule("CR-A")
	incoming.Name = "Replacement"

	res := Resolve(existing, incoming, PolicyReject, time.Now())
	if res.Outcome != OutcomeRejected {
		t.Fatalf("outcome = %s, want rejected", res.Outcome)
	}
	if res.Rule.Name != "Original name" {
		t.Error("reject policy changed the existing record")
	}
}

func TestResolve_MergeNewerVersion(t *testing.T) {
	// Scenario B: incoming 1.1.0 wins scalars, sets union, usage stats
	// survive from the existing record.
	existing := baseRule("CR-A")
	existing.UsageCount = 7
	existing.SuccessRate = 0.8

	incoming := baseRule("CR-A")
	incoming.Version = "1.1.0"
	incoming.Name = "Revised name"
	incoming.Tags = []string{"readability"}
	incoming.Languages = []string{"go"}
	incoming.Conditions = []schema.RuleCondition{
		{Condition: "default", Guideline: "revised guideline", Priority: 6},
	}

	res := Resolve(existing, incoming, PolicyMerge, time.Now())
	if res.Outcome != OutcomeMerged {
		t.Fatalf("outcome = %s, want merged", res.Outcome)
	}
	r := res.Rule
	if r.Name != "Revised name" || r.Version != "1.1.0" {
		t.Errorf("newer version did not win scalars: name=%q version=%q", r.Name, r.Version)
	}
	if r.Conditions[0].Guideline != "revised guideline" {
		t.Error("newer version did not win conditions")
	}
	if !reflect.DeepEqual(r.Tags, []string{"naming", "readability"}) {
		t.Errorf("tags = %v, want union", r.Tags)
	}
	if !reflect.DeepEqual(r.Languages, []string{"python", "go"}) {
		t.Errorf("languages = %v, want union", r.Languages)
	}
	if r.UsageCount != 7 || r.SuccessRate != 0.8 {
		t.Errorf("usage stats not preserved: count=%d rate=%v", r.UsageCount, r.SuccessRate)
	}
}

func TestResolve_MergeOlderVersionKeepsScalars(t *testing.T) {
	existing := baseRule("CR-A")
	existing.Version = "2.0.0"

	incoming := baseRule("CR-A")
	incoming.Version = "1.5.0"
	incoming.Name = "Stale name"
	incoming.Tags = []string{"extra"}

	res := Resolve(existing, incoming, PolicyMerge, time.Now())
	if res.Rule.Name != "Original name" || res.Rule.Version != "2.0.0" {
		t.Error("older incoming version overwrote scalars")
	}
	if !reflect.DeepEqual(res.Rule.Tags, []string{"naming", "extra"}) {
		t.Errorf("tags = %v, want union even when version is older", res.Rule.Tags)
	}
}

func TestResolve_MalformedVersionWarns(t *testing.T) {
	existing := baseRule("CR-A")
	incoming := baseRule("CR-A")
	incoming.Version = "1.0.0-beta"

	res := Resolve(existing, incoming, PolicyMerge, time.Now())
	if len(res.Warnings) == 0 {
		t.Error("malformed version comparison produced no warning")
	}
}

func TestResolve_MergeIdempotent(t *testing.T) {
	// Merging the same incoming record twice converges: the second
	// merge changes nothing but updated_at.
	existing := baseRule("CR-A")
	incoming := baseRule("CR-A")
	incoming.Version = "1.1.0"
	incoming.Tags = []string{"readability"}

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	first := Resolve(existing, incoming, PolicyMerge, now)
	second := Resolve(first.Rule, incoming, PolicyMerge, now.Add(time.Hour))

	a, b := first.Rule.Clone(), second.Rule.Clone()
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("second merge diverged:\nfirst:  %+v\nsecond: %+v", a, b)
	}
}

func TestImport_PartialFailure(t *testing.T) {
	// Five valid records and two malformed ones: the batch reports
	// 5 created, 2 failed, and all valid records land in the corpus.
	store := corpus.New()
	im := newTestImporter(store)

	var rules []*schema.Rule
	for i := 0; i < 5; i++ {
		rules = append(rules, baseRule(fmt.Sprintf("CR-%03d", i)))
	}
	bad1 := baseRule("bad id")
	bad2 := baseRule("CR-NOCOND")
	bad2.Conditions = nil
	rules = append(rules, bad1, bad2)

	s := im.Import(rules, nil, PolicyMerge)
	if s.Created != 5 || s.Failed != 2 {
		t.Fatalf("created=%d failed=%d, want 5/2", s.Created, s.Failed)
	}
	if store.RuleCount() != 5 {
		t.Errorf("corpus has %d rules, want 5", store.RuleCount())
	}
	for _, o := range s.Outcomes {
		if o.Outcome == OutcomeFailed && o.Error == "" {
			t.Errorf("failed outcome for %s carries no error", o.RuleID)
		}
	}
}

func TestImport_RejectPolicy(t *testing.T) {
	store := corpus.New()
	im := newTestImporter(store)
	store.PutRule(baseRule("CR-A"))

	incoming := baseRule("CR-A")
	incoming.Name = "Replacement"
	s := im.Import([]*schema.Rule{incoming, baseRule("CR-B")}, nil, PolicyReject)

	if s.Rejected != 1 || s.Created != 1 {
		t.Fatalf("rejected=%d created=%d, want 1/1", s.Rejected, s.Created)
	}
	kept, _ := store.GetRule("CR-A")
	if kept.Name != "Original name" {
		t.Errorf("rejected import modified existing rule: %q", kept.Name)
	}
}

func TestImport_OverwritePreservesCreatedAt(t *testing.T) {
	store := corpus.New()
	im := newTestImporter(store)

	first := baseRule("CR-A")
	first.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.PutRule(first)

	incoming := baseRule("CR-A")
	incoming.Name = "Replacement"
	im.Import([]*schema.Rule{incoming}, nil, PolicyOverwrite)

	got, _ := store.GetRule("CR-A")
	if got.Name != "Replacement" {
		t.Errorf("overwrite did not replace: %q", got.Name)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Error("overwrite lost the original created_at")
	}
}

func TestImport_Templates(t *testing.T) {
	store := corpus.New()
	im := newTestImporter(store)
	store.PutTemplate(&schema.PromptTemplate{TemplateID: "PT-A", Template: "old {content}"})

	tpls := []*schema.PromptTemplate{
		{TemplateID: "PT-A", Template: "new {content}"},
		{TemplateID: "PT-B", Template: "fresh {content}"},
		{TemplateID: "PT-BAD", Template: "no placeholder"},
	}

	s := im.Import(nil, tpls, PolicyReject)
	if s.Rejected != 1 || s.Created != 1 || s.Failed != 1 {
		t.Fatalf("reject: rejected=%d created=%d failed=%d", s.Rejected, s.Created, s.Failed)
	}
	kept, _ := store.GetTemplate("PT-A")
	if kept.Template != "old {content}" {
		t.Error("reject policy replaced an existing template")
	}

	s = im.Import(nil, tpls[:1], PolicyOverwrite)
	if s.Updated != 1 {
		t.Fatalf("overwrite: updated=%d, want 1", s.Updated)
	}
	kept, _ = store.GetTemplate("PT-A")
	if kept.Template != "new {content}" {
		t.Error("overwrite policy did not replace the template")
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyMerge {
		t.Errorf("empty policy: %v %v, want merge default", p, err)
	}
	if _, err := ParsePolicy("upsert"); err == nil {
		t.Error("unknown policy accepted")
	}
}
