package corpus

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"rulehub/internal/schema"
)

func testRule(id string) *schema.Rule {
	return &schema.Rule{
		RuleID:    id,
		Name:      "rule " + id,
		RuleType:  schema.RuleTypeStyle,
		Languages: []string{"python"},
		Conditions: []schema.RuleCondition{
			{Condition: "default", Guideline: "a guideline", Priority: 5},
		},
		Active: true,
	}
}

func TestStore_PutGetRule(t *testing.T) {
	s := New()
	s.PutRule(testRule("CR-A"))

	got, err := s.GetRule("CR-A")
	if err != nil {
		t.Fatalf("GetRule: %v", err)
	}
	if got.Name != "rule CR-A" {
		t.Errorf("name = %q", got.Name)
	}

	if _, err := s.GetRule("CR-MISSING"); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("missing rule: err = %v, want ErrNotFound", err)
	}
}

func TestStore_PutNewRule_Duplicate(t *testing.T) {
	s := New()
	s.PutRule(testRule("CR-A"))

	if err := s.PutNewRule(testRule("CR-A")); !errors.Is(err, schema.ErrDuplicateID) {
		t.Errorf("duplicate insert: err = %v, want ErrDuplicateID", err)
	}
}

func TestStore_DeleteRule_IsSoft(t *testing.T) {
	s := New()
	s.PutRule(testRule("CR-A"))

	if err := s.DeleteRule("CR-A"); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}

	got, err := s.GetRule("CR-A")
	if err != nil {
		t.Fatalf("soft-deleted rule should still be readable: %v", err)
	}
	if got.Active {
		t.Error("soft-deleted rule still active")
	}
	if s.RuleCount() != 1 {
		t.Errorf("rule count = %d, want 1 (soft delete keeps the entity)", s.RuleCount())
	}
}

func TestStore_DeleteTemplate_IsHard(t *testing.T) {
	s := New()
	s.PutTemplate(&schema.PromptTemplate{TemplateID: "PT-A", Template: "{content}"})

	if err := s.DeleteTemplate("PT-A"); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if _, err := s.GetTemplate("PT-A"); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("hard-deleted template still readable: %v", err)
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := New()
	s.PutRule(testRule("CR-A"))

	snap := s.Rules()
	snap[0].Name = "mutated by reader"
	snap[0].Tags = append(snap[0].Tags, "mutated")

	got, _ := s.GetRule("CR-A")
	if got.Name != "rule CR-A" || len(got.Tags) != 0 {
		t.Error("mutating a snapshot leaked into the store")
	}
}

func TestStore_RecordUsage(t *testing.T) {
	s := New()
	s.PutRule(testRule("CR-A"))

	if _, err := s.RecordUsage("CR-A", true); err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	r, err := s.RecordUsage("CR-A", false)
	if err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}

	if r.UsageCount != 2 {
		t.Errorf("usage count = %d, want 2", r.UsageCount)
	}
	if r.SuccessRate != 0.5 {
		t.Errorf("success rate = %v, want 0.5", r.SuccessRate)
	}
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		s.PutRule(testRule(fmt.Sprintf("CR-%03d", i)))
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.PutRule(testRule(fmt.Sprintf("CR-W%d-%03d", w, i)))
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				for _, r := range s.Rules() {
					if r.RuleID == "" {
						t.Error("torn read: empty rule id")
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if s.RuleCount() != 10+4*50 {
		t.Errorf("rule count = %d, want %d", s.RuleCount(), 10+4*50)
	}
}
