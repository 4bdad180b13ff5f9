// Package corpus holds the authoritative in-memory set of rules and
// prompt templates, keyed by identifier.
//
// The store is an explicit handle passed to every component — there is
// no package-level singleton. Writes are linearizable under a single
// mutex; reads hand out deep-copied snapshots so a reader mid-iteration
// never observes a concurrent mutation and can never mutate stored
// entities in place.
package corpus

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"rulehub/internal/schema"
)

// Store is the in-memory corpus of rules and prompt templates.
type Store struct {
	mu        sync.RWMutex
	rules     map[string]*schema.Rule
	templates map[string]*schema.PromptTemplate
	now       func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		rules:     make(map[string]*schema.Rule),
		templates: make(map[string]*schema.PromptTemplate),
		now:       time.Now,
	}
}

// ─── Rules ───────────────────────────────────────────────────────────────────

// PutRule inserts or overwrites a rule by identifier.
func (s *Store) PutRule(r *schema.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.RuleID] = r.Clone()
}

// PutNewRule inserts a rule, failing with ErrDuplicateID when the
// identifier already exists. Used by reject-on-conflict imports.
func (s *Store) PutNewRule(r *schema.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[r.RuleID]; ok {
		return fmt.Errorf("rule %s: %w", r.RuleID, schema.ErrDuplicateID)
	}
	s.rules[r.RuleID] = r.Clone()
	return nil
}

// GetRule returns a copy of the rule, or ErrNotFound.
func (s *Store) GetRule(id string) (*schema.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", id, schema.ErrNotFound)
	}
	return r.Clone(), nil
}

// DeleteRule soft-deletes a rule: the entity stays in the corpus with
// Active cleared, preserving audit history for the session.
func (s *Store) DeleteRule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return fmt.Errorf("rule %s: %w", id, schema.ErrNotFound)
	}
	r.Active = false
	r.UpdatedAt = s.now().UTC()
	return nil
}

// Rules returns a snapshot of all rules (including inactive ones),
// sorted by identifier for deterministic iteration.
func (s *Store) Rules() []*schema.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}

// RuleCount returns the number of stored rules.
func (s *Store) RuleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// RecordUsage increments a rule's usage counter and folds success into
// its running success rate. This is the only path that mutates usage
// stats — search and synthesis never touch them.
func (s *Store) RecordUsage(id string, success bool) (*schema.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, fmt.Errorf("rule %s: %w", id, schema.ErrNotFound)
	}
	successes := r.SuccessRate * float64(r.UsageCount)
	if success {
		successes++
	}
	r.UsageCount++
	r.SuccessRate = successes / float64(r.UsageCount)
	return r.Clone(), nil
}

// SetUsage overwrites a rule's usage stats, used when hydrating
// persisted totals from the usage journal at load time.
func (s *Store) SetUsage(id string, count int, successRate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return fmt.Errorf("rule %s: %w", id, schema.ErrNotFound)
	}
	r.UsageCount = count
	r.SuccessRate = successRate
	return nil
}

// ─── Templates ───────────────────────────────────────────────────────────────

// PutTemplate inserts or overwrites a template by identifier.
func (s *Store) PutTemplate(t *schema.PromptTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.TemplateID] = t.Clone()
}

// PutNewTemplate inserts a template, failing with ErrDuplicateID when
// the identifier already exists.
func (s *Store) PutNewTemplate(t *schema.PromptTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.TemplateID]; ok {
		return fmt.Errorf("template %s: %w", t.TemplateID, schema.ErrDuplicateID)
	}
	s.templates[t.TemplateID] = t.Clone()
	return nil
}

// GetTemplate returns a copy of the template, or ErrNotFound.
func (s *Store) GetTemplate(id string) (*schema.PromptTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, schema.ErrNotFound)
	}
	return t.Clone(), nil
}

// DeleteTemplate hard-deletes a template. Templates carry no usage
// history, so unlike rules they are physically removed.
func (s *Store) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("template %s: %w", id, schema.ErrNotFound)
	}
	delete(s.templates, id)
	return nil
}

// Templates returns a snapshot of all templates sorted by identifier.
func (s *Store) Templates() []*schema.PromptTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*schema.PromptTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out
}

// TemplateCount returns the number of stored templates.
func (s *Store) TemplateCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}
