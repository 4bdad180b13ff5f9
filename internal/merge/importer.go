package merge

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"rulehub/internal/corpus"
	"rulehub/internal/schema"
)

// RecordOutcome is the fate of a single record in a batch.
type RecordOutcome struct {
	RuleID     string   `json:"rule_id,omitempty"`
	TemplateID string   `json:"template_id,omitempty"`
	Outcome    Outcome  `json:"outcome"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Summary is the result of one import batch.
type Summary struct {
	BatchID  string          `json:"batch_id"`
	Created  int             `json:"created"`
	Updated  int             `json:"updated"`
	Merged   int             `json:"merged"`
	Rejected int             `json:"rejected"`
	Failed   int             `json:"failed"`
	Outcomes []RecordOutcome `json:"outcomes"`
}

// Importer applies batches of parsed records to the corpus under a
// conflict policy. Records are applied one at a time; a record that
// fails validation or resolution is counted and the batch continues.
type Importer struct {
	store      *corpus.Store
	now        func() time.Time
	newBatchID func() string
}

// NewImporter creates an Importer over the given store.
func NewImporter(store *corpus.Store) *Importer {
	return &Importer{
		store:      store,
		now:        time.Now,
		newBatchID: uuid.NewString,
	}
}

// Import applies rules and templates under the policy and returns the
// per-record summary. The batch is applied in the order given; a later
// record with the same identifier sees the earlier one's result.
func (im *Importer) Import(rules []*schema.Rule, templates []*schema.PromptTemplate, policy Policy) *Summary {
	s := &Summary{BatchID: im.newBatchID()}
	for _, r := range rules {
		s.add(im.importRule(r, policy))
	}
	for _, t := range templates {
		s.add(im.importTemplate(t, policy))
	}
	return s
}

func (im *Importer) importRule(r *schema.Rule, policy Policy) RecordOutcome {
	incoming := r.Clone()
	incoming.Normalize()
	if err := incoming.Validate(); err != nil {
		return RecordOutcome{RuleID: incoming.RuleID, Outcome: OutcomeFailed, Error: err.Error()}
	}

	existing, err := im.store.GetRule(incoming.RuleID)
	if err != nil && !errors.Is(err, schema.ErrNotFound) {
		return RecordOutcome{RuleID: incoming.RuleID, Outcome: OutcomeFailed, Error: err.Error()}
	}

	res := Resolve(existing, incoming, policy, im.now().UTC())
	if res.Outcome != OutcomeRejected {
		im.store.PutRule(res.Rule)
	}
	return RecordOutcome{RuleID: incoming.RuleID, Outcome: res.Outcome, Warnings: res.Warnings}
}

// importTemplate maps the rule policies onto template semantics:
// reject appends only new identifiers, overwrite and merge both
// replace, since templates carry no usage history to preserve.
func (im *Importer) importTemplate(t *schema.PromptTemplate, policy Policy) RecordOutcome {
	incoming := t.Clone()
	incoming.Normalize()
	if err := incoming.Validate(); err != nil {
		return RecordOutcome{TemplateID: incoming.TemplateID, Outcome: OutcomeFailed, Error: err.Error()}
	}

	if policy == PolicyReject {
		if err := im.store.PutNewTemplate(incoming); err != nil {
			if errors.Is(err, schema.ErrDuplicateID) {
				return RecordOutcome{TemplateID: incoming.TemplateID, Outcome: OutcomeRejected}
			}
			return RecordOutcome{TemplateID: incoming.TemplateID, Outcome: OutcomeFailed, Error: err.Error()}
		}
		return RecordOutcome{TemplateID: incoming.TemplateID, Outcome: OutcomeCreated}
	}

	_, err := im.store.GetTemplate(incoming.TemplateID)
	existed := err == nil
	im.store.PutTemplate(incoming)
	if existed {
		return RecordOutcome{TemplateID: incoming.TemplateID, Outcome: OutcomeUpdated}
	}
	return RecordOutcome{TemplateID: incoming.TemplateID, Outcome: OutcomeCreated}
}

func (s *Summary) add(o RecordOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Outcome {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeMerged:
		s.Merged++
	case OutcomeRejected:
		s.Rejected++
	case OutcomeFailed:
		s.Failed++
	}
}
