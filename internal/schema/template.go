package schema

import "strings"

// Placeholders recognized by prompt templates. {content} is mandatory;
// {rules} is expected but optional. Anything else a template declares is
// substituted from the query context when known and left untouched
// otherwise.
const (
	PlaceholderContent = "{content}"
	PlaceholderRules   = "{rules}"
)

// PromptTemplate is a rendering skeleton for synthesizing validation
// instructions. Templates are selected by the same classification
// vocabulary rules use (domains/languages/content_types) and are
// immutable once rendered — rendering produces a new string.
type PromptTemplate struct {
	TemplateID   string   `json:"template_id" yaml:"template_id"`
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Domains      []string `json:"domains,omitempty" yaml:"domains,omitempty"`
	Languages    []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	ContentTypes []string `json:"content_types,omitempty" yaml:"content_types,omitempty"`
	Template     string   `json:"template" yaml:"template"`
	Priority     int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	Source       string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// Normalize cleans the classification sets in place.
func (t *PromptTemplate) Normalize() {
	t.Domains = normalizeSet(t.Domains)
	t.Languages = normalizeSet(t.Languages)
	t.ContentTypes = normalizeSet(t.ContentTypes)
}

// Validate checks the template's invariants.
func (t *PromptTemplate) Validate() error {
	if strings.TrimSpace(t.TemplateID) == "" {
		return &ValidationError{Field: "template_id", Message: "template_id is required"}
	}
	if !strings.Contains(t.Template, PlaceholderContent) {
		return &ValidationError{Field: "template", Message: "template must contain the {content} placeholder"}
	}
	return nil
}

// Clone returns a deep copy.
func (t *PromptTemplate) Clone() *PromptTemplate {
	out := *t
	out.Domains = append([]string(nil), t.Domains...)
	out.Languages = append([]string(nil), t.Languages...)
	out.ContentTypes = append([]string(nil), t.ContentTypes...)
	return &out
}
