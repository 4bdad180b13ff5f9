// Package importer parses rule and template records from files on
// disk. Three formats are supported: JSON (single object or array),
// YAML (documents or sequences), and Markdown with YAML frontmatter.
//
// Parsing stops at the record boundary: records come back as schema
// types, unvalidated. Validation and conflict policy belong to the
// merge importer; this package only answers "what is in this file".
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"rulehub/internal/schema"
)

// FileError records a file that could not be parsed. Load keeps going
// past these so one broken file never hides the rest of a directory.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// LoadResult is everything parsed from a path.
type LoadResult struct {
	Rules     []*schema.Rule
	Templates []*schema.PromptTemplate
	Errors    []FileError
}

// LoadPath parses a file, or walks a directory tree parsing every
// supported file in it. Unsupported extensions are skipped silently;
// parse failures are collected per file.
func LoadPath(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	res := &LoadResult{}
	if !info.IsDir() {
		res.addFile(path)
		return res, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supported(p) {
			return nil
		}
		res.addFile(p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return res, nil
}

func (res *LoadResult) addFile(path string) {
	rules, templates, err := ParseFile(path)
	if err != nil {
		res.Errors = append(res.Errors, FileError{Path: path, Err: err.Error()})
		return
	}
	res.Rules = append(res.Rules, rules...)
	res.Templates = append(res.Templates, templates...)
}

func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".md", ".mdc":
		return true
	}
	return false
}

// ParseFile parses one file by extension.
func ParseFile(path string) ([]*schema.Rule, []*schema.PromptTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".md", ".mdc":
		return parseMarkdown(data)
	}
	return nil, nil, fmt.Errorf("parse %s: unsupported extension", path)
}

// recordProbe decides whether a raw record is a rule or a template by
// field shape: anything carrying template_id or a template body is a
// template, everything else is a rule.
type recordProbe struct {
	TemplateID string `json:"template_id" yaml:"template_id"`
	Template   string `json:"template" yaml:"template"`
}

func (p recordProbe) isTemplate() bool {
	return p.TemplateID != "" || p.Template != ""
}

// newRule returns the blank rule a record is decoded into. Rules are
// active unless the record says otherwise, so an omitted active field
// never imports a rule as soft-deleted.
func newRule() schema.Rule {
	return schema.Rule{Active: true}
}

// ─── Unknown fields ──────────────────────────────────────────────────────────

// ruleFields and templateFields are the accepted record keys, derived
// from the schema struct tags so they never drift from the types.
var (
	ruleFields     = fieldNames(reflect.TypeOf(schema.Rule{}))
	templateFields = fieldNames(reflect.TypeOf(schema.PromptTemplate{}))
)

func fieldNames(t reflect.Type) map[string]bool {
	out := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			out[name] = true
		}
	}
	return out
}

// warnUnknownFields logs record keys the schema does not carry. The
// record still parses; the unknown fields are dropped.
func warnUnknownFields(keys []string, known map[string]bool) {
	for _, k := range keys {
		if !known[k] {
			log.Printf("WARNING: unknown field %q dropped", k)
		}
	}
}

func jsonKeys(raw json.RawMessage) []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func yamlKeys(n *yaml.Node) []string {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	var keys []string
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

// ─── JSON ────────────────────────────────────────────────────────────────────

func parseJSON(data []byte) ([]*schema.Rule, []*schema.PromptTemplate, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		// Not an array; try a single object.
		raws = []json.RawMessage{data}
	}

	var rules []*schema.Rule
	var templates []*schema.PromptTemplate
	for i, raw := range raws {
		var probe recordProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		if probe.isTemplate() {
			warnUnknownFields(jsonKeys(raw), templateFields)
			var t schema.PromptTemplate
			if err := json.Unmarshal(raw, &t); err != nil {
				return nil, nil, fmt.Errorf("record %d: %w", i, err)
			}
			templates = append(templates, &t)
			continue
		}
		warnUnknownFields(jsonKeys(raw), ruleFields)
		r := newRule()
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		rules = append(rules, &r)
	}
	return rules, templates, nil
}

// ─── YAML ────────────────────────────────────────────────────────────────────

func parseYAML(data []byte) ([]*schema.Rule, []*schema.PromptTemplate, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var rules []*schema.Rule
	var templates []*schema.PromptTemplate
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("yaml: %w", err)
		}

		nodes := []*yaml.Node{&doc}
		if len(doc.Content) == 1 && doc.Content[0].Kind == yaml.SequenceNode {
			nodes = doc.Content[0].Content
		}
		for i, n := range nodes {
			var probe recordProbe
			if err := n.Decode(&probe); err != nil {
				return nil, nil, fmt.Errorf("yaml record %d: %w", i, err)
			}
			if probe.isTemplate() {
				warnUnknownFields(yamlKeys(n), templateFields)
				var t schema.PromptTemplate
				if err := n.Decode(&t); err != nil {
					return nil, nil, fmt.Errorf("yaml record %d: %w", i, err)
				}
				templates = append(templates, &t)
				continue
			}
			warnUnknownFields(yamlKeys(n), ruleFields)
			r := newRule()
			if err := n.Decode(&r); err != nil {
				return nil, nil, fmt.Errorf("yaml record %d: %w", i, err)
			}
			rules = append(rules, &r)
		}
	}
	return rules, templates, nil
}

// ─── Markdown ────────────────────────────────────────────────────────────────

// parseMarkdown reads a rule from YAML frontmatter plus body sections:
// a "## Description" section fills the description when the frontmatter
// has none, and bullet lines under "## Guidelines" (or "## Rules")
// become conditions.
func parseMarkdown(data []byte) ([]*schema.Rule, []*schema.PromptTemplate, error) {
	front, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, nil, err
	}

	r := newRule()
	var fm yaml.Node
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		return nil, nil, fmt.Errorf("frontmatter: %w", err)
	}
	if fm.Kind != 0 {
		warnUnknownFields(yamlKeys(&fm), ruleFields)
		if err := fm.Decode(&r); err != nil {
			return nil, nil, fmt.Errorf("frontmatter: %w", err)
		}
	}

	if desc := section(body, "description"); desc != "" && r.Description == "" {
		r.Description = desc
	}
	if guidelines := section(body, "guidelines", "guideline", "rules"); guidelines != "" {
		for _, line := range strings.Split(guidelines, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "- ") {
				continue
			}
			r.Conditions = append(r.Conditions, schema.RuleCondition{
				Condition: "default",
				Guideline: strings.TrimPrefix(line, "- "),
			})
		}
	}
	return []*schema.Rule{&r}, nil, nil
}

func splitFrontmatter(doc string) (front, body string, err error) {
	doc = strings.TrimPrefix(doc, "\ufeff")
	if !strings.HasPrefix(doc, "---\n") {
		return "", "", fmt.Errorf("markdown rule missing frontmatter")
	}
	rest := doc[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", "", fmt.Errorf("markdown rule frontmatter not closed")
	}
	front = rest[:end]
	body = rest[end+len("\n---"):]
	return front, strings.TrimPrefix(body, "\n"), nil
}

// section extracts the text of the first matching "## Heading" block,
// matching heading names case-insensitively.
func section(body string, names ...string) string {
	lines := strings.Split(body, "\n")
	var out []string
	collecting := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if collecting {
				break
			}
			heading := strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			for _, n := range names {
				if heading == n {
					collecting = true
					break
				}
			}
			continue
		}
		if collecting {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
