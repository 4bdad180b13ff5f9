package importer

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const jsonRules = `[
  {
    "rule_id": "CR-JSON-1",
    "name": "JSON rule",
    "rule_type": "style",
    "languages": ["python"],
    "rules": [{"condition": "default", "guideline": "do the thing", "priority": 5}]
  },
  {
    "template_id": "PT-JSON-1",
    "template": "check {content}",
    "languages": ["python"]
  }
]`

const yamlRules = `rule_id: CR-YAML-1
name: YAML rule
rule_type: content
languages: [go]
rules:
  - condition: default
    guideline: keep it short
    priority: 7
---
template_id: PT-YAML-1
template: "review {content} with {rules}"
priority: 3
`

const yamlSequence = `- rule_id: CR-SEQ-1
  name: first
  rule_type: style
  languages: [go]
  rules:
    - {condition: default, guideline: g1, priority: 5}
- rule_id: CR-SEQ-2
  name: second
  rule_type: style
  languages: [go]
  rules:
    - {condition: default, guideline: g2, priority: 5}
`

const markdownRule = `---
rule_id: CR-MD-1
name: Markdown rule
rule_type: format
languages: [markdown]
tags: [docs]
---

## Description

Headers should nest without skipping levels.

## Guidelines

- use one h1 per document
- do not skip heading levels
`

func TestParseFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.json", jsonRules)

	rules, templates, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(rules) != 1 || rules[0].RuleID != "CR-JSON-1" {
		t.Errorf("rules = %+v", rules)
	}
	if !rules[0].Active {
		t.Error("rule without an active field parsed as inactive")
	}
	if len(templates) != 1 || templates[0].TemplateID != "PT-JSON-1" {
		t.Errorf("templates = %+v", templates)
	}
}

func TestParseFile_ActiveDefault(t *testing.T) {
	// Omitting active means active; saying active: false sticks.
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", `rule_id: CR-ON-1
name: enabled by default
rule_type: style
languages: [go]
rules:
  - {condition: default, guideline: g, priority: 5}
---
rule_id: CR-OFF-1
name: explicitly disabled
rule_type: style
languages: [go]
active: false
rules:
  - {condition: default, guideline: g, priority: 5}
`)

	rules, _, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(rules))
	}
	if !rules[0].Active {
		t.Error("CR-ON-1 should default to active")
	}
	if rules[1].Active {
		t.Error("CR-OFF-1 should stay inactive")
	}
}

func TestParseFile_UnknownFieldWarns(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	dir := t.TempDir()
	path := writeFile(t, dir, "rule.json", `{
	  "rule_id": "CR-ODD-1",
	  "name": "odd",
	  "rule_type": "style",
	  "languages": ["go"],
	  "flavor": "spicy",
	  "rules": [{"condition": "default", "guideline": "g", "priority": 5}]
	}`)

	rules, _, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}
	if !strings.Contains(buf.String(), `unknown field "flavor"`) {
		t.Errorf("no warning for unknown field, log: %q", buf.String())
	}
}

func TestParseFile_YAMLDocuments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", yamlRules)

	rules, templates, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(rules) != 1 || rules[0].Conditions[0].Priority != 7 {
		t.Errorf("rules = %+v", rules)
	}
	if len(templates) != 1 || templates[0].Priority != 3 {
		t.Errorf("templates = %+v", templates)
	}
}

func TestParseFile_YAMLSequence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yml", yamlSequence)

	rules, _, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(rules) != 2 || rules[0].RuleID != "CR-SEQ-1" || rules[1].RuleID != "CR-SEQ-2" {
		t.Errorf("rules = %+v", rules)
	}
}

func TestParseFile_Markdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rule.md", markdownRule)

	rules, _, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	r := rules[0]
	if r.RuleID != "CR-MD-1" || r.RuleType != "format" {
		t.Errorf("frontmatter not parsed: %+v", r)
	}
	if r.Description != "Headers should nest without skipping levels." {
		t.Errorf("description = %q", r.Description)
	}
	if len(r.Conditions) != 2 || r.Conditions[0].Guideline != "use one h1 per document" {
		t.Errorf("conditions = %+v", r.Conditions)
	}
	if !r.Active {
		t.Error("frontmatter rule without active parsed as inactive")
	}
}

func TestParseFile_MarkdownNoFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rule.md", "# just a doc\n")

	if _, _, err := ParseFile(path); err == nil {
		t.Error("markdown without frontmatter parsed without error")
	}
}

func TestLoadPath_DirectoryPartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", jsonRules)
	writeFile(t, dir, "good.yaml", yamlRules)
	writeFile(t, dir, "broken.json", "{not json")
	writeFile(t, dir, "notes.txt", "ignored")

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "rule.md", markdownRule)

	res, err := LoadPath(dir)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if len(res.Rules) != 3 {
		t.Errorf("rules = %d, want 3", len(res.Rules))
	}
	if len(res.Templates) != 2 {
		t.Errorf("templates = %d, want 2", len(res.Templates))
	}
	if len(res.Errors) != 1 || filepath.Base(res.Errors[0].Path) != "broken.json" {
		t.Errorf("errors = %+v", res.Errors)
	}
}

func TestLoadPath_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.json", jsonRules)

	res, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if len(res.Rules) != 1 || len(res.Templates) != 1 {
		t.Errorf("rules=%d templates=%d", len(res.Rules), len(res.Templates))
	}
}

func TestLoadPath_Missing(t *testing.T) {
	if _, err := LoadPath(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing path did not error")
	}
}
