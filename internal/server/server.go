// Package server wires all MCP components and creates the server
// instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools and resources that depend on them.
// No matching, merge, or synthesis logic lives here — only wiring.
package server

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"rulehub/internal/config"
	"rulehub/internal/corpus"
	"rulehub/internal/importer"
	"rulehub/internal/match"
	"rulehub/internal/merge"
	"rulehub/internal/resources"
	"rulehub/internal/ruletools"
	"rulehub/internal/synth"
	"rulehub/internal/usage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server: loads the corpus from the
// configured directories, hydrates usage stats from the journal, and
// registers every tool and resource.
//
// The returned cleanup function closes the usage journal and must be
// called on shutdown (typically via defer). It is always non-nil and
// safe to call even if the journal failed to open.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	store := corpus.New()
	engine := match.NewEngine(store, cfg.Weights, cfg.MaxSearchResults)
	synthesizer := synth.New(store, engine, cfg.SynthesisTopN)
	ruleImporter := merge.NewImporter(store)

	loadCorpus(store, ruleImporter, cfg)

	// The usage journal is an independent subsystem: if it fails to
	// open, search and synthesis keep working and usage stats are
	// in-memory only for this process.
	cleanup := noop
	journal, err := usage.Open(cfg.DataDir)
	if err != nil {
		log.Printf("WARNING: usage journal disabled: %v", err)
		journal = nil
	} else {
		cleanup = func() {
			if err := journal.Close(); err != nil {
				log.Printf("WARNING: usage journal close: %v", err)
			}
		}
		applied, err := journal.Hydrate(store)
		if err != nil {
			log.Printf("WARNING: usage hydration failed: %v", err)
		} else if applied > 0 {
			log.Printf("hydrated usage stats for %d rules", applied)
		}
	}

	s := server.NewMCPServer(
		"rulehub",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	searchTool := ruletools.NewSearchTool(engine)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	validateTool := ruletools.NewValidateTool(synthesizer)
	s.AddTool(validateTool.Definition(), validateTool.Handle)

	enhanceTool := ruletools.NewEnhanceTool(synthesizer)
	s.AddTool(enhanceTool.Definition(), enhanceTool.Handle)

	importTool := ruletools.NewImportTool(ruleImporter)
	s.AddTool(importTool.Definition(), importTool.Handle)

	statsTool := ruletools.NewStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	tagsTool := ruletools.NewTagsTool(store)
	s.AddTool(tagsTool.Definition(), tagsTool.Handle)

	getTool := ruletools.NewGetTool(store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	trackTool := ruletools.NewTrackUsageTool(store, journal)
	s.AddTool(trackTool.Definition(), trackTool.Handle)

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.ListResource(), resourceHandler.HandleList)
	s.AddResourceTemplate(resourceHandler.RuleTemplate(), resourceHandler.HandleRule)

	return s, cleanup, nil
}

// noop is the default cleanup when the usage journal is disabled.
func noop() {}

// loadCorpus imports the configured rules and templates directories.
// Missing directories are normal on first run; everything else is
// logged and the server starts with whatever loaded.
func loadCorpus(store *corpus.Store, im *merge.Importer, cfg config.Config) {
	for _, dir := range []string{cfg.RulesDir, cfg.TemplatesDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		loaded, err := importer.LoadPath(dir)
		if err != nil {
			log.Printf("WARNING: loading %s: %v", dir, err)
			continue
		}
		for _, fe := range loaded.Errors {
			log.Printf("WARNING: %s: %s", fe.Path, fe.Err)
		}
		summary := im.Import(loaded.Rules, loaded.Templates, merge.PolicyMerge)
		if summary.Failed > 0 {
			for _, o := range summary.Outcomes {
				if o.Error != "" {
					log.Printf("WARNING: import %s%s: %s", o.RuleID, o.TemplateID, o.Error)
				}
			}
		}
	}
	log.Printf("corpus loaded: %d rules, %d templates", store.RuleCount(), store.TemplateCount())
}

// serverInstructions returns the system instructions that tell the AI
// how to use the rule corpus effectively.
func serverInstructions() string {
	return `You have access to RuleHub, a rule-and-template retrieval MCP server.

RuleHub stores declarative content rules (style, content, format,
performance, security) and prompt templates, and answers context
queries with ranked results.

## Typical workflow
1. rules_tags — discover what languages, domains, and tags exist
2. rules_search — find rules for the current context (all filters optional)
3. rules_validate — build a validation prompt for a piece of content;
   hand the rendered prompt to an LLM yourself, RuleHub never judges
4. rules_enhance — append the matching rules' guidance to a prompt you
   are about to run, when you do not need a full validation template
5. rules_track_usage — after actually applying a rule, report whether
   it helped; this feeds rules_stats

## Importing
rules_import loads JSON, YAML, or Markdown-frontmatter rule files from
a path. Conflicts with existing rule IDs follow the policy argument:
merge (default, unions classification sets and keeps the newer
content), overwrite, or reject.

## Resources
- rulehub://rules/list — compact index of every rule
- rulehub://rules/{rule_id} — full JSON body of one rule

## Notes
- Searching is side-effect free: usage counts only change via
  rules_track_usage.
- Deleting a rule deactivates it; pass include_inactive to
  rules_search to see deactivated rules.`
}
