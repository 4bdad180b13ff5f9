package ruletools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/corpus"
)

// TagsTool handles the rules_tags MCP tool: a browsable index of the
// classification vocabulary currently in the corpus.
type TagsTool struct {
	store *corpus.Store
}

// NewTagsTool creates a TagsTool.
func NewTagsTool(store *corpus.Store) *TagsTool {
	return &TagsTool{store: store}
}

// Definition returns the MCP tool definition for rules_tags.
func (t *TagsTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_tags",
		mcp.WithDescription(
			"List the tags, languages, and domains declared by active rules, "+
				"with the number of rules carrying each. Useful for discovering "+
				"what to filter on before searching.",
		),
	)
}

// Handle processes the rules_tags tool call.
func (t *TagsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags := map[string]int{}
	languages := map[string]int{}
	domains := map[string]int{}

	for _, r := range t.store.Rules() {
		if !r.Active {
			continue
		}
		for _, v := range r.Tags {
			tags[v]++
		}
		for _, v := range r.Languages {
			languages[v]++
		}
		for _, v := range r.Domains {
			domains[v]++
		}
	}

	if len(tags) == 0 && len(languages) == 0 && len(domains) == 0 {
		return mcp.NewToolResultText("The corpus has no active rules yet."), nil
	}

	var b strings.Builder
	writeVocabulary(&b, "Tags", tags)
	writeVocabulary(&b, "Languages", languages)
	writeVocabulary(&b, "Domains", domains)
	return mcp.NewToolResultText(b.String()), nil
}

func writeVocabulary(b *strings.Builder, title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "%s: ", title)
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s (%d)", k, m[k])
	}
	b.WriteString("\n")
}
