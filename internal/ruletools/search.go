package ruletools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/match"
)

// SearchTool handles the rules_search MCP tool.
type SearchTool struct {
	engine *match.Engine
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(engine *match.Engine) *SearchTool {
	return &SearchTool{engine: engine}
}

// Definition returns the MCP tool definition for rules_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_search",
		mcp.WithDescription(
			"Search the rule corpus for guidelines matching a context. "+
				"All filters are optional; an empty query returns the top rules.",
		),
		mcp.WithString("query",
			mcp.Description("Free-text query matched against rule names and descriptions"),
		),
		mcp.WithString("languages",
			mcp.Description("Comma-separated languages, e.g. 'python,go'"),
		),
		mcp.WithString("domains",
			mcp.Description("Comma-separated domains, e.g. 'meteorology,web'"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
		mcp.WithString("content_types",
			mcp.Description("Comma-separated content types, e.g. 'code,documentation'"),
		),
		mcp.WithString("rule_types",
			mcp.Description("Comma-separated rule types: style, content, format, performance, security"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 100)"),
		),
		mcp.WithBoolean("include_inactive",
			mcp.Description("Include soft-deleted rules in results"),
		),
	)
}

// Handle processes the rules_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results := t.engine.Search(queryFromRequest(req))
	if len(results) == 0 {
		return mcp.NewToolResultText("No rules matched the query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d rules:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s) score=%.2f - %s\n",
			i+1, r.Rule.RuleID, r.Rule.RuleType, r.Score, r.Rule.Name)
		if r.Rule.Description != "" {
			fmt.Fprintf(&b, "    %s\n", r.Rule.Description)
		}
		if len(r.MatchedFields) > 0 {
			fmt.Fprintf(&b, "    matched: %s\n", strings.Join(r.MatchedFields, ", "))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
