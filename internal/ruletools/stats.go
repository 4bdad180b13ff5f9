package ruletools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/corpus"
	"rulehub/internal/stats"
)

// StatsTool handles the rules_stats MCP tool.
type StatsTool struct {
	store *corpus.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(store *corpus.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for rules_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_stats",
		mcp.WithDescription(
			"Aggregate corpus statistics: rule counts, breakdowns by language, "+
				"domain, type and tag, plus usage totals. Filters narrow the tally.",
		),
		mcp.WithString("languages",
			mcp.Description("Comma-separated languages to narrow the tally"),
		),
		mcp.WithString("domains",
			mcp.Description("Comma-separated domains"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
		mcp.WithString("rule_types",
			mcp.Description("Comma-separated rule types"),
		),
	)
}

// Handle processes the rules_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := stats.Aggregate(t.store, queryFromRequest(req))

	var b strings.Builder
	fmt.Fprintf(&b, "Rules: %d total, %d active; templates: %d\n",
		report.Total, report.ActiveCount, report.Templates)
	fmt.Fprintf(&b, "Usage: %d events, average success rate %.2f\n",
		report.TotalUsage, report.AverageSuccessRate)

	writeBreakdown(&b, "By language", report.ByLanguage)
	writeBreakdown(&b, "By domain", report.ByDomain)
	writeBreakdown(&b, "By type", report.ByType)
	writeBreakdown(&b, "By tag", report.ByTag)

	return mcp.NewToolResultText(b.String()), nil
}

func writeBreakdown(b *strings.Builder, title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %d\n", k, m[k])
	}
}
