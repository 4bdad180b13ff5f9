package ruletools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/synth"
)

// EnhanceTool handles the rules_enhance MCP tool: it injects the
// guidance of the matching rules into a caller-supplied base prompt,
// without a template.
type EnhanceTool struct {
	synth *synth.Synthesizer
}

// NewEnhanceTool creates an EnhanceTool.
func NewEnhanceTool(s *synth.Synthesizer) *EnhanceTool {
	return &EnhanceTool{synth: s}
}

// Definition returns the MCP tool definition for rules_enhance.
func (t *EnhanceTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_enhance",
		mcp.WithDescription(
			"Append the matching rules' guidelines to a base prompt. Use this to "+
				"carry the corpus's guidance into a prompt you are about to run; the "+
				"base prompt itself is never modified, only extended.",
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The base prompt to enhance"),
		),
		mcp.WithString("languages",
			mcp.Description("Comma-separated languages"),
		),
		mcp.WithString("domains",
			mcp.Description("Comma-separated domains"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
		mcp.WithString("content_types",
			mcp.Description("Comma-separated content types"),
		),
		mcp.WithString("rule_types",
			mcp.Description("Comma-separated rule types"),
		),
		mcp.WithNumber("limit",
			mcp.Description("How many rules to inject at most"),
		),
	)
}

// Handle processes the rules_enhance tool call.
func (t *EnhanceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt := req.GetString("prompt", "")
	if prompt == "" {
		return mcp.NewToolResultError("'prompt' is required"), nil
	}

	enhanced, matches := t.synth.Enhance(prompt, queryFromRequest(req))

	var b strings.Builder
	fmt.Fprintf(&b, "Matched %d rules:\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s score=%.2f %s\n", m.RuleID, m.Score, m.Name)
	}
	fmt.Fprintf(&b, "\n--- Enhanced prompt ---\n%s\n", enhanced)
	return mcp.NewToolResultText(b.String()), nil
}
