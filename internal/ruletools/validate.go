package ruletools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/schema"
	"rulehub/internal/synth"
)

// ValidateTool handles the rules_validate MCP tool: it matches rules
// for the given content context and synthesizes a validation prompt
// the caller can hand to an LLM.
type ValidateTool struct {
	synth *synth.Synthesizer
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool(s *synth.Synthesizer) *ValidateTool {
	return &ValidateTool{synth: s}
}

// Definition returns the MCP tool definition for rules_validate.
func (t *ValidateTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_validate",
		mcp.WithDescription(
			"Build a validation prompt for a piece of content: matches applicable rules, "+
				"selects a prompt template, and renders the prompt. The content is never "+
				"judged here; the rendered prompt is for an external LLM.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The content to validate, embedded verbatim in the prompt"),
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
		mcp.WithString("output_mode",
			mcp.Description("One of: result_only, result_with_prompt (default), result_with_rules, result_with_template, full"),
		),
		mcp.WithString("template_id",
			mcp.Description("Use this template instead of automatic selection"),
		),
	)
}

// Handle processes the rules_validate tool call.
func (t *ValidateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	mode, err := synth.ParseMode(req.GetString("output_mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.synth.Synthesize(content, queryFromRequest(req), mode, req.GetString("template_id", ""))
	if err != nil {
		if errors.Is(err, schema.ErrNoTemplateMatch) {
			return mcp.NewToolResultError("no prompt template matches this context; import templates or pass template_id"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("synthesis failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Matched %d rules:\n", len(res.Matches))
	for _, m := range res.Matches {
		fmt.Fprintf(&b, "- %s score=%.2f %s\n", m.RuleID, m.Score, m.Name)
	}
	if res.Template != nil {
		fmt.Fprintf(&b, "\nTemplate: %s\n", res.Template.TemplateID)
	}
	if len(res.Rules) > 0 {
		b.WriteString("\nRules:\n")
		for _, r := range res.Rules {
			fmt.Fprintf(&b, "### %s: %s\n", r.RuleID, r.Name)
			for _, c := range r.Conditions {
				fmt.Fprintf(&b, "- [%d] %s\n", c.Priority, c.Guideline)
			}
		}
	}
	if res.Prompt != "" {
		fmt.Fprintf(&b, "\n--- Validation prompt ---\n%s\n", res.Prompt)
	}
	return mcp.NewToolResultText(b.String()), nil
}
