package ruletools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/corpus"
	"rulehub/internal/schema"
)

// GetTool handles the rules_get MCP tool.
type GetTool struct {
	store *corpus.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(store *corpus.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for rules_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_get",
		mcp.WithDescription(
			"Fetch one rule by its identifier, including inactive rules.",
		),
		mcp.WithString("rule_id",
			mcp.Required(),
			mcp.Description("The rule identifier, e.g. CR-PY-001"),
		),
	)
}

// Handle processes the rules_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("rule_id", "")
	if id == "" {
		return mcp.NewToolResultError("'rule_id' is required"), nil
	}

	r, err := t.store.GetRule(id)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("rule %s not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (v%s, %s)\n", r.RuleID, r.Name, r.Version, r.RuleType)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n", r.Description)
	}
	if !r.Active {
		b.WriteString("(inactive)\n")
	}
	if len(r.Languages) > 0 {
		fmt.Fprintf(&b, "languages: %s\n", strings.Join(r.Languages, ", "))
	}
	if len(r.Domains) > 0 {
		fmt.Fprintf(&b, "domains: %s\n", strings.Join(r.Domains, ", "))
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "tags: %s\n", strings.Join(r.Tags, ", "))
	}
	b.WriteString("conditions:\n")
	for _, c := range r.Conditions {
		fmt.Fprintf(&b, "- [%d] %s\n", c.Priority, c.Guideline)
	}
	if r.UsageCount > 0 {
		fmt.Fprintf(&b, "usage: %d uses, success rate %.2f\n", r.UsageCount, r.SuccessRate)
	}
	return mcp.NewToolResultText(b.String()), nil
}
