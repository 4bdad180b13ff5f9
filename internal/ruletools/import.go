package ruletools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/importer"
	"rulehub/internal/merge"
)

// ImportTool handles the rules_import MCP tool.
type ImportTool struct {
	importer *merge.Importer
}

// NewImportTool creates an ImportTool.
func NewImportTool(im *merge.Importer) *ImportTool {
	return &ImportTool{importer: im}
}

// Definition returns the MCP tool definition for rules_import.
func (t *ImportTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_import",
		mcp.WithDescription(
			"Import rules and prompt templates from a file or directory. "+
				"Supports JSON, YAML, and Markdown with YAML frontmatter. "+
				"Broken files and invalid records are reported without aborting the batch.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File or directory to import from"),
		),
		mcp.WithString("policy",
			mcp.Description("Conflict policy for existing identifiers: reject, overwrite, or merge (default)"),
		),
	)
}

// Handle processes the rules_import tool call.
func (t *ImportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	policy, err := merge.ParsePolicy(req.GetString("policy", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loaded, err := importer.LoadPath(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}

	summary := t.importer.Import(loaded.Rules, loaded.Templates, policy)

	var b strings.Builder
	fmt.Fprintf(&b, "Import batch %s (policy %s):\n", summary.BatchID, policy)
	fmt.Fprintf(&b, "  created=%d updated=%d merged=%d rejected=%d failed=%d\n",
		summary.Created, summary.Updated, summary.Merged, summary.Rejected, summary.Failed)

	for _, o := range summary.Outcomes {
		id := o.RuleID
		if id == "" {
			id = o.TemplateID
		}
		switch {
		case o.Error != "":
			fmt.Fprintf(&b, "  %s: %s (%s)\n", id, o.Outcome, o.Error)
		case len(o.Warnings) > 0:
			fmt.Fprintf(&b, "  %s: %s (%s)\n", id, o.Outcome, strings.Join(o.Warnings, "; "))
		}
	}
	for _, fe := range loaded.Errors {
		fmt.Fprintf(&b, "  file error: %s: %s\n", fe.Path, fe.Err)
	}
	return mcp.NewToolResultText(b.String()), nil
}
