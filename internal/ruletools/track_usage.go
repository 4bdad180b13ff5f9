package ruletools

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/corpus"
	"rulehub/internal/schema"
	"rulehub/internal/usage"
)

// TrackUsageTool handles the rules_track_usage MCP tool. Searching
// never counts as usage; callers report it explicitly through this
// tool after actually applying a rule.
type TrackUsageTool struct {
	store   *corpus.Store
	journal *usage.Journal
}

// NewTrackUsageTool creates a TrackUsageTool. journal may be nil when
// the server runs without persistence.
func NewTrackUsageTool(store *corpus.Store, journal *usage.Journal) *TrackUsageTool {
	return &TrackUsageTool{store: store, journal: journal}
}

// Definition returns the MCP tool definition for rules_track_usage.
func (t *TrackUsageTool) Definition() mcp.Tool {
	return mcp.NewTool("rules_track_usage",
		mcp.WithDescription(
			"Record that a rule was applied, and whether applying it succeeded. "+
				"Feeds the usage counts and success rates reported by rules_stats.",
		),
		mcp.WithString("rule_id",
			mcp.Required(),
			mcp.Description("The rule that was applied"),
		),
		mcp.WithBoolean("success",
			mcp.Description("Whether applying the rule succeeded (default: true)"),
		),
	)
}

// Handle processes the rules_track_usage tool call.
func (t *TrackUsageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("rule_id", "")
	if id == "" {
		return mcp.NewToolResultError("'rule_id' is required"), nil
	}
	success := boolArg(req, "success", true)

	r, err := t.store.RecordUsage(id, success)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("rule %s not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("track usage failed: %v", err)), nil
	}

	if t.journal != nil {
		if err := t.journal.Record(id, success); err != nil {
			log.Printf("usage journal write failed: %v", err)
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Recorded usage for %s: %d uses, success rate %.2f",
		r.RuleID, r.UsageCount, r.SuccessRate,
	)), nil
}
