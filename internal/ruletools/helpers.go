// Package ruletools provides the MCP tool handlers for the rule
// corpus.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers are thin: they parse arguments into schema types, call the
// core packages, and format results. No matching or merge logic lives
// here.
package ruletools

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/schema"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// listArg splits a comma-separated string argument into a clean slice.
func listArg(req mcp.CallToolRequest, key string) []string {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// queryFromRequest assembles the shared query descriptor used by the
// search, validate, and stats tools.
func queryFromRequest(req mcp.CallToolRequest) schema.Query {
	return schema.Query{
		Text:            req.GetString("query", ""),
		Languages:       listArg(req, "languages"),
		Domains:         listArg(req, "domains"),
		Tags:            listArg(req, "tags"),
		ContentTypes:    listArg(req, "content_types"),
		RuleTypes:       listArg(req, "rule_types"),
		Limit:           intArg(req, "limit", 0),
		IncludeInactive: boolArg(req, "include_inactive", false),
	}
}
