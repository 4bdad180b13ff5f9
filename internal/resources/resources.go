// Package resources implements the MCP resource handlers for the rule
// corpus.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (rulehub://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rulehub/internal/corpus"
)

// Handler manages the rule corpus resource endpoints.
type Handler struct {
	store *corpus.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *corpus.Store) *Handler {
	return &Handler{store: store}
}

// ruleSummary is the compact per-rule entry in the list resource.
type ruleSummary struct {
	RuleID    string   `json:"rule_id"`
	Name      string   `json:"name"`
	RuleType  string   `json:"rule_type"`
	Active    bool     `json:"active"`
	Languages []string `json:"languages,omitempty"`
	Domains   []string `json:"domains,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// ListResource returns the MCP resource definition for the rule index.
func (h *Handler) ListResource() mcp.Resource {
	return mcp.NewResource(
		"rulehub://rules/list",
		"Rule Index",
		mcp.WithResourceDescription("Compact index of every rule in the corpus"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleList returns the rule index as JSON.
func (h *Handler) HandleList(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	rules := h.store.Rules()
	summaries := make([]ruleSummary, 0, len(rules))
	for _, r := range rules {
		summaries = append(summaries, ruleSummary{
			RuleID:    r.RuleID,
			Name:      r.Name,
			RuleType:  string(r.RuleType),
			Active:    r.Active,
			Languages: r.Languages,
			Domains:   r.Domains,
			Tags:      r.Tags,
		})
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling rule index: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// RuleTemplate returns the templated resource definition for fetching
// one rule by identifier.
func (h *Handler) RuleTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		"rulehub://rules/{rule_id}",
		"Rule",
		mcp.WithTemplateDescription("Full JSON body of a single rule"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleRule resolves rulehub://rules/{rule_id} to the full rule body.
func (h *Handler) HandleRule(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(req.Params.URI, "rulehub://rules/")
	if id == "" || strings.Contains(id, "/") {
		return errorResource(req.Params.URI, fmt.Sprintf("malformed rule URI %q", req.Params.URI)), nil
	}

	r, err := h.store.GetRule(id)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling rule %s: %w", id, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
