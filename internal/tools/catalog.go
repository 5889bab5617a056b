package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
)

// CatalogTools holds references needed by the read-only catalog handlers.
type CatalogTools struct {
	Catalog storage.Catalog
}

// --- Handlers ---

func (t *CatalogTools) ListLinks(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	links, err := t.Catalog.ListLinks(ctx)
	if err != nil {
		return toolError("Failed to list links: %v", err), nil, nil
	}
	return toolJSON(links)
}

func (t *CatalogTools) ListIndex(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	entries, err := t.Catalog.ListIndex(ctx)
	if err != nil {
		return toolError("Failed to list index: %v", err), nil, nil
	}
	return toolJSON(entries)
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return toolText(string(data)), nil, nil
}
