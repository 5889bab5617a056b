package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/tools"
)

// Version is reported to MCP clients and by the version command.
var Version = "0.1.0"

// New creates a fully configured MCP server with all tools registered.
func New(pipeline tools.Ingester, catalog storage.Catalog) *mcp.Server {
	at := &tools.ArticleTools{Pipeline: pipeline, Catalog: catalog}
	ct := &tools.CatalogTools{Catalog: catalog}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "wikipages",
		Version: Version,
	}, nil)

	// Article tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "ingest_article",
		Description: "Fetch a Wikipedia summary by title, render its static page and add it to the catalog",
	}, at.IngestArticle)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_latest_article",
		Description: "Get the most recently ingested article",
	}, at.GetLatestArticle)

	// Catalog tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_links",
		Description: "List every catalogued Wikipedia link in insertion order",
	}, ct.ListLinks)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_index",
		Description: "List the slug key to rendered page index",
	}, ct.ListIndex)

	return srv
}
