package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/ingest"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
)

// Ingester runs one ingestion.
type Ingester interface {
	Ingest(ctx context.Context, title string) (*models.IngestionResult, error)
}

// ArticleTools holds references needed by article tool handlers.
type ArticleTools struct {
	Pipeline Ingester
	Catalog  storage.Catalog
}

// --- Input types ---

type IngestArticleInput struct {
	Title string `json:"title" jsonschema:"Wikipedia article title to fetch, render and catalogue"`
}

// --- Handlers ---

func (t *ArticleTools) IngestArticle(ctx context.Context, _ *mcp.CallToolRequest, input IngestArticleInput) (*mcp.CallToolResult, any, error) {
	res, err := t.Pipeline.Ingest(ctx, input.Title)
	if err != nil {
		return toolError("%s", ingest.Message(err)), nil, nil
	}
	return toolJSON(res)
}

func (t *ArticleTools) GetLatestArticle(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	article, err := t.Catalog.GetLatestArticle(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return toolError("No article has been ingested yet. Use ingest_article first."), nil, nil
	}
	if err != nil {
		return toolError("Failed to read latest article: %v", err), nil, nil
	}
	return toolJSON(article)
}
