// Package ingest resolves a title against the summary API, renders its static
// page and records it in the catalog.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/wikipedia"
)

// Fetcher looks up the summary of a title.
type Fetcher interface {
	FetchSummary(ctx context.Context, title string) (*wikipedia.Summary, error)
}

// Renderer writes the static page for a slug key and returns its public URL.
type Renderer interface {
	Render(slugKey, title, summary string) (string, error)
}

// Store is the write side of the catalog used by an ingestion.
type Store interface {
	UpsertArticle(ctx context.Context, title, summary, pageURL string) error
	InsertLinkIfAbsent(ctx context.Context, title, url, summary string) (bool, error)
	UpsertIndex(ctx context.Context, key, title, url string) error
}

// Pipeline runs ingestions. It is safe for concurrent use; ingestions that
// share a slug key run one at a time.
type Pipeline struct {
	fetcher  Fetcher
	renderer Renderer
	store    Store
	logger   *slog.Logger
	locks    *keyLocks
}

// New creates a pipeline. A nil logger discards output.
func New(fetcher Fetcher, renderer Renderer, store Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		fetcher:  fetcher,
		renderer: renderer,
		store:    store,
		logger:   logger.With("component", "ingest"),
		locks:    newKeyLocks(),
	}
}

// Ingest fetches rawTitle, renders its page and persists the article, link
// and index entry, in that order. Nothing is written unless the fetch
// succeeds. A failure while persisting leaves earlier writes in place.
//
// Failures are returned as *Error.
func (p *Pipeline) Ingest(ctx context.Context, rawTitle string) (*models.IngestionResult, error) {
	res, err := p.ingest(ctx, rawTitle)
	ingestionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		p.logger.Warn("ingestion failed", "title", rawTitle, "error", err)
		return nil, err
	}
	p.logger.Info("ingested article", "title", res.Title, "page_url", res.PageURL)
	return res, nil
}

func (p *Pipeline) ingest(ctx context.Context, rawTitle string) (*models.IngestionResult, error) {
	title := strings.TrimSpace(rawTitle)
	if title == "" {
		return nil, &Error{Stage: StageValidate, Kind: ErrInvalidInput, Title: rawTitle}
	}

	key := SlugKey(rawTitle)
	unlock := p.locks.lock(key)
	defer unlock()

	summary, err := p.fetcher.FetchSummary(ctx, title)
	if err != nil {
		return nil, &Error{Stage: StageFetch, Kind: fetchKind(err), Title: title, Err: err}
	}
	p.logger.Debug("fetched summary", "title", title, "resolved", summary.Title, "key", key)

	pageURL, err := p.renderer.Render(key, summary.Title, summary.Extract)
	if err != nil {
		return nil, &Error{Stage: StageRender, Kind: ErrIngestionFailed, Title: title, Err: err}
	}
	p.logger.Debug("rendered page", "key", key, "page_url", pageURL)

	// The caller going away must not leave the write sequence half done.
	wctx := context.WithoutCancel(ctx)

	if err := p.store.UpsertArticle(wctx, summary.Title, summary.Extract, pageURL); err != nil {
		return nil, &Error{Stage: StageArticle, Kind: ErrIngestionFailed, Title: title, Err: err}
	}

	inserted, err := p.store.InsertLinkIfAbsent(wctx, summary.Title, summary.CanonicalURL, summary.Extract)
	if err != nil {
		return nil, &Error{Stage: StageLink, Kind: ErrIngestionFailed, Title: title, Err: err}
	}
	if !inserted {
		p.logger.Debug("link already catalogued", "url", summary.CanonicalURL)
	}

	if err := p.store.UpsertIndex(wctx, key, summary.Title, pageURL); err != nil {
		return nil, &Error{Stage: StageIndex, Kind: ErrIngestionFailed, Title: title, Err: err}
	}

	return &models.IngestionResult{
		Title:   summary.Title,
		Summary: summary.Extract,
		PageURL: pageURL,
	}, nil
}

func fetchKind(err error) error {
	switch {
	case errors.Is(err, wikipedia.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, wikipedia.ErrDisambiguation):
		return ErrDisambiguation
	default:
		return ErrIngestionFailed
	}
}
