package models

import "time"

// ArticleRecord is the article of record for a title. Re-ingesting the same
// title overwrites Summary and PageURL in place.
type ArticleRecord struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	PageURL   string    `json:"pageUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LinkEntry is one row of the browsable link catalog, unique by URL.
type LinkEntry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// IndexEntry maps a sanitized slug key to the rendered static page.
type IndexEntry struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// IngestionResult is returned to callers after a successful ingestion.
type IngestionResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	PageURL string `json:"pageUrl"`
}
