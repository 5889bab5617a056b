package storage

import (
	"context"
	"fmt"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
)

// UpsertIndex points key at the rendered page for title, replacing any
// previous title/url stored under the same key.
func (c *SQLiteCatalog) UpsertIndex(ctx context.Context, key, title, url string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO page_index (key, title, url, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		     title = excluded.title,
		     url = excluded.url,
		     updated_at = excluded.updated_at`,
		key, title, url, now(),
	)
	if err != nil {
		return fmt.Errorf("upsert index %q: %w", key, err)
	}
	return nil
}

// ListIndex returns every index entry ordered by key.
func (c *SQLiteCatalog) ListIndex(ctx context.Context) ([]models.IndexEntry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key, title, url FROM page_index ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}
	defer rows.Close()

	entries := []models.IndexEntry{}
	for rows.Next() {
		var e models.IndexEntry
		if err := rows.Scan(&e.Key, &e.Title, &e.URL); err != nil {
			return nil, fmt.Errorf("scan index entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
