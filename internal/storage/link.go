package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
)

// InsertLinkIfAbsent adds a link to the catalog. The first write for a url
// wins; later writes for the same url change nothing.
func (c *SQLiteCatalog) InsertLinkIfAbsent(ctx context.Context, title, url, summary string) (bool, error) {
	result, err := c.db.ExecContext(ctx,
		`INSERT INTO links (id, title, url, summary) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO NOTHING`,
		uuid.New().String(), title, url, summary,
	)
	if err != nil {
		return false, fmt.Errorf("insert link %q: %w", url, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert link %q rows affected: %w", url, err)
	}
	return n > 0, nil
}

// ListLinks returns the whole link catalog in insertion order.
func (c *SQLiteCatalog) ListLinks(ctx context.Context) ([]models.LinkEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT title, url, summary FROM links ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := []models.LinkEntry{}
	for rows.Next() {
		var l models.LinkEntry
		if err := rows.Scan(&l.Title, &l.URL, &l.Summary); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
