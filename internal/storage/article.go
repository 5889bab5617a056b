package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
)

// UpsertArticle writes the article of record for title. An existing row keeps
// its id and created_at; summary, page_url and the ordering sequence are
// overwritten.
func (c *SQLiteCatalog) UpsertArticle(ctx context.Context, title, summary, pageURL string) error {
	ts := now()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO articles (id, title, summary, page_url, seq, created_at, updated_at)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM articles), ?, ?)
		 ON CONFLICT(title) DO UPDATE SET
		     summary = excluded.summary,
		     page_url = excluded.page_url,
		     seq = excluded.seq,
		     updated_at = excluded.updated_at`,
		uuid.New().String(), title, summary, pageURL, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("upsert article %q: %w", title, err)
	}
	return nil
}

// GetLatestArticle returns the article with the highest sequence number.
func (c *SQLiteCatalog) GetLatestArticle(ctx context.Context) (*models.ArticleRecord, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT title, summary, page_url, updated_at FROM articles ORDER BY seq DESC LIMIT 1`,
	)
	return scanArticle(row)
}

// GetArticle looks up the article of record by its exact title.
func (c *SQLiteCatalog) GetArticle(ctx context.Context, title string) (*models.ArticleRecord, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT title, summary, page_url, updated_at FROM articles WHERE title = ?`, title,
	)
	return scanArticle(row)
}

// scanArticle scans a single article row. Only an undecodable updated_at is
// reported as ErrCorruptState.
func scanArticle(row *sql.Row) (*models.ArticleRecord, error) {
	var (
		a         models.ArticleRecord
		updatedAt sql.NullString
	)
	err := row.Scan(&a.Title, &a.Summary, &a.PageURL, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	if !updatedAt.Valid {
		return nil, fmt.Errorf("article %q has no updated_at: %w", a.Title, ErrCorruptState)
	}
	t, err := time.Parse(time.RFC3339Nano, updatedAt.String)
	if err != nil {
		return nil, fmt.Errorf("article %q updated_at: %w: %w", a.Title, ErrCorruptState, err)
	}
	a.UpdatedAt = t
	return &a, nil
}
