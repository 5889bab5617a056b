// Package wikipedia fetches article summaries from the Wikipedia REST API and
// classifies the outcome as found, not found, disambiguation or unavailable.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	summaryPath = "/api/rest_v1/page/summary/"
	articlePath = "/wiki/"

	// typeDisambiguation is the "type" value the API uses for ambiguous titles.
	typeDisambiguation = "disambiguation"

	maxBodySize = 1 << 20
)

// Summary is the subset of the page/summary payload the catalog needs.
type Summary struct {
	Title        string
	Extract      string
	Type         string
	CanonicalURL string
}

// summaryPayload mirrors the JSON returned by page/summary.
type summaryPayload struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Type        string `json:"type"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Client calls the summary endpoint of one Wikipedia instance.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient creates a client for baseURL (e.g. https://es.wikipedia.org).
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// ArticleURL returns the public article URL for title on this instance.
func (c *Client) ArticleURL(title string) string {
	return c.baseURL + articlePath + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

// FetchSummary issues one request for title. It never retries. Failures are
// returned as *FetchError.
func (c *Client) FetchSummary(ctx context.Context, title string) (*Summary, error) {
	start := time.Now()
	summary, err := c.fetch(ctx, title)
	observeFetch(start, err)
	return summary, err
}

func (c *Client) fetch(ctx context.Context, title string) (*Summary, error) {
	endpoint := c.baseURL + summaryPath + url.PathEscape(title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: ErrUpstreamUnavailable, Title: title, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: ErrUpstreamUnavailable, Title: title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &FetchError{Kind: ErrNotFound, Title: title, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: ErrUpstreamUnavailable, Title: title, Status: resp.StatusCode}
	}

	var payload summaryPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&payload); err != nil {
		return nil, &FetchError{Kind: ErrUpstreamUnavailable, Title: title, Status: resp.StatusCode, Err: fmt.Errorf("decode summary: %w", err)}
	}

	if payload.Type == typeDisambiguation {
		return nil, &FetchError{Kind: ErrDisambiguation, Title: title, Status: resp.StatusCode}
	}

	resolved := payload.Title
	if resolved == "" {
		resolved = title
	}
	canonical := payload.ContentURLs.Desktop.Page
	if canonical == "" {
		canonical = c.ArticleURL(resolved)
	}

	return &Summary{
		Title:        resolved,
		Extract:      payload.Extract,
		Type:         payload.Type,
		CanonicalURL: canonical,
	}, nil
}
