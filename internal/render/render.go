// Package render writes one static HTML page per ingested article.
package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrRender wraps every failure to produce a page on disk.
var ErrRender = errors.New("render page")

//go:embed page.html.tmpl
var pageTemplate string

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// Renderer writes pages into one directory and reports their public paths.
type Renderer struct {
	dir       string
	urlPrefix string
}

// New creates a renderer writing to dir. urlPrefix is the public path the
// directory is served under, e.g. "/pages".
func New(dir, urlPrefix string) *Renderer {
	return &Renderer{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}
}

// Dir returns the directory pages are written to.
func (r *Renderer) Dir() string {
	return r.dir
}

// PageURL returns the public path of the page for slugKey.
func (r *Renderer) PageURL(slugKey string) string {
	return path.Join(r.urlPrefix, slugKey+".html")
}

// Render escapes title and summary into the page template and writes
// {dir}/{slugKey}.html, replacing any previous page for the same key.
func (r *Renderer) Render(slugKey, title, summary string) (string, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, struct{ Title, Summary string }{title, summary}); err != nil {
		return "", fmt.Errorf("%w %q: execute template: %w", ErrRender, slugKey, err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w %q: create pages dir: %w", ErrRender, slugKey, err)
	}

	dst := filepath.Join(r.dir, slugKey+".html")
	if err := writeFileAtomic(dst, buf.Bytes()); err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrRender, slugKey, err)
	}

	return r.PageURL(slugKey), nil
}

// writeFileAtomic writes data to a temp file next to dst and renames it over
// dst, so a reader never sees a partially written page.
func writeFileAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".page-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write page: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close page: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod page: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename page: %w", err)
	}
	return nil
}
