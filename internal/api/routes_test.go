package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/ingest"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/wikipedia"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIngester struct {
	got []string
	res *models.IngestionResult
	err error
}

func (s *stubIngester) Ingest(_ context.Context, title string) (*models.IngestionResult, error) {
	s.got = append(s.got, title)
	return s.res, s.err
}

// stubCatalog serves canned reads. Writes are not used by the handlers.
type stubCatalog struct {
	links     []models.LinkEntry
	index     []models.IndexEntry
	latest    *models.ArticleRecord
	latestErr error
	listErr   error
}

func (s *stubCatalog) UpsertArticle(context.Context, string, string, string) error { return nil }
func (s *stubCatalog) InsertLinkIfAbsent(context.Context, string, string, string) (bool, error) {
	return false, nil
}
func (s *stubCatalog) UpsertIndex(context.Context, string, string, string) error { return nil }
func (s *stubCatalog) ListLinks(context.Context) ([]models.LinkEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if s.links == nil {
		return []models.LinkEntry{}, nil
	}
	return s.links, nil
}
func (s *stubCatalog) ListIndex(context.Context) ([]models.IndexEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if s.index == nil {
		return []models.IndexEntry{}, nil
	}
	return s.index, nil
}
func (s *stubCatalog) GetLatestArticle(context.Context) (*models.ArticleRecord, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	if s.latest == nil {
		return nil, storage.ErrNotFound
	}
	return s.latest, nil
}
func (s *stubCatalog) Close() error { return nil }

func setupTestRouter(ing Ingester, cat storage.Catalog, cfg RouterConfig) *gin.Engine {
	return NewRouter(NewHandlers(ing, cat, nil), cfg, nil)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreatePage(t *testing.T) {
	ing := &stubIngester{res: &models.IngestionResult{Title: "Gato", Summary: "Felino", PageURL: "/pages/Gato.html"}}
	router := setupTestRouter(ing, &stubCatalog{}, RouterConfig{})

	for _, tc := range []struct{ path, body string }{
		{"/api/pages", `{"title":"Gato"}`},
		{"/api/pagina/crear", `{"pageTitle":"Gato"}`},
	} {
		w := do(t, router, http.MethodPost, tc.path, tc.body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp CreatePageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Message)
		assert.Equal(t, "Gato", resp.Title)
		assert.Equal(t, "Felino", resp.Summary)
		assert.Equal(t, "/pages/Gato.html", resp.PageURL)
	}
	assert.Equal(t, []string{"Gato", "Gato"}, ing.got)
}

func TestCreatePageErrorMapping(t *testing.T) {
	fetchErr := func(kind error) error {
		return &ingest.Error{Stage: ingest.StageFetch, Kind: fetchKindFor(kind), Title: "Mercurio", Err: &wikipedia.FetchError{Kind: kind, Title: "Mercurio"}}
	}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", &ingest.Error{Stage: ingest.StageValidate, Kind: ingest.ErrInvalidInput}, http.StatusBadRequest, CodeInvalidInput},
		{"not found", fetchErr(wikipedia.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"disambiguation", fetchErr(wikipedia.ErrDisambiguation), http.StatusNotFound, CodeDisambiguation},
		{"upstream down", fetchErr(wikipedia.ErrUpstreamUnavailable), http.StatusInternalServerError, CodeIngestionFailed},
		{"persist", &ingest.Error{Stage: ingest.StageLink, Kind: ingest.ErrIngestionFailed, Title: "Gato", Err: errors.New("disk full")}, http.StatusInternalServerError, CodeIngestionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(&stubIngester{err: tt.err}, &stubCatalog{}, RouterConfig{})
			w := do(t, router, http.MethodPost, "/api/pages", `{"title":"Mercurio"}`)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, ingest.Message(tt.err), resp.Error)
		})
	}
}

func fetchKindFor(kind error) error {
	switch kind {
	case wikipedia.ErrNotFound:
		return ingest.ErrNotFound
	case wikipedia.ErrDisambiguation:
		return ingest.ErrDisambiguation
	}
	return ingest.ErrIngestionFailed
}

func TestCreatePageMalformedBody(t *testing.T) {
	ing := &stubIngester{}
	router := setupTestRouter(ing, &stubCatalog{}, RouterConfig{})

	for _, body := range []string{"", "not json", `["Gato"]`} {
		w := do(t, router, http.MethodPost, "/api/pages", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, CodeInvalidInput, decodeError(t, w).Code)
	}
	assert.Empty(t, ing.got)
}

func TestListLinks(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		router := setupTestRouter(&stubIngester{}, &stubCatalog{}, RouterConfig{})
		for _, path := range []string{"/api/links", "/api/enlaces"} {
			w := do(t, router, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `[]`, w.Body.String())
		}
	})

	t.Run("populated", func(t *testing.T) {
		cat := &stubCatalog{links: []models.LinkEntry{{Title: "Gato", URL: "https://es.wikipedia.org/wiki/Gato", Summary: "Felino"}}}
		router := setupTestRouter(&stubIngester{}, cat, RouterConfig{})
		w := do(t, router, http.MethodGet, "/api/links", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"title":"Gato","url":"https://es.wikipedia.org/wiki/Gato","summary":"Felino"}]`, w.Body.String())
	})

	t.Run("storage failure", func(t *testing.T) {
		cat := &stubCatalog{listErr: errors.New("database is locked")}
		router := setupTestRouter(&stubIngester{}, cat, RouterConfig{})
		w := do(t, router, http.MethodGet, "/api/links", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, CodeInternal, decodeError(t, w).Code)
	})
}

func TestListIndex(t *testing.T) {
	cat := &stubCatalog{index: []models.IndexEntry{{Key: "Gato", Title: "Gato", URL: "/pages/Gato.html"}}}
	router := setupTestRouter(&stubIngester{}, cat, RouterConfig{})

	w := do(t, router, http.MethodGet, "/api/index", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"key":"Gato","title":"Gato","url":"/pages/Gato.html"}]`, w.Body.String())
}

func TestLatestArticle(t *testing.T) {
	t.Run("none yet", func(t *testing.T) {
		router := setupTestRouter(&stubIngester{}, &stubCatalog{}, RouterConfig{})
		w := do(t, router, http.MethodGet, "/api/articulo", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, CodeNotFound, decodeError(t, w).Code)
	})

	t.Run("found", func(t *testing.T) {
		ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		cat := &stubCatalog{latest: &models.ArticleRecord{Title: "Gato", Summary: "Felino", PageURL: "/pages/Gato.html", UpdatedAt: ts}}
		router := setupTestRouter(&stubIngester{}, cat, RouterConfig{})
		w := do(t, router, http.MethodGet, "/api/article", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"title":"Gato","summary":"Felino","pageUrl":"/pages/Gato.html","updatedAt":"2025-03-01T12:00:00Z"}`, w.Body.String())
	})

	t.Run("corrupt", func(t *testing.T) {
		cat := &stubCatalog{latestErr: errors.Join(storage.ErrCorruptState, errors.New("bad timestamp"))}
		router := setupTestRouter(&stubIngester{}, cat, RouterConfig{})
		w := do(t, router, http.MethodGet, "/api/article", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, CodeCorruptState, decodeError(t, w).Code)
	})
}

func TestRequestID(t *testing.T) {
	router := setupTestRouter(&stubIngester{}, &stubCatalog{}, RouterConfig{})

	w := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Len(t, w.Header().Get(requestIDHeader), 36, "generated uuid")

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(&stubIngester{}, &stubCatalog{}, RouterConfig{})
	do(t, router, http.MethodGet, "/api/links", "")

	w := do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `wikipages_http_requests_total{method="GET",route="/api/links",status="200"}`)
}

func TestStaticAndPages(t *testing.T) {
	root := t.TempDir()
	static := filepath.Join(root, "public")
	pages := filepath.Join(root, "rendered")
	require.NoError(t, os.MkdirAll(static, 0o755))
	require.NoError(t, os.MkdirAll(pages, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>inicio</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pages, "Gato.html"), []byte("<h1>Gato</h1>"), 0o644))

	router := setupTestRouter(&stubIngester{}, &stubCatalog{}, RouterConfig{
		PagesPrefix: "/pages",
		PagesDir:    pages,
		StaticDir:   static,
	})

	w := do(t, router, http.MethodGet, "/pages/Gato.html", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<h1>Gato</h1>", w.Body.String())

	w = do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "inicio"))

	w = do(t, router, http.MethodGet, "/pages/Perro.html", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMCPMount(t *testing.T) {
	var hit bool
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusAccepted)
	})
	router := setupTestRouter(&stubIngester{}, &stubCatalog{}, RouterConfig{MCP: mcpHandler})

	w := do(t, router, http.MethodPost, "/mcp", `{}`)
	assert.True(t, hit)
	assert.Equal(t, http.StatusAccepted, w.Code)
}
