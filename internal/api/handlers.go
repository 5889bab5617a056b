package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/ingest"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/models"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
)

// Ingester runs one ingestion.
type Ingester interface {
	Ingest(ctx context.Context, title string) (*models.IngestionResult, error)
}

// Handlers serves the JSON endpoints.
type Handlers struct {
	pipeline Ingester
	catalog  storage.Catalog
	logger   *slog.Logger
}

// NewHandlers creates the JSON handlers. A nil logger discards output.
func NewHandlers(pipeline Ingester, catalog storage.Catalog, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{pipeline: pipeline, catalog: catalog, logger: logger.With("component", "api")}
}

// CreatePageRequest is the body of POST /api/pages. PageTitle is accepted for
// older clients.
type CreatePageRequest struct {
	Title     string `json:"title"`
	PageTitle string `json:"pageTitle"`
}

// CreatePageResponse is returned after a successful ingestion.
type CreatePageResponse struct {
	Message string `json:"message"`
	models.IngestionResult
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// CreatePage handles POST /api/pages.
func (h *Handlers) CreatePage(c *gin.Context) {
	var req CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, CodeInvalidInput, "Request body must be a JSON object with a \"title\" field.")
		return
	}
	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = req.PageTitle
	}

	res, err := h.pipeline.Ingest(c.Request.Context(), title)
	if err != nil {
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("create page failed", "request_id", c.GetString(requestIDKey), "title", title, "error", err)
		}
		abortWithError(c, status, code, ingest.Message(err))
		return
	}

	c.JSON(http.StatusOK, CreatePageResponse{
		Message:         "Page created and article saved to the catalog.",
		IngestionResult: *res,
	})
}

// ListLinks handles GET /api/links.
func (h *Handlers) ListLinks(c *gin.Context) {
	links, err := h.catalog.ListLinks(c.Request.Context())
	if err != nil {
		h.internalError(c, "list links", err, "The link catalog could not be loaded.")
		return
	}
	c.JSON(http.StatusOK, links)
}

// ListIndex handles GET /api/index.
func (h *Handlers) ListIndex(c *gin.Context) {
	entries, err := h.catalog.ListIndex(c.Request.Context())
	if err != nil {
		h.internalError(c, "list index", err, "The page index could not be loaded.")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// LatestArticle handles GET /api/article.
func (h *Handlers) LatestArticle(c *gin.Context) {
	article, err := h.catalog.GetLatestArticle(c.Request.Context())
	if err != nil {
		status, code := classify(err)
		if status == http.StatusNotFound {
			abortWithError(c, status, code, "No article has been ingested yet.")
			return
		}
		h.internalError(c, "latest article", err, "The latest article could not be read.")
		return
	}
	c.JSON(http.StatusOK, article)
}

// Health handles GET /healthz.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handlers) internalError(c *gin.Context, op string, err error, message string) {
	status, code := classify(err)
	h.logger.Error(op+" failed", "request_id", c.GetString(requestIDKey), "error", err)
	abortWithError(c, status, code, message)
}
