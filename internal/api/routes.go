// Package api exposes the catalog and the ingestion pipeline over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the parts of the router that are not JSON handlers.
type RouterConfig struct {
	// PagesPrefix and PagesDir serve the rendered pages.
	PagesPrefix string
	PagesDir    string
	// StaticDir is served for every path no other route matches. Empty
	// disables it.
	StaticDir string
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handlers, cfg RouterConfig, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(logger))

	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.MCP != nil {
		router.Any("/mcp", gin.WrapH(cfg.MCP))
	}
	if cfg.PagesDir != "" {
		router.Static(cfg.PagesPrefix, cfg.PagesDir)
	}

	RegisterRoutes(router.Group("/api"), h)

	if cfg.StaticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	}
	return router
}

// RegisterRoutes registers the JSON endpoints on rg, including the legacy
// Spanish aliases.
//
//	POST /pages    (alias /pagina/crear) - ingest a title
//	GET  /links    (alias /enlaces)      - list catalogued links
//	GET  /article  (alias /articulo)     - latest ingested article
//	GET  /index                          - slug key to page index
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/pages", h.CreatePage)
	rg.POST("/pagina/crear", h.CreatePage)

	rg.GET("/links", h.ListLinks)
	rg.GET("/enlaces", h.ListLinks)

	rg.GET("/article", h.LatestArticle)
	rg.GET("/articulo", h.LatestArticle)

	rg.GET("/index", h.ListIndex)
}
