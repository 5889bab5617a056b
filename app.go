package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/config"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/ingest"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/render"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/server"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/wikipedia"
)

// app wires the components every command shares.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  storage.Catalog
	renderer *render.Renderer
	pipeline *ingest.Pipeline
	mcpSrv   *mcp.Server
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	catalog, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	fetcher := wikipedia.NewClient(cfg.Wikipedia.BaseURL, cfg.Wikipedia.UserAgent, cfg.Wikipedia.TimeoutDuration())
	renderer := render.New(cfg.Pages.Dir, cfg.Pages.URLPrefix)
	pipeline := ingest.New(fetcher, renderer, catalog, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalog,
		renderer: renderer,
		pipeline: pipeline,
		mcpSrv:   server.New(pipeline, catalog),
	}, nil
}

func (a *app) Close() error {
	return a.catalog.Close()
}

// newLogger builds the process logger. override, when set, wins over the
// configured level.
func newLogger(cfg config.LogConfig, override string) (*slog.Logger, error) {
	name := cfg.Level
	if override != "" {
		name = override
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", name, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}
