package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wagnerlima/memory-cloud/wikipages/internal/api"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/config"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/ingest"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/server"
	"github.com/wagnerlima/memory-cloud/wikipages/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "wikipages",
		Short:        "Fetch Wikipedia summaries, render static pages and serve the catalog",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newLinksCmd(opts),
		newLatestCmd(opts),
		newIndexCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "wikipages version %s\n", server.Version)
			},
		},
	)
	return cmd
}

// openApp loads the configuration and wires the shared components.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := newLogger(cfg.Log, opts.logLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return newApp(ctx, cfg, logger)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and MCP endpoint, or MCP over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			switch transport {
			case "stdio":
				a.logger.Info("wikipages MCP server starting (stdio)")
				return a.mcpSrv.Run(ctx, &mcp.StdioTransport{})
			case "http":
				return serveHTTP(ctx, a)
			default:
				return fmt.Errorf("unknown transport %q (use http or stdio)", transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "http", "Transport mode: http or stdio")
	return cmd
}

func serveHTTP(ctx context.Context, a *app) error {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return a.mcpSrv
	}, nil)

	handlers := api.NewHandlers(a.pipeline, a.catalog, a.logger)
	router := api.NewRouter(handlers, api.RouterConfig{
		PagesPrefix: a.cfg.Pages.URLPrefix,
		PagesDir:    a.renderer.Dir(),
		StaticDir:   a.cfg.Server.StaticDir,
		MCP:         mcpHandler,
	}, a.logger)

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("wikipages listening", "addr", srv.Addr, "storage", a.cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <title>...",
		Short: "Ingest one or more Wikipedia articles by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			var failed int
			for _, title := range args {
				res, err := a.pipeline.Ingest(cmd.Context(), title)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", title, ingest.Message(err))
					continue
				}
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d ingestions failed", failed, len(args))
			}
			return nil
		},
	}
}

func newLinksCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List catalogued Wikipedia links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(c storage.Catalog) (any, error) {
				return c.ListLinks(cmd.Context())
			})
		},
	}
}

func newLatestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recently ingested article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(c storage.Catalog) (any, error) {
				article, err := c.GetLatestArticle(cmd.Context())
				if errors.Is(err, storage.ErrNotFound) {
					return nil, errors.New("no article has been ingested yet")
				}
				return article, err
			})
		},
	}
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "List the slug key to rendered page index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(c storage.Catalog) (any, error) {
				return c.ListIndex(cmd.Context())
			})
		},
	}
}

// withCatalog opens the app, runs read and prints its result as JSON.
func withCatalog(cmd *cobra.Command, opts *rootOptions, read func(storage.Catalog) (any, error)) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := read(a.catalog)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
