package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/nlpfinder/internal/mcp"
	"github.com/Aman-CERP/nlpfinder/internal/output"
	"github.com/Aman-CERP/nlpfinder/internal/server"
	"github.com/Aman-CERP/nlpfinder/internal/watcher"
)

type serveOptions struct {
	host  string
	port  int
	watch bool
	mcp   bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API used by the web UI and other clients.

A previously persisted index is loaded at startup, so searches work
immediately after a restart. With --watch, changes under the indexed
directory trigger a debounced full rebuild. With --mcp, the same engine
is also exposed to AI clients over MCP on stdio.`,
		Example: `  nlpfinder serve
  nlpfinder serve --port 9000 --watch
  nlpfinder serve --mcp`,
		Annotations: map[string]string{annotationLogMode: logModeStderr},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host (default from config, 127.0.0.1)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port (default from config, 8000)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Rebuild the index when files under the indexed directory change")
	cmd.Flags().BoolVar(&opts.mcp, "mcp", false, "Also serve MCP tools on stdio")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = opts.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	srv, err := server.New(server.Dependencies{
		Config:       cfg,
		Orchestrator: rt.orchestrator,
		Store:        rt.store,
		Search:       rt.engine,
		Embedder:     rt.query,
		Previewer:    rt.previewer(),
		Opener:       newOpener(),
	})
	if err != nil {
		return err
	}

	var w *watcher.Watcher
	watchDir := rt.store.Stats().IndexedDirectory
	if opts.watch || cfg.Watch.Enabled {
		if watchDir == "" {
			slog.Warn("watch_skipped", slog.String("reason", "no indexed directory"))
		} else {
			w, err = watcher.New(rt.orchestrator, watcher.Options{
				Debounce:    cfg.WatchDebounce(),
				Extensions:  cfg.Indexing.SupportedExtensions,
				ExcludeDirs: cfg.Indexing.ExcludeDirs,
			})
			if err != nil {
				return err
			}
		}
	}

	var mcpServer *mcp.Server
	if opts.mcp {
		mcpServer, err = mcp.NewServer(mcp.Dependencies{
			Search:       rt.engine,
			Orchestrator: rt.orchestrator,
			Store:        rt.store,
			Embedder:     rt.query,
		})
		if err != nil {
			return err
		}
	}

	// stdout may carry MCP frames
	out := output.New(cmd.ErrOrStderr())
	out.Statusf(">", "Listening on http://%s", srv.Addr())
	if w != nil {
		out.Statusf(">", "Watching %s", watchDir)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Listen(gctx) })
	if w != nil {
		g.Go(func() error { return w.Run(gctx, watchDir) })
	}
	if mcpServer != nil {
		g.Go(func() error { return mcpServer.Serve(gctx) })
	}
	return g.Wait()
}
