package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/nlpfinder/internal/logging"
	"github.com/Aman-CERP/nlpfinder/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve search and indexing tools to AI clients over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the
search, index_directory and index_status tools.

Stdout carries JSON-RPC frames only; logs go to ~/.nlpfinder/logs/.`,
		Example: `  # Claude Desktop / other MCP clients
  {"command": "nlpfinder", "args": ["mcp"]}`,
		Annotations: map[string]string{annotationLogMode: logModeSelf},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cleanup, err := logging.SetupMCPMode(logLevel(cfg))
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			srv, err := mcp.NewServer(mcp.Dependencies{
				Search:       rt.engine,
				Orchestrator: rt.orchestrator,
				Store:        rt.store,
				Embedder:     rt.query,
			})
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
}
