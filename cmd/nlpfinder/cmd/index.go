package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/index"
	"github.com/Aman-CERP/nlpfinder/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "index <directory>",
		Short: "Build the search index for a directory",
		Long: `Scan a directory recursively, extract text from every supported file,
embed it in overlapping chunks and publish a new index.

The previous index keeps serving searches until the new one is complete.
Progress is shown interactively on a terminal and as plain lines
otherwise (or with --no-tui).`,
		Example: `  nlpfinder index ~/Documents
  nlpfinder index ./notes --no-tui`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, args[0], noTUI)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print plain progress lines instead of the interactive display")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, dir string, noTUI bool) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if err := rt.requireEmbedder(ctx); err != nil {
		return err
	}

	job, err := rt.orchestrator.Start(ctx, dir)
	if err != nil {
		return err
	}
	slog.Info("index_command_started",
		slog.String("directory", job.Directory),
		slog.String("job_id", job.ID.String()))

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(noTUI),
		ui.WithDirectory(job.Directory)))
	if err := renderer.Start(ctx); err != nil {
		return err
	}

	final, err := ui.Follow(ctx, renderer, rt.orchestrator, ui.DefaultPollInterval, rt.embedder.ModelName())
	_ = renderer.Stop()
	if err != nil {
		return interrupted(err)
	}

	if final.Status == index.StatusFailed {
		return nferrors.New(nferrors.ErrCodeIndexFailed, final.Message, nil).
			WithDetail("directory", final.Directory)
	}
	return nil
}
