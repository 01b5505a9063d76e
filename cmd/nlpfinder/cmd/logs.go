package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/logging"
	"github.com/Aman-CERP/nlpfinder/internal/ui"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	file    string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show nlpfinder log records",
		Long: `Show the structured log written by every nlpfinder command.

By default the last 50 records of ~/.nlpfinder/logs/nlpfinder.log are
printed. Use -f to keep printing new records as they are written.`,
		Example: `  nlpfinder logs
  nlpfinder logs -n 200 --level warn
  nlpfinder logs -f --filter "index_|watch_"`,
		Annotations: map[string]string{annotationLogMode: logModeSelf},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level to show (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only show lines matching this regular expression")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.file, "file", "", "Log file to read (default ~/.nlpfinder/logs/nlpfinder.log)")

	return cmd
}

func runLogs(ctx context.Context, out, errOut io.Writer, opts logsOptions) error {
	if opts.lines < 0 {
		return nferrors.ValidationError(fmt.Sprintf("--lines must not be negative, got %d", opts.lines), nil)
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		var err error
		if pattern, err = regexp.Compile(opts.filter); err != nil {
			return nferrors.ValidationError("invalid --filter pattern", err)
		}
	}

	path := opts.file
	if path == "" {
		path = logging.DefaultLogPath()
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nferrors.New(nferrors.ErrCodeFileNotFound, "log file does not exist", err).
			WithDetail("path", path).
			WithSuggestion("Run any nlpfinder command first, or pass --file")
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: opts.noColor || !ui.IsTTY(out),
	}, out)

	_, _ = fmt.Fprintf(errOut, "Log file: %s\n---\n", path)

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}
	return followLogs(ctx, viewer, path)
}

func followLogs(ctx context.Context, viewer *logging.Viewer, path string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	entries := make(chan logging.Entry, 100)
	errCh := make(chan error, 1)
	go func() { errCh <- viewer.Follow(ctx, path, entries) }()

	for {
		select {
		case e := <-entries:
			viewer.Print([]logging.Entry{e})
		case err := <-errCh:
			return err
		}
	}
}
