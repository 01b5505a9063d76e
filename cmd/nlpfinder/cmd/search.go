package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/output"
	"github.com/Aman-CERP/nlpfinder/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK        int
	groupByFile bool
	jsonOutput  bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index by meaning",
		Long: `Embed the query and rank indexed chunks by cosine similarity.

Scores are integers from 0 to 100. Results below the configured
similarity threshold are dropped.`,
		Example: `  nlpfinder search "quarterly revenue projections"
  nlpfinder search "retry with backoff" --top-k 5
  nlpfinder search "invoice" --group-by-file --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var groupByFile *bool
			if cmd.Flags().Changed("group-by-file") {
				groupByFile = &opts.groupByFile
			}
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts, groupByFile)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Maximum number of results (default from config, 20)")
	cmd.Flags().BoolVar(&opts.groupByFile, "group-by-file", false, "Keep only the best chunk of each file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions, groupByFile *bool) error {
	if opts.topK < 0 {
		return nferrors.ValidationError("--top-k must not be negative", nil)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	resp, err := rt.engine.Search(ctx, search.Request{
		Query:       query,
		TopK:        opts.topK,
		GroupByFile: groupByFile,
	})
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if opts.jsonOutput {
		return out.JSON(resp)
	}
	out.SearchResults(resp)
	return nil
}
