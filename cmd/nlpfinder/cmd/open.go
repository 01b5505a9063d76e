package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/nlpfinder/internal/output"
)

func newOpenCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "open <file>",
		Short: "Open a file with the system default application",
		Example: `  nlpfinder open ~/Documents/report.pdf
  nlpfinder open ~/Documents/report.pdf --reveal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve path: %w", err)
			}
			if err := newOpener().Open(cmd.Context(), path, reveal); err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if reveal {
				out.Successf("Revealed %s", path)
			} else {
				out.Successf("Opened %s", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show the file in its folder instead of opening it")

	return cmd
}
