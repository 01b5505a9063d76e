package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/nlpfinder/internal/extract"
	"github.com/Aman-CERP/nlpfinder/internal/fileops"
	"github.com/Aman-CERP/nlpfinder/internal/output"
)

func newPreviewCmd() *cobra.Command {
	var (
		maxChars   int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Print the extracted text of a file",
		Long: `Print the leading text of a file as the indexer sees it. PDFs are
shown as extracted text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve path: %w", err)
			}

			previewer := fileops.NewPreviewer(extract.NewRegistry(cfg.Indexing.SupportedExtensions), maxChars)
			p, err := previewer.Preview(path)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(p)
			}
			out.Preview(p)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxChars, "max-chars", fileops.DefaultPreviewChars, "Maximum characters to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
