package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/nlpfinder/internal/output"
	"github.com/Aman-CERP/nlpfinder/internal/store"
)

// filesResult is the --json shape of `nlpfinder files`.
type filesResult struct {
	Files      []store.Document `json:"files"`
	TotalFiles int              `json:"total_files"`
}

func newFilesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List indexed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			docs := []store.Document{}
			if idx := rt.store.Current(); idx != nil {
				docs = idx.Documents()
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(filesResult{Files: docs, TotalFiles: len(docs)})
			}
			out.Files(docs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
