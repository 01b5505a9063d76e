package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/nlpfinder/internal/output"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the index",
		Long:  `Delete the persisted index. Searches fail until the next index run.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if err := rt.orchestrator.Clear(cmd.Context()); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Success("Index cleared")
			return nil
		},
	}
}
