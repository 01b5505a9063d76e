package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/nlpfinder/internal/store"
	"github.com/Aman-CERP/nlpfinder/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and embedding service status",
		Long: `Show what is indexed, how much disk the index uses, and whether the
embedding service and model are available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	info := collectStatus(ctx, rt)
	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()))
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

func collectStatus(ctx context.Context, rt *runtime) ui.StatusInfo {
	stats := rt.store.Stats()
	info := ui.StatusInfo{
		Indexed:        stats.Indexed,
		Directory:      stats.IndexedDirectory,
		TotalFiles:     stats.TotalFiles,
		TotalVectors:   stats.TotalVectors,
		Dimension:      stats.Dimension,
		LastIndexed:    stats.BuiltAt,
		EmbedderURL:    embedderURL(rt.cfg),
		EmbedderModel:  rt.embedder.ModelName(),
		EmbedderStatus: embedderStatus(rt.embedder.Health(ctx)),
	}
	info.VectorSize = fileSize(filepath.Join(rt.store.DataDir(), store.VectorsFileName))
	info.MetadataSize = fileSize(filepath.Join(rt.store.DataDir(), store.MetadataFileName))
	info.TotalSize = info.VectorSize + info.MetadataSize
	return info
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
