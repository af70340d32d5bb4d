package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
	"github.com/codeindex-mcp/codeindex/internal/ui"
)

func newIngestCmd() *cobra.Command {
	var storeFileContent bool
	var embeddingEnabled bool
	var embeddingModel string
	var paths []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass over the workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			coordinator := ingest.New(embed.NewPool())
			summary, err := coordinator.Ingest(cmd.Context(), ingest.Options{
				Root: flagRoot, DatabaseName: flagDatabaseName, Paths: paths,
				StoreFileContent: storeFileContent,
				EmbeddingEnabled: embeddingEnabled, EmbeddingModel: embeddingModel,
			})
			if err != nil {
				return err
			}
			styles := ui.StylesFor(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), styles.Header.Render("Ingestion complete"))
			fmt.Fprintf(cmd.OutOrStdout(), "  database:  %s\n", summary.DatabasePath)
			fmt.Fprintf(cmd.OutOrStdout(), "  files:     %d ingested, %d skipped, %d deleted\n",
				summary.IngestedFileCount, len(summary.SkippedFiles), len(summary.DeletedPaths))
			fmt.Fprintf(cmd.OutOrStdout(), "  chunks:    %d embedded (%s)\n", summary.EmbeddedChunkCount, summary.EmbeddingModel)
			fmt.Fprintf(cmd.OutOrStdout(), "  graph:     %d nodes\n", summary.GraphNodeCount)
			fmt.Fprintf(cmd.OutOrStdout(), "  duration:  %dms\n", summary.DurationMS)
			for _, sf := range summary.SkippedFiles {
				fmt.Fprintln(cmd.OutOrStdout(), styles.Warning.Render(fmt.Sprintf("  skipped: %s (%s) %s", sf.Path, sf.Reason, sf.Message)))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&paths, "path", nil, "restrict ingest to these workspace-relative paths (repeatable)")
	cmd.Flags().BoolVar(&storeFileContent, "store-file-content", true, "persist raw file text alongside the index")
	cmd.Flags().BoolVar(&embeddingEnabled, "embedding", true, "compute embeddings for indexed chunks")
	cmd.Flags().StringVar(&embeddingModel, "embedding-model", "static-768", "embedding model name")

	return cmd
}
