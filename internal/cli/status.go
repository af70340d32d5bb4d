package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/mcp"
	"github.com/codeindex-mcp/codeindex/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var historyLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health and status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := mcp.IndexStatus(cmd.Context(), flagRoot, flagDatabaseName, historyLimit)
			if err != nil {
				return err
			}
			styles := ui.StylesFor(cmd.OutOrStdout())

			if !out.Exists {
				fmt.Fprintln(cmd.OutOrStdout(), styles.Warning.Render("no index found at "+out.DatabasePath))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), styles.Header.Render("Index status"))
			fmt.Fprintf(cmd.OutOrStdout(), "  database:   %s (%d bytes)\n", out.DatabasePath, out.SizeBytes)
			fmt.Fprintf(cmd.OutOrStdout(), "  files:      %d\n", out.FileCount)
			fmt.Fprintf(cmd.OutOrStdout(), "  chunks:     %d\n", out.ChunkCount)
			fmt.Fprintf(cmd.OutOrStdout(), "  graph:      %d nodes\n", out.GraphNodeCount)
			if out.LatestIngestion != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  latest run: %s (%d files, %d skipped, %d deleted)\n",
					out.LatestIngestion.ID, out.LatestIngestion.FileCount, out.LatestIngestion.SkippedCount, out.LatestIngestion.DeletedCount)
			}
			for _, ing := range out.RecentIngestions {
				fmt.Fprintf(cmd.OutOrStdout(), "  recent run: %s (%d files, %d skipped, %d deleted)\n",
					ing.ID, ing.FileCount, ing.SkippedCount, ing.DeletedCount)
			}
			if out.StoredCommitSHA != "" {
				staleness := styles.Success.Render("up to date")
				if out.Stale {
					staleness = styles.Warning.Render("stale")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  commit:     %s vs current %s (%s)\n", out.StoredCommitSHA, out.CurrentCommitSHA, staleness)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&historyLimit, "history-limit", 5, "number of recent ingestions to display")

	return cmd
}
