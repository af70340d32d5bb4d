package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/search"
	"github.com/codeindex-mcp/codeindex/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var limit int
	var model string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a semantic search against the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := search.Search(cmd.Context(), embed.NewPool(), search.Options{
				Root: flagRoot, DatabaseName: flagDatabaseName, Query: args[0], Limit: limit, Model: model,
			})
			if err != nil {
				return err
			}
			styles := ui.StylesFor(cmd.OutOrStdout())
			if len(resp.Matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), styles.Dim.Render("no matches"))
				return nil
			}
			for i, m := range resp.Matches {
				fmt.Fprintln(cmd.OutOrStdout(), styles.Header.Render(fmt.Sprintf("%d. %s:%d-%d  score=%.3f", i+1, m.Path, m.LineStart, m.LineEnd, m.NormalizedScore)))
				fmt.Fprintln(cmd.OutOrStdout(), indent(m.Content))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 8, "maximum number of matches")
	cmd.Flags().StringVar(&model, "model", "", "embedding model to search under (required when multiple are stored)")

	return cmd
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
