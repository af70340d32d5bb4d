// Package cli implements the codeindex command-line surface: serve,
// ingest, status, search, and version, grounded on the teacher's
// cmd/amanmcp/cmd/root.go (cobra root construction, persistent flags,
// logging setup hook) and status.go/search.go (subcommand shape).
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/logging"
	"github.com/codeindex-mcp/codeindex/pkg/version"
)

var (
	flagRoot         string
	flagDatabaseName string

	loggingCleanup func()
)

// Execute runs the codeindex CLI, returning the error (if any) from the
// selected subcommand.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the root command with every subcommand registered.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "codeindex",
		Short:   "Local workspace code indexing and retrieval server",
		Version: version.Version,
		Long: `codeindex scans a workspace, builds a persistent index of its files,
chunks, and graph structure, and serves semantic search and context
retrieval tools over JSON-RPC on stdio for AI coding assistants.`,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("codeindex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flagRoot, "root", "", "workspace root (default: current directory)")
	cmd.PersistentFlags().StringVar(&flagDatabaseName, "database-name", "", "index database filename (default: .mcp-index.sqlite)")

	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		cleanup, err := logging.SetupDefault()
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		loggingCleanup = cleanup
		return nil
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if loggingCleanup != nil {
			loggingCleanup()
		}
		return nil
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
