package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
	"github.com/codeindex-mcp/codeindex/internal/mcp"
	"github.com/codeindex-mcp/codeindex/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var watch bool
	var debounce time.Duration
	var noInitialIngest bool
	var storeFileContent bool
	var embeddingEnabled bool
	var embeddingModel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON-RPC tool facade over stdio",
		Long: `Starts the codeindex MCP server on stdin/stdout. With --watch, also
starts a filesystem watcher that keeps the index up to date as files
change, debounced by --debounce.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), serveConfig{
				watch: watch, debounce: debounce, initialIngest: !noInitialIngest,
				storeFileContent: storeFileContent, embeddingEnabled: embeddingEnabled, embeddingModel: embeddingModel,
			})
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "watch the workspace and re-ingest on changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "filesystem event debounce window")
	cmd.Flags().BoolVar(&noInitialIngest, "no-initial-ingest", false, "skip the full ingest performed at startup")
	cmd.Flags().BoolVar(&storeFileContent, "store-file-content", true, "persist raw file text alongside the index")
	cmd.Flags().BoolVar(&embeddingEnabled, "embedding", true, "compute embeddings for indexed chunks")
	cmd.Flags().StringVar(&embeddingModel, "embedding-model", "static-768", "embedding model name")

	return cmd
}

type serveConfig struct {
	watch            bool
	debounce         time.Duration
	initialIngest    bool
	storeFileContent bool
	embeddingEnabled bool
	embeddingModel   string
}

func runServe(ctx context.Context, cfg serveConfig) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := embed.NewPool()
	server := mcp.NewServer(pool)
	coordinator := ingest.New(pool)

	if cfg.watch {
		w, err := watcher.New(coordinator, watcher.Options{
			Root:              flagRoot,
			DatabaseName:      flagDatabaseName,
			DebounceWindow:    cfg.debounce,
			InitialFullIngest: cfg.initialIngest,
			IngestOptions: watcher.IngestTuning{
				StoreFileContent: cfg.storeFileContent,
				EmbeddingEnabled: cfg.embeddingEnabled,
				EmbeddingModel:   cfg.embeddingModel,
			},
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	} else if cfg.initialIngest {
		if _, err := coordinator.Ingest(ctx, ingest.Options{
			Root: flagRoot, DatabaseName: flagDatabaseName,
			StoreFileContent: cfg.storeFileContent,
			EmbeddingEnabled: cfg.embeddingEnabled, EmbeddingModel: cfg.embeddingModel,
		}); err != nil {
			return err
		}
	}

	return server.Serve(ctx)
}
