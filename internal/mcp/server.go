// Package mcp implements the JSON-RPC tool facade over stdio: it wires the
// seven named tools onto the ingest/search/bundle/store/gitmeta components
// via github.com/modelcontextprotocol/go-sdk/mcp. Grounded on the
// teacher's internal/mcp/server.go (mcp.NewServer construction,
// registerTools/mcp.AddTool registration, Serve/mcp.Run(stdio)) and
// internal/mcp/tools.go (input/output struct shape), with field names
// adapted to camelCase per spec.md §6's wire contract.
package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindex-mcp/codeindex/internal/bundle"
	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
	"github.com/codeindex-mcp/codeindex/internal/search"
	"github.com/codeindex-mcp/codeindex/pkg/version"
)

// Server is the stdio JSON-RPC facade: it holds the shared ingest
// coordinator and embedding pool that every tool call ultimately reads
// from or writes through.
type Server struct {
	mcp         *mcp.Server
	coordinator *ingest.Coordinator
	pool        *embed.Pool
	logger      *slog.Logger
}

// NewServer builds a Server with every tool registered. pool is shared
// with any watcher already running against the same workspace, so a
// manual ingest_codebase call and a debounced watch-triggered ingest
// never race on separate embedder instances.
func NewServer(pool *embed.Pool) *Server {
	s := &Server{
		coordinator: ingest.New(pool),
		pool:        pool,
		logger:      slog.Default(),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "codeindex",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s
}

// Serve runs the server over stdio until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
	}
	return err
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ingest_codebase",
		Description: "Scan the workspace (or a targeted set of paths), chunk and embed changed files, and update the persistent index. Run this before searching a fresh workspace.",
	}, s.ingestCodebaseHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether the index exists, its size and row counts, recent ingestion history, and whether the indexed commit is stale relative to the workspace's current HEAD.",
	}, s.indexStatusHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Rank indexed chunks by embedding similarity to a natural-language or code query. Returns scored matches with surrounding context lines.",
	}, s.semanticSearchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "context_bundle",
		Description: "Assemble everything needed to understand one file: its definitions with derived visibility and docstrings, related graph neighbors, and token-budgeted source snippets.",
	}, s.contextBundleHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "code_lookup",
		Description: "Dispatch to semantic_search or context_bundle depending on mode, for clients that prefer a single entry point.",
	}, s.codeLookupHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "repository_timeline",
		Description: "List recently captured commit timeline entries for the workspace's git repository.",
	}, s.repositoryTimelineHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "repository_timeline_entry",
		Description: "Look up one timeline entry by commit SHA.",
	}, s.repositoryTimelineEntryHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", 7))
}

func (s *Server) ingestCodebaseHandler(ctx context.Context, _ *mcp.CallToolRequest, input IngestCodebaseInput) (
	*mcp.CallToolResult, IngestCodebaseOutput, error,
) {
	opts := ingest.Options{
		Root: input.Root, Include: input.Include, Exclude: input.Exclude,
		DatabaseName: input.DatabaseName, MaxFileSizeBytes: input.MaxFileSizeBytes,
		StoreFileContent: input.StoreFileContent, Paths: input.Paths,
		AutoEvict: input.AutoEvict, MaxDatabaseSizeBytes: input.MaxDatabaseSizeBytes,
		EmbeddingEnabled: input.Embedding.Enabled, EmbeddingModel: input.Embedding.Model,
		BatchSize: input.Embedding.BatchSize,
	}
	summary, err := s.coordinator.Ingest(ctx, opts)
	if err != nil {
		return nil, IngestCodebaseOutput{}, MapError(err)
	}
	return nil, toIngestCodebaseOutput(summary), nil
}

func (s *Server) indexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, input IndexStatusInput) (
	*mcp.CallToolResult, IndexStatusOutput, error,
) {
	out, err := indexStatus(ctx, input)
	if err != nil {
		return nil, IndexStatusOutput{}, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) semanticSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SemanticSearchInput) (
	*mcp.CallToolResult, SemanticSearchOutput, error,
) {
	out, err := runSemanticSearch(ctx, s.pool, input)
	if err != nil {
		return nil, SemanticSearchOutput{}, MapError(err)
	}
	return nil, out, nil
}

func runSemanticSearch(ctx context.Context, pool *embed.Pool, input SemanticSearchInput) (SemanticSearchOutput, error) {
	resp, err := search.Search(ctx, pool, search.Options{
		Root: input.Root, DatabaseName: input.DatabaseName, Query: input.Query,
		Limit: input.Limit, Model: input.Model,
	})
	if err != nil {
		return SemanticSearchOutput{}, err
	}
	return toSemanticSearchOutput(resp), nil
}

func (s *Server) contextBundleHandler(ctx context.Context, _ *mcp.CallToolRequest, input ContextBundleInput) (
	*mcp.CallToolResult, ContextBundleOutput, error,
) {
	out, err := runContextBundle(ctx, input)
	if err != nil {
		return nil, ContextBundleOutput{}, MapError(err)
	}
	return nil, out, nil
}

func runContextBundle(ctx context.Context, input ContextBundleInput) (ContextBundleOutput, error) {
	b, err := bundle.Assemble(ctx, bundle.Options{
		Root: input.Root, DatabaseName: input.DatabaseName, Path: input.File,
		Symbol: input.Symbol, SymbolKind: input.SymbolKind,
		MaxSnippets: input.MaxSnippets, MaxNeighbors: input.MaxNeighbors, TokenBudget: input.BudgetTokens,
	})
	if err != nil {
		return ContextBundleOutput{}, err
	}
	return toContextBundleOutput(b), nil
}

func (s *Server) codeLookupHandler(ctx context.Context, _ *mcp.CallToolRequest, input CodeLookupInput) (
	*mcp.CallToolResult, CodeLookupOutput, error,
) {
	switch input.Mode {
	case "search":
		out, err := runSemanticSearch(ctx, s.pool, input.Search)
		if err != nil {
			return nil, CodeLookupOutput{}, MapError(err)
		}
		return nil, CodeLookupOutput{Search: &out}, nil
	case "bundle":
		out, err := runContextBundle(ctx, input.Bundle)
		if err != nil {
			return nil, CodeLookupOutput{}, MapError(err)
		}
		return nil, CodeLookupOutput{Bundle: &out}, nil
	default:
		return nil, CodeLookupOutput{}, invalidParams("mode must be \"search\" or \"bundle\"")
	}
}

func (s *Server) repositoryTimelineHandler(ctx context.Context, _ *mcp.CallToolRequest, input RepositoryTimelineInput) (
	*mcp.CallToolResult, RepositoryTimelineOutput, error,
) {
	out, err := repositoryTimeline(ctx, input)
	if err != nil {
		return nil, RepositoryTimelineOutput{}, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) repositoryTimelineEntryHandler(ctx context.Context, _ *mcp.CallToolRequest, input RepositoryTimelineEntryInput) (
	*mcp.CallToolResult, RepositoryTimelineEntryOutput, error,
) {
	out, err := repositoryTimelineEntry(ctx, input)
	if err != nil {
		return nil, RepositoryTimelineEntryOutput{}, MapError(err)
	}
	return nil, out, nil
}
