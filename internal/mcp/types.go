// Package mcp adapts the core indexing/retrieval components to the
// external JSON-RPC boundary: it parses request parameters, invokes
// ingest/search/bundle/gitmeta, and packages results as the structured
// payloads named in spec.md §6. Grounded on the teacher's
// internal/mcp/server.go (mcp.NewServer, mcp.AddTool, StdioTransport) and
// internal/mcp/tools.go (camelCase input/output struct shape).
package mcp

import (
	"github.com/codeindex-mcp/codeindex/internal/bundle"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
	"github.com/codeindex-mcp/codeindex/internal/search"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// EmbeddingOptions is the input fragment shared by ingest_codebase's
// embedding knob.
type EmbeddingOptions struct {
	Enabled   bool   `json:"enabled,omitempty" jsonschema:"whether to compute embeddings for new chunks"`
	Model     string `json:"model,omitempty" jsonschema:"embedding model name, default static-768"`
	BatchSize int    `json:"batchSize,omitempty" jsonschema:"embedding batch size, default 32"`
}

// IngestCodebaseInput is the input schema for the ingest_codebase tool.
type IngestCodebaseInput struct {
	Root                 string           `json:"root,omitempty" jsonschema:"workspace root, default current directory"`
	Include              []string         `json:"include,omitempty" jsonschema:"glob patterns to include"`
	Exclude              []string         `json:"exclude,omitempty" jsonschema:"glob patterns to exclude"`
	DatabaseName         string           `json:"databaseName,omitempty" jsonschema:"index database filename, default .mcp-index.sqlite"`
	MaxFileSizeBytes     int64            `json:"maxFileSizeBytes,omitempty" jsonschema:"skip files larger than this many bytes"`
	StoreFileContent     bool             `json:"storeFileContent,omitempty" jsonschema:"persist raw file text alongside the index"`
	Paths                []string         `json:"paths,omitempty" jsonschema:"restrict ingest to these workspace-relative paths"`
	AutoEvict            bool             `json:"autoEvict,omitempty" jsonschema:"evict low-value rows when the database exceeds maxDatabaseSizeBytes"`
	MaxDatabaseSizeBytes int64            `json:"maxDatabaseSizeBytes,omitempty" jsonschema:"eviction size threshold in bytes"`
	Embedding            EmbeddingOptions `json:"embedding,omitempty" jsonschema:"embedding configuration for this run"`
}

// IngestCodebaseOutput is the output schema for the ingest_codebase tool.
type IngestCodebaseOutput struct {
	IngestionID        string                `json:"ingestionId"`
	DatabasePath        string                `json:"databasePath"`
	IngestedFileCount   int                   `json:"ingestedFileCount"`
	SkippedFiles        []SkippedFileOutput   `json:"skippedFiles,omitempty"`
	DeletedPaths        []string              `json:"deletedPaths,omitempty"`
	EmbeddedChunkCount  int                   `json:"embeddedChunkCount"`
	GraphNodeCount      int                   `json:"graphNodeCount"`
	EmbeddingModel      string                `json:"embeddingModel"`
	DurationMS          int64                 `json:"durationMs"`
	Eviction            *EvictionReportOutput `json:"eviction,omitempty"`
}

// SkippedFileOutput mirrors scanner.SkippedFile with camelCase JSON.
type SkippedFileOutput struct {
	Path    string `json:"path"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// EvictionReportOutput mirrors store.EvictionReport with camelCase JSON.
type EvictionReportOutput struct {
	SizeBefore    int64 `json:"sizeBefore"`
	SizeAfter     int64 `json:"sizeAfter"`
	EvictedChunks int   `json:"evictedChunks"`
	EvictedNodes  int   `json:"evictedNodes"`
}

// IndexStatusInput is the input schema for the index_status tool.
type IndexStatusInput struct {
	Root         string `json:"root,omitempty" jsonschema:"workspace root, default current directory"`
	DatabaseName string `json:"databaseName,omitempty" jsonschema:"index database filename, default .mcp-index.sqlite"`
	HistoryLimit int    `json:"historyLimit,omitempty" jsonschema:"number of recent ingestions to return, default 5"`
}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	Exists            bool               `json:"exists"`
	DatabasePath      string             `json:"databasePath"`
	SizeBytes         int64              `json:"sizeBytes"`
	FileCount         int                `json:"fileCount"`
	ChunkCount        int                `json:"chunkCount"`
	GraphNodeCount    int                `json:"graphNodeCount"`
	LatestIngestion   *IngestionOutput   `json:"latestIngestion,omitempty"`
	RecentIngestions  []IngestionOutput  `json:"recentIngestions,omitempty"`
	StoredCommitSHA   string             `json:"storedCommitSha,omitempty"`
	CurrentCommitSHA  string             `json:"currentCommitSha,omitempty"`
	Stale             bool               `json:"stale"`
}

// IngestionOutput mirrors store.Ingestion with camelCase JSON.
type IngestionOutput struct {
	ID           string `json:"id"`
	Root         string `json:"root"`
	StartedAtMS  int64  `json:"startedAtMs"`
	FinishedAtMS int64  `json:"finishedAtMs"`
	FileCount    int    `json:"fileCount"`
	SkippedCount int    `json:"skippedCount"`
	DeletedCount int    `json:"deletedCount"`
}

// SemanticSearchInput is the input schema for the semantic_search tool.
type SemanticSearchInput struct {
	Root         string `json:"root,omitempty" jsonschema:"workspace root, default current directory"`
	Query        string `json:"query" jsonschema:"the natural-language or code search query"`
	DatabaseName string `json:"databaseName,omitempty" jsonschema:"index database filename, default .mcp-index.sqlite"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum number of matches, default 8"`
	Model        string `json:"model,omitempty" jsonschema:"embedding model to search under, required when multiple are stored"`
}

// SemanticSearchOutput is the output schema for the semantic_search tool.
type SemanticSearchOutput struct {
	DatabasePath    string        `json:"databasePath"`
	Model           string        `json:"model,omitempty"`
	TotalChunks     int           `json:"totalChunks"`
	EvaluatedChunks int           `json:"evaluatedChunks"`
	Matches         []MatchOutput `json:"matches,omitempty"`
}

// MatchOutput mirrors search.Match with camelCase JSON.
type MatchOutput struct {
	Path            string  `json:"path"`
	ChunkID         string  `json:"chunkId"`
	Score           float64 `json:"score"`
	NormalizedScore float64 `json:"normalizedScore"`
	Language        string  `json:"language"`
	Classification  string  `json:"classification"`
	ByteStart       int     `json:"byteStart"`
	ByteEnd         int     `json:"byteEnd"`
	LineStart       int     `json:"lineStart"`
	LineEnd         int     `json:"lineEnd"`
	Content         string  `json:"content"`
	ContextBefore   string  `json:"contextBefore,omitempty"`
	ContextAfter    string  `json:"contextAfter,omitempty"`
}

// ContextBundleInput is the input schema for the context_bundle tool.
type ContextBundleInput struct {
	Root         string `json:"root,omitempty" jsonschema:"workspace root, default current directory"`
	DatabaseName string `json:"databaseName,omitempty" jsonschema:"index database filename, default .mcp-index.sqlite"`
	File         string `json:"file" jsonschema:"workspace-relative path to bundle"`
	Symbol       string `json:"symbol,omitempty" jsonschema:"focus definition name, case-insensitive"`
	SymbolKind   string `json:"symbolKind,omitempty" jsonschema:"narrow the focus match by kind"`
	MaxSnippets  int    `json:"maxSnippets,omitempty" jsonschema:"maximum snippets, default 3, max 10"`
	MaxNeighbors int    `json:"maxNeighbors,omitempty" jsonschema:"maximum related neighbors, default 12, max 50"`
	BudgetTokens int     `json:"budgetTokens,omitempty" jsonschema:"approximate token budget, default 3000"`
}

// ContextBundleOutput is the output schema for the context_bundle tool.
type ContextBundleOutput struct {
	Path             string                 `json:"path"`
	ContentAvailable bool                   `json:"contentAvailable"`
	Definitions      []DefinitionOutput     `json:"definitions,omitempty"`
	FocusDefinition  *DefinitionOutput      `json:"focusDefinition,omitempty"`
	Neighbors        []NeighborOutput       `json:"neighbors,omitempty"`
	Snippets         []SnippetOutput        `json:"snippets,omitempty"`
	LatestIngestion  *IngestionOutput       `json:"latestIngestion,omitempty"`
	QuickLinks       []QuickLinkOutput      `json:"quickLinks,omitempty"`
	Warnings         []string               `json:"warnings,omitempty"`
}

// DefinitionOutput mirrors bundle.BundleDefinition with camelCase JSON.
type DefinitionOutput struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Signature  string `json:"signature,omitempty"`
	RangeStart *int   `json:"rangeStart,omitempty"`
	RangeEnd   *int   `json:"rangeEnd,omitempty"`
	Visibility string `json:"visibility"`
	Docstring  string `json:"docstring,omitempty"`
	TODOCount  int    `json:"todoCount"`
	IsFocus    bool   `json:"isFocus,omitempty"`
}

// NeighborOutput mirrors bundle.BundleEdgeNeighbor with camelCase JSON.
type NeighborOutput struct {
	EdgeID     string `json:"edgeId"`
	Direction  string `json:"direction"`
	EdgeType   string `json:"edgeType"`
	Definition string `json:"definition"`
	NodeID     string `json:"nodeId"`
	NodePath   string `json:"nodePath,omitempty"`
	NodeKind   string `json:"nodeKind,omitempty"`
	NodeName   string `json:"nodeName,omitempty"`
}

// SnippetOutput mirrors bundle.BundleSnippet with camelCase JSON.
type SnippetOutput struct {
	ChunkID   string `json:"chunkId"`
	Content   string `json:"content"`
	ByteStart int    `json:"byteStart"`
	ByteEnd   int    `json:"byteEnd"`
	LineStart int    `json:"lineStart"`
	LineEnd   int    `json:"lineEnd"`
	Truncated bool   `json:"truncated,omitempty"`
}

// QuickLinkOutput mirrors bundle.ContextBundleQuickLink with camelCase JSON.
type QuickLinkOutput struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
	ID    string `json:"id"`
}

// CodeLookupInput is the input schema for the code_lookup tool, which
// dispatches to either semantic_search or context_bundle.
type CodeLookupInput struct {
	Mode   string              `json:"mode" jsonschema:"search or bundle"`
	Search SemanticSearchInput `json:"search,omitempty" jsonschema:"fields used when mode is search"`
	Bundle ContextBundleInput  `json:"bundle,omitempty" jsonschema:"fields used when mode is bundle"`
}

// CodeLookupOutput wraps whichever of the two tool outputs code_lookup
// dispatched to; exactly one field is populated.
type CodeLookupOutput struct {
	Search *SemanticSearchOutput `json:"search,omitempty"`
	Bundle *ContextBundleOutput  `json:"bundle,omitempty"`
}

// RepositoryTimelineInput is the input schema for the repository_timeline
// tool.
type RepositoryTimelineInput struct {
	Root         string `json:"root,omitempty" jsonschema:"workspace root, default current directory"`
	DatabaseName string `json:"databaseName,omitempty" jsonschema:"index database filename, default .mcp-index.sqlite"`
	Limit        int    `json:"limit,omitempty" jsonschema:"maximum entries to return, default 20"`
}

// RepositoryTimelineOutput is the output schema for the
// repository_timeline tool.
type RepositoryTimelineOutput struct {
	Entries []TimelineEntryOutput `json:"entries,omitempty"`
}

// RepositoryTimelineEntryInput is the input schema for the
// repository_timeline_entry tool.
type RepositoryTimelineEntryInput struct {
	Root         string `json:"root,omitempty" jsonschema:"workspace root, default current directory"`
	DatabaseName string `json:"databaseName,omitempty" jsonschema:"index database filename, default .mcp-index.sqlite"`
	CommitSHA    string `json:"commitSha" jsonschema:"the commit SHA to look up"`
}

// RepositoryTimelineEntryOutput is the output schema for the
// repository_timeline_entry tool.
type RepositoryTimelineEntryOutput struct {
	Entry TimelineEntryOutput `json:"entry"`
}

// TimelineEntryOutput mirrors store.TimelineEntry with camelCase JSON; the
// payload is carried as a raw JSON string since rendering is out of scope.
type TimelineEntryOutput struct {
	CommitSHA    string `json:"commitSha"`
	Branch       string `json:"branch,omitempty"`
	CapturedAtMS int64  `json:"capturedAtMs"`
	Payload      string `json:"payload"`
	HasDiff      bool   `json:"hasDiff"`
}

func toIngestionOutput(ing *store.Ingestion) *IngestionOutput {
	if ing == nil {
		return nil
	}
	return &IngestionOutput{
		ID: ing.ID, Root: ing.Root, StartedAtMS: ing.StartedAtMS, FinishedAtMS: ing.FinishedAtMS,
		FileCount: ing.FileCount, SkippedCount: ing.SkippedCount, DeletedCount: ing.DeletedCount,
	}
}

func toIngestCodebaseOutput(s *ingest.Summary) IngestCodebaseOutput {
	out := IngestCodebaseOutput{
		IngestionID: s.IngestionID, DatabasePath: s.DatabasePath, IngestedFileCount: s.IngestedFileCount,
		DeletedPaths: s.DeletedPaths, EmbeddedChunkCount: s.EmbeddedChunkCount, GraphNodeCount: s.GraphNodeCount,
		EmbeddingModel: s.EmbeddingModel, DurationMS: s.DurationMS,
	}
	for _, sf := range s.SkippedFiles {
		out.SkippedFiles = append(out.SkippedFiles, SkippedFileOutput{Path: sf.Path, Reason: string(sf.Reason), Message: sf.Message})
	}
	if s.Eviction != nil {
		out.Eviction = &EvictionReportOutput{
			SizeBefore: s.Eviction.SizeBefore, SizeAfter: s.Eviction.SizeAfter,
			EvictedChunks: s.Eviction.EvictedChunks, EvictedNodes: s.Eviction.EvictedNodes,
		}
	}
	return out
}

func toSemanticSearchOutput(r *search.Response) SemanticSearchOutput {
	out := SemanticSearchOutput{
		DatabasePath: r.DatabasePath, Model: r.Model, TotalChunks: r.TotalChunks, EvaluatedChunks: r.EvaluatedChunks,
	}
	for _, m := range r.Matches {
		out.Matches = append(out.Matches, MatchOutput{
			Path: m.Path, ChunkID: m.ChunkID, Score: m.Score, NormalizedScore: m.NormalizedScore,
			Language: m.Language, Classification: string(m.Classification),
			ByteStart: m.ByteStart, ByteEnd: m.ByteEnd, LineStart: m.LineStart, LineEnd: m.LineEnd,
			Content: m.Content, ContextBefore: m.ContextBefore, ContextAfter: m.ContextAfter,
		})
	}
	return out
}

func toContextBundleOutput(b *bundle.Bundle) ContextBundleOutput {
	out := ContextBundleOutput{
		Path: b.Path, ContentAvailable: b.ContentAvailable,
		LatestIngestion: toIngestionOutput(b.LatestIngestion), Warnings: b.Warnings,
	}
	for _, d := range b.Definitions {
		out.Definitions = append(out.Definitions, toDefinitionOutput(d))
	}
	if b.FocusDefinition != nil {
		fd := toDefinitionOutput(*b.FocusDefinition)
		out.FocusDefinition = &fd
	}
	for _, n := range b.Neighbors {
		out.Neighbors = append(out.Neighbors, NeighborOutput{
			EdgeID: n.EdgeID, Direction: string(n.Direction), EdgeType: n.EdgeType, Definition: n.Definition,
			NodeID: n.Node.ID, NodePath: n.Node.Path, NodeKind: n.Node.Kind, NodeName: n.Node.Name,
		})
	}
	for _, s := range b.Snippets {
		out.Snippets = append(out.Snippets, SnippetOutput{
			ChunkID: s.ChunkID, Content: s.Content, ByteStart: s.ByteStart, ByteEnd: s.ByteEnd,
			LineStart: s.LineStart, LineEnd: s.LineEnd, Truncated: s.Truncated,
		})
	}
	for _, l := range b.QuickLinks {
		out.QuickLinks = append(out.QuickLinks, QuickLinkOutput{Label: l.Label, Kind: l.Kind, ID: l.ID})
	}
	return out
}

func toDefinitionOutput(d bundle.BundleDefinition) DefinitionOutput {
	return DefinitionOutput{
		ID: d.ID, Kind: d.Kind, Name: d.Name, Signature: d.Signature,
		RangeStart: d.RangeStart, RangeEnd: d.RangeEnd,
		Visibility: d.Visibility, Docstring: d.Docstring, TODOCount: d.TODOCount, IsFocus: d.IsFocus,
	}
}
