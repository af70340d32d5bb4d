// Package ingest orchestrates the scanner, chunker, graph extractor,
// embedder and index store end to end inside a single database
// transaction per run, per spec.md §4.7's thirteen-step contract.
package ingest

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
	"github.com/codeindex-mcp/codeindex/internal/chunk"
	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/gitmeta"
	"github.com/codeindex-mcp/codeindex/internal/globs"
	"github.com/codeindex-mcp/codeindex/internal/graph"
	"github.com/codeindex-mcp/codeindex/internal/scanner"
	"github.com/codeindex-mcp/codeindex/internal/store"
	"github.com/gofrs/flock"
)

// Options configures one Ingest call.
type Options struct {
	Root                 string
	Include              []string
	Exclude              []string
	DatabaseName         string
	MaxFileSizeBytes     int64
	StoreFileContent     bool
	Paths                []string // non-empty selects targeted mode
	AutoEvict            bool
	MaxDatabaseSizeBytes int64

	EmbeddingEnabled bool
	EmbeddingModel   string
	BatchSize        int

	ChunkSizeTokens    int
	ChunkOverlapTokens int
	Workers            int
}

// Summary is the externally-observable result of one ingestion run.
type Summary struct {
	IngestionID        string
	DatabasePath        string
	IngestedFileCount   int
	SkippedFiles        []scanner.SkippedFile
	DeletedPaths        []string
	EmbeddedChunkCount  int
	GraphNodeCount      int
	EmbeddingModel      string
	DurationMS          int64
	Eviction            *store.EvictionReport
}

// Coordinator runs ingestion runs against workspace databases, serializing
// concurrent runs against the same database path with a file lock.
type Coordinator struct {
	pool *embed.Pool
}

// New returns a Coordinator backed by pool for embedding calls.
func New(pool *embed.Pool) *Coordinator {
	return &Coordinator{pool: pool}
}

// pendingFile is one scanned file's in-memory extraction output, kept
// until the single ingest transaction is ready to persist it.
type pendingFile struct {
	file       scanner.File
	chunks     []chunk.Fragment
	extraction graph.Extraction
}

// Ingest runs one end-to-end ingestion: resolve root, scan, extract,
// embed, and commit atomically. See spec.md §4.7 for the step-by-step
// contract this mirrors.
func (c *Coordinator) Ingest(ctx context.Context, opts Options) (*Summary, error) {
	started := time.Now()

	databaseName := opts.DatabaseName
	if databaseName == "" {
		databaseName = ".mcp-index.sqlite"
	}

	resolver, err := globs.New(opts.Root, opts.Include, opts.Exclude, databaseName)
	if err != nil {
		return nil, err
	}
	root := resolver.Root()
	dbPath := joinPath(root, databaseName)

	lock := flock.New(lockPathFor(dbPath))
	if err := lock.Lock(); err != nil {
		return nil, codeerrors.Wrap(codeerrors.KindDatabase, "failed to acquire ingest lock", err).WithDetail("path", dbPath)
	}
	defer func() { _ = lock.Unlock() }()

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	sc := scanner.New(resolver)
	scanResult, err := sc.Scan(ctx, scanner.Options{
		MaxFileSizeBytes: opts.MaxFileSizeBytes,
		Workers:          opts.Workers,
		StoreContent:     true, // always decode text in-memory; persistence is a separate decision below
		TargetPaths:      opts.Paths,
	})
	if err != nil {
		return nil, err
	}

	model := opts.EmbeddingModel
	if model == "" {
		model = embed.DefaultModel
	}

	pending := make([]pendingFile, 0, len(scanResult.Files))
	retained := make(map[string]bool, len(scanResult.Files))
	for _, f := range scanResult.Files {
		retained[f.Path] = true
		pf := pendingFile{file: f}
		if f.Content != "" {
			pf.chunks = chunk.Split(f.Content, chunk.Options{
				ChunkSizeTokens:    opts.ChunkSizeTokens,
				ChunkOverlapTokens: opts.ChunkOverlapTokens,
			})
			pf.extraction = graph.Extract(ctx, f.Path, []byte(f.Content))
		}
		pending = append(pending, pf)
	}

	tx, err := st.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, codeerrors.Database(dbPath, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	targetPrefixes := targetedPrefixes(opts.Paths)
	existing, err := store.ListIndexedPaths(ctx, tx, targetPrefixes)
	if err != nil {
		return nil, err
	}

	nowMS := time.Now().UnixMilli()
	retainedPaths := make([]string, 0, len(pending))
	for _, pf := range pending {
		var content *string
		if opts.StoreFileContent && pf.file.Content != "" {
			c := pf.file.Content
			content = &c
		}
		if err := store.UpsertFile(ctx, tx, store.File{
			Path: pf.file.Path, Size: pf.file.Size, ModifiedMS: pf.file.ModifiedMS,
			Hash: pf.file.Hash, LastIndexedMS: nowMS, Content: content,
		}); err != nil {
			return nil, err
		}
		retainedPaths = append(retainedPaths, pf.file.Path)
	}

	deleteSet := make([]string, 0)
	for _, p := range existing {
		if !retained[p] {
			deleteSet = append(deleteSet, p)
		}
	}
	if err := store.DeleteFiles(ctx, tx, deleteSet); err != nil {
		return nil, err
	}

	ingestionID := uuid.NewString()
	if err := store.InsertIngestion(ctx, tx, store.Ingestion{
		ID: ingestionID, Root: root, StartedAtMS: started.UnixMilli(), FinishedAtMS: nowMS,
		FileCount: len(pending), SkippedCount: len(scanResult.Skipped), DeletedCount: len(deleteSet),
	}); err != nil {
		return nil, err
	}
	if summary, ok := gitmeta.Snapshot(root); ok {
		_ = store.UpsertMeta(ctx, tx, store.MetaCommitSHA, summary.SHA, nowMS)
		if payload, err := json.Marshal(summary); err == nil {
			if err := store.UpsertTimelineEntry(ctx, tx, store.TimelineEntry{
				CommitSHA:    summary.SHA,
				Branch:       summary.Branch,
				CapturedAtMS: summary.CapturedAtMS,
				Payload:      payload,
			}); err != nil {
				return nil, err
			}
		}
	}
	_ = store.UpsertMeta(ctx, tx, store.MetaIndexedAt, time.UnixMilli(nowMS).UTC().Format(time.RFC3339Nano), nowMS)

	if err := store.ClearChunksForPaths(ctx, tx, retainedPaths); err != nil {
		return nil, err
	}
	if err := store.ClearGraphForPaths(ctx, tx, retainedPaths); err != nil {
		return nil, err
	}

	graphNodeCount := 0
	for _, pf := range pending {
		if len(pf.extraction.Nodes) == 0 && len(pf.extraction.Edges) == 0 {
			continue
		}
		nodes := make([]store.GraphNode, 0, len(pf.extraction.Nodes))
		for _, n := range pf.extraction.Nodes {
			nodes = append(nodes, toStoreNode(n))
		}
		if err := store.InsertGraphNodes(ctx, tx, nodes); err != nil {
			return nil, err
		}
		graphNodeCount += len(nodes)
		if len(pf.extraction.Edges) > 0 {
			edges := make([]store.GraphEdge, 0, len(pf.extraction.Edges))
			for _, e := range pf.extraction.Edges {
				edges = append(edges, store.GraphEdge{ID: e.ID, SourceID: e.SourceID, TargetID: e.TargetID, Type: string(e.Kind)})
			}
			if err := store.InsertGraphEdges(ctx, tx, edges); err != nil {
				return nil, err
			}
		}
	}

	embeddedCount := 0
	if opts.EmbeddingEnabled {
		type pendingChunk struct {
			path  string
			idx   int
			frag  chunk.Fragment
		}
		var toEmbed []pendingChunk
		for _, pf := range pending {
			for i, frag := range pf.chunks {
				toEmbed = append(toEmbed, pendingChunk{path: pf.file.Path, idx: i, frag: frag})
			}
		}
		if len(toEmbed) > 0 {
			texts := make([]string, len(toEmbed))
			for i, pc := range toEmbed {
				texts[i] = pc.frag.Content
			}
			vectors, err := c.pool.EmbedBatch(ctx, model, texts, opts.BatchSize)
			if err != nil {
				return nil, err
			}
			rows := make([]store.Chunk, 0, len(toEmbed))
			for i, pc := range toEmbed {
				if i >= len(vectors) || vectors[i] == nil {
					continue
				}
				rows = append(rows, store.Chunk{
					ID:             pc.path + ":" + itoa(pc.idx),
					Path:           pc.path,
					ChunkIndex:     pc.idx,
					Content:        pc.frag.Content,
					Embedding:      store.EncodeEmbedding(vectors[i]),
					EmbeddingModel: model,
					ByteStart:      pc.frag.ByteStart,
					ByteEnd:        pc.frag.ByteEnd,
					LineStart:      pc.frag.LineStart,
					LineEnd:        pc.frag.LineEnd,
				})
			}
			if err := store.InsertChunks(ctx, tx, rows); err != nil {
				return nil, err
			}
			embeddedCount = len(rows)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, codeerrors.Database(dbPath, err)
	}
	committed = true

	summary := &Summary{
		IngestionID:        ingestionID,
		DatabasePath:       dbPath,
		IngestedFileCount:  len(pending),
		SkippedFiles:       scanResult.Skipped,
		DeletedPaths:       deleteSet,
		EmbeddedChunkCount: embeddedCount,
		GraphNodeCount:     graphNodeCount,
		EmbeddingModel:     model,
		DurationMS:         time.Since(started).Milliseconds(),
	}

	if opts.AutoEvict {
		report, err := st.Evict(ctx, opts.MaxDatabaseSizeBytes)
		if err != nil {
			return nil, err
		}
		summary.Eviction = report
	}

	return summary, nil
}

func targetedPrefixes(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	return paths
}

func toStoreNode(n graph.Node) store.GraphNode {
	sn := store.GraphNode{ID: n.ID, Kind: string(n.Kind), Name: n.Name}
	if n.Path != "" {
		sn.Path = &n.Path
	}
	if n.Signature != "" {
		sig := n.Signature
		sn.Signature = &sig
	}
	if n.HasRange {
		start, end := n.RangeStart, n.RangeEnd
		sn.RangeStart = &start
		sn.RangeEnd = &end
	}
	if n.Async || n.Generator {
		sn.Metadata = metadataJSON(n.Async, n.Generator)
	}
	return sn
}

func joinPath(root, name string) string {
	return filepath.Join(root, name)
}
