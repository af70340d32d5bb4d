// Package search implements semantic (dense-vector) retrieval over the
// chunks persisted by internal/ingest: decode stored embeddings, score
// against a query vector, and assemble ranked matches with surrounding
// source context.
package search

import (
	"container/heap"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/globs"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// contextLines is how many lines of surrounding source are attached
// before and after each match.
const contextLines = 2

// Search runs one semantic search: embeds the query under the selected
// model, scores every stored chunk for that model by dot product, and
// returns the top Options.Limit matches descending by score.
func Search(ctx context.Context, pool *embed.Pool, opts Options) (*Response, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return &Response{}, nil
	}

	databaseName := opts.DatabaseName
	if databaseName == "" {
		databaseName = ".mcp-index.sqlite"
	}
	root, err := globs.ResolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	dbPath := filepath.Join(root, databaseName)
	if !store.Exists(dbPath) {
		return &Response{DatabasePath: dbPath}, nil
	}

	db, err := store.OpenReader(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	totalChunks, err := store.CountChunks(ctx, db)
	if err != nil {
		return nil, err
	}
	if totalChunks == 0 {
		return &Response{DatabasePath: dbPath, TotalChunks: 0}, nil
	}

	model, err := selectModel(ctx, db, opts.Model)
	if err != nil {
		return nil, err
	}

	queryVec, err := pool.Embed(ctx, model, query)
	if err != nil {
		return nil, err
	}

	limit := clampLimit(opts.Limit)
	h := &scoreHeap{}
	heap.Init(h)

	evaluated, err := store.StreamChunksForModel(ctx, db, model, func(c store.Chunk) error {
		vec, decodeErr := store.DecodeEmbedding(c.Embedding)
		if decodeErr != nil {
			return nil // a malformed blob is skipped, not fatal to the whole search
		}
		score := dot(vec, queryVec)
		if h.Len() < limit {
			heap.Push(h, scoredChunk{chunk: c, score: score})
		} else if h.Len() > 0 && score > (*h)[0].score {
			heap.Pop(h)
			heap.Push(h, scoredChunk{chunk: c, score: score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	scored := make([]scoredChunk, h.Len())
	copy(scored, *h)
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	contentCache := map[string]string{}
	matches := make([]Match, 0, len(scored))
	hitIDs := make([]string, 0, len(scored))
	for _, sc := range scored {
		c := sc.chunk
		content, ok := contentCache[c.Path]
		if !ok {
			content = loadFileContent(ctx, db, root, c.Path)
			contentCache[c.Path] = content
		}
		before, after := surroundingLines(content, c.LineStart, c.LineEnd)

		matches = append(matches, Match{
			Path:            c.Path,
			ChunkID:         c.ID,
			Score:           sc.score,
			NormalizedScore: normalizeScore(sc.score),
			Language:        LanguageForPath(c.Path),
			Classification:  Classify(c.Content),
			ByteStart:       c.ByteStart,
			ByteEnd:         c.ByteEnd,
			LineStart:       c.LineStart,
			LineEnd:         c.LineEnd,
			Content:         c.Content,
			ContextBefore:   before,
			ContextAfter:    after,
		})
		hitIDs = append(hitIDs, c.ID)
	}
	if len(hitIDs) > 0 {
		if err := bumpChunkHits(ctx, dbPath, hitIDs); err != nil {
			return nil, err
		}
	}

	return &Response{
		DatabasePath:    dbPath,
		Model:           model,
		TotalChunks:     totalChunks,
		EvaluatedChunks: evaluated,
		Matches:         matches,
	}, nil
}

// selectModel resolves which embedding_model to search: the caller's
// choice if valid, the sole stored model if unambiguous, or an error
// naming the available set.
func selectModel(ctx context.Context, db *sql.DB, requested string) (string, error) {
	models, err := store.DistinctEmbeddingModels(ctx, db)
	if err != nil {
		return "", err
	}
	if requested != "" {
		for _, m := range models {
			if m == requested {
				return requested, nil
			}
		}
		return "", codeerrors.New(codeerrors.KindNotFound, "embedding model not found in index").
			WithDetail("model", requested).
			WithDetail("available", strings.Join(models, ","))
	}
	switch len(models) {
	case 0:
		return "", codeerrors.New(codeerrors.KindNotFound, "no chunks are embedded yet")
	case 1:
		return models[0], nil
	default:
		return "", codeerrors.Ambiguous("embedding model").
			WithDetail("available", strings.Join(models, ","))
	}
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalizeScore maps an assumed-unit-normalized dot product in [-1, 1]
// to [0, 1], clamped for safety against floating point drift.
func normalizeScore(score float64) float64 {
	n := (score + 1) / 2
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// bumpChunkHits increments the hits counter for ids over a short-lived
// writer connection: the main search path (db above) is opened read-only
// per §5, so the UPDATE that §3/§4.8 step 5 require needs its own
// connection rather than running against db.
func bumpChunkHits(ctx context.Context, dbPath string, ids []string) error {
	writer, err := store.OpenWriter(ctx, dbPath)
	if err != nil {
		return err
	}
	defer writer.Close()
	return store.IncrementChunkHits(ctx, writer, ids)
}

func loadFileContent(ctx context.Context, db *sql.DB, root, path string) string {
	f, err := store.GetFile(ctx, db, path)
	if err == nil && f != nil && f.Content != nil {
		return *f.Content
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return ""
	}
	return string(data)
}

// surroundingLines extracts up to contextLines of text immediately before
// lineStart and immediately after lineEnd (1-based, inclusive).
func surroundingLines(content string, lineStart, lineEnd int) (before, after string) {
	if content == "" {
		return "", ""
	}
	lines := strings.Split(content, "\n")

	beforeFrom := lineStart - 1 - contextLines
	if beforeFrom < 0 {
		beforeFrom = 0
	}
	beforeTo := lineStart - 1
	if beforeTo > len(lines) {
		beforeTo = len(lines)
	}
	if beforeTo > beforeFrom {
		before = strings.Join(lines[beforeFrom:beforeTo], "\n")
	}

	afterFrom := lineEnd
	if afterFrom < 0 {
		afterFrom = 0
	}
	afterTo := lineEnd + contextLines
	if afterTo > len(lines) {
		afterTo = len(lines)
	}
	if afterTo > afterFrom && afterFrom < len(lines) {
		after = strings.Join(lines[afterFrom:afterTo], "\n")
	}
	return before, after
}

// scoredChunk pairs a chunk with its computed score for heap ordering.
type scoredChunk struct {
	chunk store.Chunk
	score float64
}

// scoreHeap is a min-heap by score, so the lowest-scoring of the current
// top-K sits at the root and is cheap to evict when a better match
// arrives (§4.8 step 4).
type scoreHeap []scoredChunk

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x any)         { *h = append(*h, x.(scoredChunk)) }
func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
