package store

import (
	"context"
	"database/sql"
	"sort"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// GetFile loads one files row by path. Returns (nil, nil) if absent.
func GetFile(ctx context.Context, q execer, path string) (*File, error) {
	row := q.QueryRowContext(ctx, `
		SELECT path, size, modified, hash, last_indexed_at, content
		FROM files WHERE path = ?
	`, path)
	var f File
	if err := row.Scan(&f.Path, &f.Size, &f.ModifiedMS, &f.Hash, &f.LastIndexedMS, &f.Content); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, codeerrors.Database("", err)
	}
	return &f, nil
}

// CountFiles returns the number of rows in files.
func CountFiles(ctx context.Context, q execer) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, codeerrors.Database("", err)
	}
	return n, nil
}

// CountChunks returns the number of rows in file_chunks.
func CountChunks(ctx context.Context, q execer) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_chunks`).Scan(&n); err != nil {
		return 0, codeerrors.Database("", err)
	}
	return n, nil
}

// CountGraphNodes returns the number of rows in code_graph_nodes.
func CountGraphNodes(ctx context.Context, q execer) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_graph_nodes`).Scan(&n); err != nil {
		return 0, codeerrors.Database("", err)
	}
	return n, nil
}

// DistinctEmbeddingModels lists every non-null embedding_model value
// present in file_chunks.
func DistinctEmbeddingModels(ctx context.Context, q execer) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT embedding_model FROM file_chunks
		WHERE embedding_model IS NOT NULL ORDER BY embedding_model
	`)
	if err != nil {
		return nil, codeerrors.Database("", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, codeerrors.Database("", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ChunkVisitor is called once per chunk streamed by StreamChunksForModel.
type ChunkVisitor func(Chunk) error

// StreamChunksForModel iterates every chunk stored under model, invoking
// visit for each without materializing the whole result set, so semantic
// search stays bounded by one query's row buffer rather than the full
// chunk count.
func StreamChunksForModel(ctx context.Context, q execer, model string, visit ChunkVisitor) (int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, path, chunk_index, content, embedding, embedding_model,
		       byte_start, byte_end, line_start, line_end, hits
		FROM file_chunks WHERE embedding_model = ?
	`, model)
	if err != nil {
		return 0, codeerrors.Database("", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Path, &c.ChunkIndex, &c.Content, &c.Embedding, &c.EmbeddingModel,
			&c.ByteStart, &c.ByteEnd, &c.LineStart, &c.LineEnd, &c.Hits); err != nil {
			return n, codeerrors.Database("", err)
		}
		n++
		if err := visit(c); err != nil {
			return n, err
		}
	}
	return n, rows.Err()
}

// ChunksForPath loads chunks for path in chunk_index order, up to limit
// (0 means unlimited).
func ChunksForPath(ctx context.Context, q execer, path string, limit int) ([]Chunk, error) {
	query := `
		SELECT id, path, chunk_index, content, embedding, embedding_model,
		       byte_start, byte_end, line_start, line_end, hits
		FROM file_chunks WHERE path = ? ORDER BY chunk_index ASC
	`
	args := []any{path}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, codeerrors.Database("", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Path, &c.ChunkIndex, &c.Content, &c.Embedding, &c.EmbeddingModel,
			&c.ByteStart, &c.ByteEnd, &c.LineStart, &c.LineEnd, &c.Hits); err != nil {
			return nil, codeerrors.Database("", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// IncrementChunkHits bumps the hits counter for the given chunk ids.
func IncrementChunkHits(ctx context.Context, q execer, ids []string) error {
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `UPDATE file_chunks SET hits = hits + 1 WHERE id = ?`, id); err != nil {
			return codeerrors.Database("", err)
		}
	}
	return nil
}

// IncrementNodeHits bumps the hits counter for the given graph node ids.
func IncrementNodeHits(ctx context.Context, q execer, ids []string) error {
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `UPDATE code_graph_nodes SET hits = hits + 1 WHERE id = ?`, id); err != nil {
			return codeerrors.Database("", err)
		}
	}
	return nil
}

// NodesForPath loads every graph node rooted at path, sorted by
// range_start ascending (nodes with no range sort first).
func NodesForPath(ctx context.Context, q execer, path string) ([]GraphNode, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, path, kind, name, signature, range_start, range_end, metadata, hits
		FROM code_graph_nodes WHERE path = ?
	`, path)
	if err != nil {
		return nil, codeerrors.Database("", err)
	}
	defer rows.Close()

	var out []GraphNode
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Path, &n.Kind, &n.Name, &n.Signature, &n.RangeStart, &n.RangeEnd, &n.Metadata, &n.Hits); err != nil {
			return nil, codeerrors.Database("", err)
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].RangeStart, out[j].RangeStart
		switch {
		case ri == nil && rj == nil:
			return false
		case ri == nil:
			return true
		case rj == nil:
			return false
		default:
			return *ri < *rj
		}
	})
	return out, rows.Err()
}

// NodeByID loads one graph node by id. Returns (nil, nil) if absent.
func NodeByID(ctx context.Context, q execer, id string) (*GraphNode, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, path, kind, name, signature, range_start, range_end, metadata, hits
		FROM code_graph_nodes WHERE id = ?
	`, id)
	var n GraphNode
	if err := row.Scan(&n.ID, &n.Path, &n.Kind, &n.Name, &n.Signature, &n.RangeStart, &n.RangeEnd, &n.Metadata, &n.Hits); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, codeerrors.Database("", err)
	}
	return &n, nil
}

// EdgeDirection says whether a definition was the source or target of an
// edge loaded by EdgesForNode.
type EdgeDirection string

const (
	DirectionOutgoing EdgeDirection = "outgoing"
	DirectionIncoming EdgeDirection = "incoming"
)

// DirectedEdge pairs a GraphEdge with the direction it was matched from,
// relative to the node id passed to EdgesForNode.
type DirectedEdge struct {
	Edge      GraphEdge
	Direction EdgeDirection
}

// EdgesForNode loads up to limit edges where nodeID is either the source
// or the target. The query sets no order, so when more than limit edges
// exist, which ones are returned is not defined.
func EdgesForNode(ctx context.Context, q execer, nodeID string, limit int) ([]DirectedEdge, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, source_id, target_id, type, source_path, target_path, metadata
		FROM code_graph_edges WHERE source_id = ? OR target_id = ?
		LIMIT ?
	`, nodeID, nodeID, limit)
	if err != nil {
		return nil, codeerrors.Database("", err)
	}
	defer rows.Close()

	var out []DirectedEdge
	for rows.Next() {
		var e GraphEdge
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Type, &e.SourcePath, &e.TargetPath, &e.Metadata); err != nil {
			return nil, codeerrors.Database("", err)
		}
		dir := DirectionOutgoing
		if e.TargetID == nodeID && e.SourceID != nodeID {
			dir = DirectionIncoming
		}
		out = append(out, DirectedEdge{Edge: e, Direction: dir})
	}
	return out, rows.Err()
}

// GetMeta loads one meta value. Returns ("", false, nil) if absent.
func GetMeta(ctx context.Context, q execer, key string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, codeerrors.Database("", err)
	}
	return v, true, nil
}

// LatestIngestion returns the most recently finished ingestion, or nil if
// none exist yet.
func LatestIngestion(ctx context.Context, q execer) (*Ingestion, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, root, started_at, finished_at, file_count, skipped_count, deleted_count
		FROM ingestions ORDER BY finished_at DESC LIMIT 1
	`)
	var ing Ingestion
	if err := row.Scan(&ing.ID, &ing.Root, &ing.StartedAtMS, &ing.FinishedAtMS, &ing.FileCount, &ing.SkippedCount, &ing.DeletedCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, codeerrors.Database("", err)
	}
	return &ing, nil
}

// RecentIngestions returns up to limit ingestions, most recent first.
func RecentIngestions(ctx context.Context, q execer, limit int) ([]Ingestion, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, root, started_at, finished_at, file_count, skipped_count, deleted_count
		FROM ingestions ORDER BY finished_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, codeerrors.Database("", err)
	}
	defer rows.Close()

	var out []Ingestion
	for rows.Next() {
		var ing Ingestion
		if err := rows.Scan(&ing.ID, &ing.Root, &ing.StartedAtMS, &ing.FinishedAtMS, &ing.FileCount, &ing.SkippedCount, &ing.DeletedCount); err != nil {
			return nil, codeerrors.Database("", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// TimelineEntryBySHA loads one timeline entry by commit SHA. Returns
// (nil, nil) if absent.
func TimelineEntryBySHA(ctx context.Context, q execer, sha string) (*TimelineEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT commit_sha, branch, captured_at, payload, diff
		FROM repository_timeline_entries WHERE commit_sha = ?
	`, sha)
	var e TimelineEntry
	var branch sql.NullString
	if err := row.Scan(&e.CommitSHA, &branch, &e.CapturedAtMS, &e.Payload, &e.Diff); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, codeerrors.Database("", err)
	}
	e.Branch = branch.String
	return &e, nil
}

// RecentTimelineEntries lists up to limit timeline entries, most recently
// captured first.
func RecentTimelineEntries(ctx context.Context, q execer, limit int) ([]TimelineEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT commit_sha, branch, captured_at, payload, diff
		FROM repository_timeline_entries ORDER BY captured_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, codeerrors.Database("", err)
	}
	defer rows.Close()

	var out []TimelineEntry
	for rows.Next() {
		var e TimelineEntry
		var branch sql.NullString
		if err := rows.Scan(&e.CommitSHA, &branch, &e.CapturedAtMS, &e.Payload, &e.Diff); err != nil {
			return nil, codeerrors.Database("", err)
		}
		e.Branch = branch.String
		out = append(out, e)
	}
	return out, rows.Err()
}
