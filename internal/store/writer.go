package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// UpsertFile inserts or replaces one files row.
func UpsertFile(ctx context.Context, q execer, f File) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO files (path, size, modified, hash, last_indexed_at, content)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			modified = excluded.modified,
			hash = excluded.hash,
			last_indexed_at = excluded.last_indexed_at,
			content = excluded.content
	`, f.Path, f.Size, f.ModifiedMS, f.Hash, f.LastIndexedMS, f.Content)
	if err != nil {
		return codeerrors.Wrap(codeerrors.KindDatabase, "upsert file", err).WithDetail("path", f.Path)
	}
	return nil
}

// ListIndexedPaths returns every path currently in files, optionally
// restricted to those with one of prefixes (targeted-mode delete-set
// scoping). An empty prefixes list means "all paths".
func ListIndexedPaths(ctx context.Context, q execer, prefixes []string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT path FROM files`)
	if err != nil {
		return nil, codeerrors.Database("", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, codeerrors.Database("", err)
		}
		if len(prefixes) == 0 || matchesAnyPrefix(p, prefixes) {
			out = append(out, p)
		}
	}
	return out, rows.Err()
}

func matchesAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// DeleteFiles removes the given paths from files; cascades remove their
// chunks and graph nodes.
func DeleteFiles(ctx context.Context, q execer, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	placeholders, args := inClause(paths)
	// code_graph_nodes.path carries no foreign key to files, so graph rows
	// are removed explicitly; their edges then cascade.
	if _, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM code_graph_nodes WHERE path IN (%s)`, placeholders), args...); err != nil {
		return codeerrors.Database("", err)
	}
	_, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM files WHERE path IN (%s)`, placeholders), args...)
	if err != nil {
		return codeerrors.Database("", err)
	}
	return nil
}

// ClearChunksForPaths removes all chunks belonging to the given paths, so
// a re-ingest does not leave stale fragments when a file shrinks.
func ClearChunksForPaths(ctx context.Context, q execer, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	placeholders, args := inClause(paths)
	_, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM file_chunks WHERE path IN (%s)`, placeholders), args...)
	if err != nil {
		return codeerrors.Database("", err)
	}
	return nil
}

// ClearGraphForPaths removes all graph nodes (and cascaded edges)
// belonging to the given paths.
func ClearGraphForPaths(ctx context.Context, q execer, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	placeholders, args := inClause(paths)
	_, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM code_graph_nodes WHERE path IN (%s)`, placeholders), args...)
	if err != nil {
		return codeerrors.Database("", err)
	}
	return nil
}

// InsertChunks inserts pre-embedded chunks in a single batch.
func InsertChunks(ctx context.Context, q execer, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	stmt, err := prepareIfTx(ctx, q, `
		INSERT INTO file_chunks
			(id, path, chunk_index, content, embedding, embedding_model,
			 byte_start, byte_end, line_start, line_end, hits)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`)
	if err != nil {
		return codeerrors.Database("", err)
	}
	defer closeIfStmt(stmt)

	for _, c := range chunks {
		if err := execStmt(ctx, q, stmt, `
			INSERT INTO file_chunks
				(id, path, chunk_index, content, embedding, embedding_model,
				 byte_start, byte_end, line_start, line_end, hits)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		`, c.ID, c.Path, c.ChunkIndex, c.Content, c.Embedding, c.EmbeddingModel,
			c.ByteStart, c.ByteEnd, c.LineStart, c.LineEnd); err != nil {
			return codeerrors.Wrap(codeerrors.KindDatabase, "insert chunk", err).WithDetail("id", c.ID)
		}
	}
	return nil
}

// InsertGraphNodes inserts extracted nodes, ignoring the rare case where
// two synthesized symbol nodes in the same file collide on
// (path, kind, name) after concurrent extraction merges.
func InsertGraphNodes(ctx context.Context, q execer, nodes []GraphNode) error {
	for _, n := range nodes {
		_, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO code_graph_nodes
				(id, path, kind, name, signature, range_start, range_end, metadata, hits)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
		`, n.ID, n.Path, n.Kind, n.Name, n.Signature, n.RangeStart, n.RangeEnd, n.Metadata)
		if err != nil {
			return codeerrors.Wrap(codeerrors.KindDatabase, "insert graph node", err).WithDetail("id", n.ID)
		}
	}
	return nil
}

// InsertGraphEdges inserts extracted edges.
func InsertGraphEdges(ctx context.Context, q execer, edges []GraphEdge) error {
	for _, e := range edges {
		_, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO code_graph_edges
				(id, source_id, target_id, type, source_path, target_path, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.SourceID, e.TargetID, e.Type, e.SourcePath, e.TargetPath, e.Metadata)
		if err != nil {
			return codeerrors.Wrap(codeerrors.KindDatabase, "insert graph edge", err).WithDetail("id", e.ID)
		}
	}
	return nil
}

// InsertIngestion records one completed ingestion run.
func InsertIngestion(ctx context.Context, q execer, ing Ingestion) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ingestions (id, root, started_at, finished_at, file_count, skipped_count, deleted_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ing.ID, ing.Root, ing.StartedAtMS, ing.FinishedAtMS, ing.FileCount, ing.SkippedCount, ing.DeletedCount)
	if err != nil {
		return codeerrors.Database("", err)
	}
	return nil
}

// UpsertMeta sets key=value with the given updated_at timestamp.
func UpsertMeta(ctx context.Context, q execer, key, value string, updatedAtMS int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, updatedAtMS)
	if err != nil {
		return codeerrors.Database("", err)
	}
	return nil
}

// UpsertTimelineEntry records a timeline snapshot for one commit.
func UpsertTimelineEntry(ctx context.Context, q execer, e TimelineEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO repository_timeline_entries (commit_sha, branch, captured_at, payload, diff)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(commit_sha) DO UPDATE SET
			branch = excluded.branch,
			captured_at = excluded.captured_at,
			payload = excluded.payload,
			diff = excluded.diff
	`, e.CommitSHA, e.Branch, e.CapturedAtMS, e.Payload, e.Diff)
	if err != nil {
		return codeerrors.Database("", err)
	}
	return nil
}

func inClause(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ","), args
}

// The prepare/exec helpers below let InsertChunks prepare its statement
// once when q is a *sql.Tx, while still working against a bare *sql.DB
// (no prepare reuse, one ExecContext per row) for callers outside a
// transaction, such as tests.

func prepareIfTx(ctx context.Context, q execer, query string) (*sql.Stmt, error) {
	tx, ok := q.(*sql.Tx)
	if !ok {
		return nil, nil
	}
	return tx.PrepareContext(ctx, query)
}

func closeIfStmt(stmt *sql.Stmt) {
	if stmt != nil {
		_ = stmt.Close()
	}
}

func execStmt(ctx context.Context, q execer, stmt *sql.Stmt, query string, args ...any) error {
	if stmt != nil {
		_, err := stmt.ExecContext(ctx, args...)
		return err
	}
	_, err := q.ExecContext(ctx, query, args...)
	return err
}
