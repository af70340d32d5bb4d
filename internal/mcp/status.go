package mcp

import (
	"context"
	"os"
	"path/filepath"

	"github.com/codeindex-mcp/codeindex/internal/gitmeta"
	"github.com/codeindex-mcp/codeindex/internal/globs"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

const defaultHistoryLimit = 5

// IndexStatus is the CLI-facing equivalent of the index_status tool, for
// the `codeindex status` command.
func IndexStatus(ctx context.Context, root, databaseName string, historyLimit int) (IndexStatusOutput, error) {
	return indexStatus(ctx, IndexStatusInput{Root: root, DatabaseName: databaseName, HistoryLimit: historyLimit})
}

// indexStatus computes the index_status tool's result: whether a database
// exists at root, its size and row counts, recent ingestion history, and
// whether the stored commit SHA (if any) still matches the workspace's
// current HEAD.
func indexStatus(ctx context.Context, in IndexStatusInput) (IndexStatusOutput, error) {
	root, err := globs.ResolveRoot(in.Root)
	if err != nil {
		return IndexStatusOutput{}, err
	}
	databaseName := in.DatabaseName
	if databaseName == "" {
		databaseName = ".mcp-index.sqlite"
	}
	dbPath := filepath.Join(root, databaseName)

	out := IndexStatusOutput{DatabasePath: dbPath}
	if !store.Exists(dbPath) {
		return out, nil
	}
	out.Exists = true

	db, err := store.OpenReader(ctx, dbPath)
	if err != nil {
		return IndexStatusOutput{}, err
	}
	defer db.Close()

	if info, err := os.Stat(dbPath); err == nil {
		out.SizeBytes = info.Size()
	}

	if n, err := store.CountFiles(ctx, db); err == nil {
		out.FileCount = n
	}
	if n, err := store.CountChunks(ctx, db); err == nil {
		out.ChunkCount = n
	}
	if n, err := store.CountGraphNodes(ctx, db); err == nil {
		out.GraphNodeCount = n
	}

	if latest, err := store.LatestIngestion(ctx, db); err == nil {
		out.LatestIngestion = toIngestionOutput(latest)
	}
	limit := in.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if recent, err := store.RecentIngestions(ctx, db, limit); err == nil {
		for _, ing := range recent {
			out.RecentIngestions = append(out.RecentIngestions, *toIngestionOutput(&ing))
		}
	}

	if sha, ok, err := store.GetMeta(ctx, db, store.MetaCommitSHA); err == nil && ok {
		out.StoredCommitSHA = sha
	}
	if head, ok := gitmeta.Head(root); ok {
		out.CurrentCommitSHA = head.CommitSHA
	}
	if out.StoredCommitSHA != "" && out.CurrentCommitSHA != "" {
		out.Stale = out.StoredCommitSHA != out.CurrentCommitSHA
	}

	return out, nil
}
