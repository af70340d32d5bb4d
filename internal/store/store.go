// Package store owns the embedded SQLite database that backs one
// workspace index: schema creation, the single-writer/many-reader
// connection model, and the CRUD operations the ingest coordinator,
// semantic search, and context bundle assembler run against it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go driver, no CGO

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	size INTEGER NOT NULL,
	modified INTEGER NOT NULL,
	hash TEXT NOT NULL,
	last_indexed_at INTEGER NOT NULL,
	content TEXT
);
CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash);

CREATE TABLE IF NOT EXISTS file_chunks (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB,
	embedding_model TEXT,
	byte_start INTEGER NOT NULL,
	byte_end INTEGER NOT NULL,
	line_start INTEGER NOT NULL,
	line_end INTEGER NOT NULL,
	hits INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_file_chunks_path ON file_chunks(path);

CREATE TABLE IF NOT EXISTS ingestions (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	file_count INTEGER NOT NULL,
	skipped_count INTEGER NOT NULL,
	deleted_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS code_graph_nodes (
	id TEXT PRIMARY KEY,
	path TEXT,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	signature TEXT,
	range_start INTEGER,
	range_end INTEGER,
	metadata TEXT,
	hits INTEGER NOT NULL DEFAULT 0,
	UNIQUE(path, kind, name)
);
CREATE INDEX IF NOT EXISTS idx_code_graph_nodes_path ON code_graph_nodes(path);

CREATE TABLE IF NOT EXISTS code_graph_edges (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES code_graph_nodes(id) ON DELETE CASCADE,
	target_id TEXT NOT NULL REFERENCES code_graph_nodes(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	source_path TEXT,
	target_path TEXT,
	metadata TEXT
);
CREATE INDEX IF NOT EXISTS idx_code_graph_edges_source ON code_graph_edges(source_id);
CREATE INDEX IF NOT EXISTS idx_code_graph_edges_target ON code_graph_edges(target_id);

CREATE TABLE IF NOT EXISTS repository_timeline_entries (
	commit_sha TEXT PRIMARY KEY,
	branch TEXT,
	captured_at INTEGER NOT NULL,
	payload TEXT NOT NULL,
	diff BLOB
);
`

// File is one row of the files table.
type File struct {
	Path          string
	Size          int64
	ModifiedMS    int64
	Hash          string
	LastIndexedMS int64
	Content       *string
}

// Chunk is one row of the file_chunks table.
type Chunk struct {
	ID             string
	Path           string
	ChunkIndex     int
	Content        string
	Embedding      []byte
	EmbeddingModel string
	ByteStart      int
	ByteEnd        int
	LineStart      int
	LineEnd        int
	Hits           int64
}

// GraphNode is one row of the code_graph_nodes table.
type GraphNode struct {
	ID         string
	Path       *string
	Kind       string
	Name       string
	Signature  *string
	RangeStart *int
	RangeEnd   *int
	Metadata   []byte
	Hits       int64
}

// GraphEdge is one row of the code_graph_edges table.
type GraphEdge struct {
	ID         string
	SourceID   string
	TargetID   string
	Type       string
	SourcePath *string
	TargetPath *string
	Metadata   []byte
}

// Ingestion is one row of the ingestions table.
type Ingestion struct {
	ID            string
	Root          string
	StartedAtMS   int64
	FinishedAtMS  int64
	FileCount     int
	SkippedCount  int
	DeletedCount  int
}

// TimelineEntry is one row of the repository_timeline_entries table.
type TimelineEntry struct {
	CommitSHA   string
	Branch      string
	CapturedAtMS int64
	Payload     []byte
	Diff        []byte
}

// Recognized meta keys.
const (
	MetaCommitSHA  = "commit_sha"
	MetaIndexedAt  = "indexed_at"
)

// execer is satisfied by both *sql.DB and *sql.Tx, so CRUD helpers below
// can run inside or outside the ingest transaction without duplicating
// their SQL.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the single writer connection to one workspace's index
// database. Readers (search, bundle, status) open their own short-lived
// read-only connections via OpenReader instead of sharing this handle.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if absent) the database at path for read-write
// access, applies pragmas, and ensures schema exists. Only one Store per
// path should hold the writer handle at a time; cross-process exclusivity
// is the caller's responsibility (see internal/ingest's use of flock).
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, codeerrors.Database(path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, codeerrors.Database(path, err)
	}
	// One physical writer: SQLite serializes writers anyway, and this
	// keeps WAL-mode readers from ever seeing a half-open transaction.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, codeerrors.Database(path, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, codeerrors.Database(path, err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the on-disk database path this Store was opened against.
func (s *Store) Path() string { return s.path }

// DB exposes the writer handle for callers (the ingest coordinator) that
// need to manage their own transaction boundary.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the writer connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SizeBytes stats the database file on disk (main file only; WAL/SHM are
// not counted, matching the eviction contract's "post-VACUUM size").
func (s *Store) SizeBytes() (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, codeerrors.Database(s.path, err)
	}
	return info.Size(), nil
}

// Vacuum reclaims space freed by eviction. Must run outside any open
// transaction.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return codeerrors.Database(s.path, err)
	}
	return nil
}

// OpenReader opens a short-lived, read-only connection to the database at
// path, for queries (search, bundle, status) that must never block on or
// be blocked by the writer. Foreign keys are enabled for consistency even
// though readers never write.
func OpenReader(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, codeerrors.Database(path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, codeerrors.Database(path, err)
	}
	return db, nil
}

// OpenWriter opens a short-lived read-write connection to the database at
// path, for the rare write that happens outside the ingest coordinator's
// single transaction — bumping search/bundle hit counters. Callers open,
// write, and close promptly; busy_timeout absorbs any brief contention
// with a concurrent ingest holding the main writer handle.
func OpenWriter(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, codeerrors.Database(path, err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, codeerrors.Database(path, err)
		}
	}
	return db, nil
}

// Exists reports whether a database file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
