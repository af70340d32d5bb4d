package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
	"github.com/codeindex-mcp/codeindex/internal/globs"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

const defaultTimelineLimit = 20

// openReaderFor resolves root/databaseName to an existing index database
// and opens a read-only connection, or returns a NotFound error if no
// database exists yet.
func openReaderFor(ctx context.Context, root, databaseName string) (*sql.DB, error) {
	resolvedRoot, err := globs.ResolveRoot(root)
	if err != nil {
		return nil, err
	}
	if databaseName == "" {
		databaseName = ".mcp-index.sqlite"
	}
	dbPath := filepath.Join(resolvedRoot, databaseName)
	if !store.Exists(dbPath) {
		return nil, codeerrors.NotFound(dbPath)
	}
	return store.OpenReader(ctx, dbPath)
}

func repositoryTimeline(ctx context.Context, input RepositoryTimelineInput) (RepositoryTimelineOutput, error) {
	db, err := openReaderFor(ctx, input.Root, input.DatabaseName)
	if err != nil {
		return RepositoryTimelineOutput{}, err
	}
	defer db.Close()

	limit := input.Limit
	if limit <= 0 {
		limit = defaultTimelineLimit
	}
	entries, err := store.RecentTimelineEntries(ctx, db, limit)
	if err != nil {
		return RepositoryTimelineOutput{}, err
	}

	out := RepositoryTimelineOutput{}
	for _, e := range entries {
		out.Entries = append(out.Entries, toTimelineEntryOutput(e))
	}
	return out, nil
}

func repositoryTimelineEntry(ctx context.Context, input RepositoryTimelineEntryInput) (RepositoryTimelineEntryOutput, error) {
	db, err := openReaderFor(ctx, input.Root, input.DatabaseName)
	if err != nil {
		return RepositoryTimelineEntryOutput{}, err
	}
	defer db.Close()

	entry, err := store.TimelineEntryBySHA(ctx, db, input.CommitSHA)
	if err != nil {
		return RepositoryTimelineEntryOutput{}, err
	}
	if entry == nil {
		return RepositoryTimelineEntryOutput{}, codeerrors.NotFound(input.CommitSHA)
	}
	return RepositoryTimelineEntryOutput{Entry: toTimelineEntryOutput(*entry)}, nil
}

// toTimelineEntryOutput renders a stored timeline payload (persisted as
// raw JSON bytes) as a JSON string field, falling back to a quoted string
// if the stored bytes are not valid JSON for any reason.
func toTimelineEntryOutput(e store.TimelineEntry) TimelineEntryOutput {
	payload := string(e.Payload)
	if !json.Valid(e.Payload) {
		if marshaled, err := json.Marshal(payload); err == nil {
			payload = string(marshaled)
		}
	}
	return TimelineEntryOutput{
		CommitSHA: e.CommitSHA, Branch: e.Branch, CapturedAtMS: e.CapturedAtMS,
		Payload: payload, HasDiff: len(e.Diff) > 0,
	}
}
