package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-mcp/codeindex/internal/embed"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// TestWatcher_CreateFileTriggersTargetedIngest covers testable property #8:
// a debounced filesystem change results in a scoped ingest run that picks
// up the new file.
func TestWatcher_CreateFileTriggersTargetedIngest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.txt"), []byte("seed\n"), 0o644))

	coordinator := ingest.New(embed.NewPool())
	_, err := coordinator.Ingest(context.Background(), ingest.Options{
		Root: dir, DatabaseName: ".mcp-index.sqlite", StoreFileContent: true,
		ChunkSizeTokens: 64, ChunkOverlapTokens: 8,
	})
	require.NoError(t, err)

	w, err := New(coordinator, Options{
		Root:           dir,
		DatabaseName:   ".mcp-index.sqlite",
		DebounceWindow: 30 * time.Millisecond,
		IngestOptions: IngestTuning{
			StoreFileContent: true, ChunkSizeTokens: 64, ChunkOverlapTokens: 8,
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new file\n"), 0o644))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		summary, _ := w.LastResult()
		if summary != nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	summary, ingestErr := w.LastResult()
	require.NoError(t, ingestErr)
	require.NotNil(t, summary)

	st, err := store.Open(context.Background(), filepath.Join(dir, ".mcp-index.sqlite"))
	require.NoError(t, err)
	defer st.Close()

	f, err := store.GetFile(context.Background(), st.DB(), "new.txt")
	require.NoError(t, err)
	assert.NotNil(t, f)
}
