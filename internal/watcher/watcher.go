// Package watcher debounces filesystem events under a workspace root and
// triggers scoped re-ingests without letting two ingest runs overlap. It is
// grounded on the teacher's internal/watcher/hybrid.go (fsnotify-primary
// structure, recursive directory add, event buffering) and
// internal/watcher/debouncer.go (the coalescing rules), generalized to the
// ingest_in_progress / rerun-requested exact contract of spec.md §4.10.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codeindex-mcp/codeindex/internal/globs"
	"github.com/codeindex-mcp/codeindex/internal/ingest"
)

// Watcher watches one workspace root, debounces the filesystem events it
// sees, and invokes an ingest.Coordinator in targeted mode whenever the
// debounce timer fires.
type Watcher struct {
	opts        Options
	root        string
	resolver    *globs.Resolver
	fsw         *fsnotify.Watcher
	debouncer   *Debouncer
	coordinator *ingest.Coordinator

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu             sync.Mutex
	ingesting      bool
	rerunRequested bool
	pendingTargets map[string]struct{}

	lastSummary *ingest.Summary
	lastErr     error
}

// New creates a Watcher over opts.Root, ready for Start. The coordinator
// supplied runs every triggered ingest, sharing its embedder pool with
// whatever other component (CLI, MCP facade) also calls it directly.
func New(coordinator *ingest.Coordinator, opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	resolver, err := globs.New(opts.Root, opts.Include, opts.Exclude, opts.DatabaseName)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		opts:           opts,
		root:           resolver.Root(),
		resolver:       resolver,
		fsw:            fsw,
		debouncer:      NewDebouncer(opts.DebounceWindow),
		coordinator:    coordinator,
		stopCh:         make(chan struct{}),
		pendingTargets: make(map[string]struct{}),
	}, nil
}

// Start begins watching in the background. If opts.InitialFullIngest is
// set, it runs one untargeted ingest synchronously before watching begins.
func (w *Watcher) Start(ctx context.Context) error {
	if w.opts.InitialFullIngest {
		if _, err := w.coordinator.Ingest(ctx, w.baseIngestOptions()); err != nil {
			return err
		}
	}

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.runEventLoop(ctx)
	go w.runDispatchLoop(ctx)
	return nil
}

// Stop aborts the debounce timer and blocks until any in-flight ingest
// completes.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopCh:
		return nil // already stopped
	default:
		close(w.stopCh)
	}
	w.debouncer.Stop()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) baseIngestOptions() ingest.Options {
	t := w.opts.IngestOptions
	return ingest.Options{
		Root:                 w.opts.Root,
		Include:              w.opts.Include,
		Exclude:              w.opts.Exclude,
		DatabaseName:         w.opts.DatabaseName,
		MaxFileSizeBytes:     t.MaxFileSizeBytes,
		StoreFileContent:     t.StoreFileContent,
		AutoEvict:            t.AutoEvict,
		MaxDatabaseSizeBytes: t.MaxDatabaseSizeBytes,
		EmbeddingEnabled:     t.EmbeddingEnabled,
		EmbeddingModel:       t.EmbeddingModel,
		BatchSize:            t.BatchSize,
		ChunkSizeTokens:      t.ChunkSizeTokens,
		ChunkOverlapTokens:   t.ChunkOverlapTokens,
		Workers:              t.Workers,
	}
}

// runEventLoop reads raw fsnotify events, filters and normalizes them, and
// feeds the result to the debouncer.
func (w *Watcher) runEventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFsnotifyEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.lastErr = err
			w.mu.Unlock()
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleFsnotifyEvent(ev fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." || relPath == "" {
		return
	}

	isDir := false
	if info, statErr := os.Stat(ev.Name); statErr == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			_ = w.addRecursive(ev.Name)
		}
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		op = OpDelete
	default:
		return // Chmod and anything else is not index-relevant
	}

	ok, err := w.resolver.Match(relPath, isDir)
	if err != nil || !ok {
		return
	}

	w.debouncer.Add(FileEvent{Path: relPath, Operation: op, IsDir: isDir, Timestamp: time.Now()})
}

// runDispatchLoop drains debounced batches and drives the
// ingest_in_progress / rerun-requested contract: a batch that arrives while
// an ingest is running is merged into the pending target set rather than
// starting a concurrent run, and the moment the in-flight run finishes it
// immediately re-ingests the merged set with zero additional delay.
func (w *Watcher) runDispatchLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.dispatch(ctx, batch)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, batch []FileEvent) {
	targets := targetsOf(batch)

	w.mu.Lock()
	if w.ingesting {
		for t := range targets {
			w.pendingTargets[t] = struct{}{}
		}
		w.rerunRequested = true
		w.mu.Unlock()
		return
	}
	w.ingesting = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.runIngestLoop(ctx, targets)
}

func (w *Watcher) runIngestLoop(ctx context.Context, targets map[string]struct{}) {
	defer w.wg.Done()
	for {
		opts := w.baseIngestOptions()
		opts.Paths = targetSlice(targets)

		summary, err := w.coordinator.Ingest(ctx, opts)

		w.mu.Lock()
		w.lastSummary = summary
		w.lastErr = err
		if w.rerunRequested {
			targets = w.pendingTargets
			w.pendingTargets = make(map[string]struct{})
			w.rerunRequested = false
			w.mu.Unlock()
			continue
		}
		w.ingesting = false
		w.mu.Unlock()
		return
	}
}

// LastResult returns the most recently completed ingest's outcome, for
// status reporting.
func (w *Watcher) LastResult() (*ingest.Summary, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSummary, w.lastErr
}

func targetsOf(batch []FileEvent) map[string]struct{} {
	out := make(map[string]struct{}, len(batch))
	for _, ev := range batch {
		out[ev.Path] = struct{}{}
	}
	return out
}

func targetSlice(targets map[string]struct{}) []string {
	out := make([]string, 0, len(targets))
	for t := range targets {
		out = append(out, t)
	}
	return out
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		relPath, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)
		if relPath != "." {
			if ok, matchErr := w.resolver.Match(relPath, true); matchErr != nil || !ok {
				return fs.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			return nil
		}
		return nil
	})
}
