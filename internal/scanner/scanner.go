// Package scanner walks a workspace and produces the candidate file set
// for ingestion: hashed, binary-classified, optionally content-bearing
// records, plus a record of anything skipped and why.
package scanner

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
	"github.com/codeindex-mcp/codeindex/internal/globs"
)

// binaryProbeBytes is how much of a file's head is scanned for a zero
// byte when classifying it as binary.
const binaryProbeBytes = 1024

// SkipReason identifies why a candidate path did not produce a File.
type SkipReason string

const (
	ReasonMaxFileSize       SkipReason = "max_file_size"
	ReasonReadError         SkipReason = "read_error"
	ReasonTargetPathMissing SkipReason = "target_path_missing"
	ReasonWalkError         SkipReason = "walk_error"
)

// SkippedFile records a path that was considered but not included.
type SkippedFile struct {
	Path    string
	Reason  SkipReason
	Message string
}

// File is one scanned, hashed candidate.
type File struct {
	Path       string // workspace-relative, forward slashes
	Size       int64
	ModifiedMS int64
	Hash       string // SHA-256, hex
	IsBinary   bool
	Content    string // lossy UTF-8 text; empty unless textual and StoreContent
}

// Options controls one Scan call.
type Options struct {
	// MaxFileSizeBytes, if positive, caps the size of files read.
	MaxFileSizeBytes int64
	// Workers bounds file-processing concurrency; 0 means runtime.NumCPU().
	Workers int
	// StoreContent requests that textual file content be retained on File.
	StoreContent bool
	// TargetPaths, if non-empty, restricts the scan to these
	// workspace-relative files or directories (targeted mode). Empty
	// means a full scan of the resolver's root.
	TargetPaths []string
}

// Result is the sorted-by-path output of a Scan.
type Result struct {
	Files   []File
	Skipped []SkippedFile
}

// Scanner walks a workspace through a Resolver's include/exclude/gitignore
// rules.
type Scanner struct {
	resolver *globs.Resolver
}

// New returns a Scanner bound to resolver's root and matching rules.
func New(resolver *globs.Resolver) *Scanner {
	return &Scanner{resolver: resolver}
}

// Scan discovers, hashes and classifies the candidate file set. Candidate
// discovery runs on the calling goroutine; per-file processing (stat,
// read, hash, binary detection) fans out across Options.Workers.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var candidates []string
	var skipped []SkippedFile
	var err error
	if len(opts.TargetPaths) > 0 {
		candidates, skipped, err = s.walkTargeted(opts.TargetPaths)
	} else {
		candidates, skipped, err = s.walkTree(s.resolver.Root())
	}
	if err != nil {
		return nil, err
	}

	type outcome struct {
		file    *File
		skipped *SkippedFile
	}
	outcomes := make([]outcome, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range candidates {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			f, sk := s.processFile(rel, opts)
			outcomes[i] = outcome{file: f, skipped: sk}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, codeerrors.Cancelled(err)
	}

	files := make([]File, 0, len(outcomes))
	for _, o := range outcomes {
		switch {
		case o.skipped != nil:
			skipped = append(skipped, *o.skipped)
		case o.file != nil:
			files = append(files, *o.file)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return &Result{Files: files, Skipped: skipped}, nil
}

// walkTargeted resolves each caller-supplied path against the workspace
// root: files are checked directly, directories are walked, and anything
// missing is recorded with ReasonTargetPathMissing.
func (s *Scanner) walkTargeted(targets []string) ([]string, []SkippedFile, error) {
	root := s.resolver.Root()
	var candidates []string
	var skipped []SkippedFile

	for _, t := range targets {
		rel := filepath.ToSlash(filepath.Clean(t))
		abs := filepath.Join(root, filepath.FromSlash(rel))

		info, err := os.Lstat(abs)
		if err != nil {
			skipped = append(skipped, SkippedFile{Path: rel, Reason: ReasonTargetPathMissing, Message: err.Error()})
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			skipped = append(skipped, SkippedFile{Path: rel, Reason: ReasonTargetPathMissing, Message: "symlinks are not followed"})
			continue
		}

		if info.IsDir() {
			subCandidates, subSkipped, err := s.walkTree(abs)
			if err != nil {
				return nil, nil, err
			}
			candidates = append(candidates, subCandidates...)
			skipped = append(skipped, subSkipped...)
			continue
		}

		ok, err := s.resolver.Match(rel, false)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			candidates = append(candidates, rel)
		}
	}
	return candidates, skipped, nil
}

// walkTree walks the subtree rooted at start (an absolute path under the
// resolver's root), returning workspace-relative candidate paths. It never
// follows symbolic links and consults the resolver for directory pruning
// and file eligibility.
func (s *Scanner) walkTree(start string) ([]string, []SkippedFile, error) {
	root := s.resolver.Root()
	var candidates []string
	var skipped []SkippedFile

	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			rel, _ := filepath.Rel(root, path)
			skipped = append(skipped, SkippedFile{Path: filepath.ToSlash(rel), Reason: ReasonWalkError, Message: walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			ok, matchErr := s.resolver.Match(rel, true)
			if matchErr != nil {
				return matchErr
			}
			if !ok {
				return filepath.SkipDir
			}
			return nil
		}

		ok, matchErr := s.resolver.Match(rel, false)
		if matchErr != nil {
			return matchErr
		}
		if ok {
			candidates = append(candidates, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return candidates, skipped, nil
}

// processFile stats, reads, hashes and classifies one candidate. It never
// returns an error: failures become a SkippedFile so one bad file cannot
// abort the scan.
func (s *Scanner) processFile(rel string, opts Options) (*File, *SkippedFile) {
	abs := filepath.Join(s.resolver.Root(), filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &SkippedFile{Path: rel, Reason: ReasonReadError, Message: err.Error()}
	}
	if opts.MaxFileSizeBytes > 0 && info.Size() > opts.MaxFileSizeBytes {
		return nil, &SkippedFile{
			Path:    rel,
			Reason:  ReasonMaxFileSize,
			Message: fmt.Sprintf("%d bytes exceeds max_file_size_bytes=%d", info.Size(), opts.MaxFileSizeBytes),
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SkippedFile{Path: rel, Reason: ReasonReadError, Message: err.Error()}
	}

	sum := sha256.Sum256(data)
	probe := data
	if len(probe) > binaryProbeBytes {
		probe = probe[:binaryProbeBytes]
	}
	isBinary := bytes.IndexByte(probe, 0) >= 0

	f := &File{
		Path:       rel,
		Size:       info.Size(),
		ModifiedMS: info.ModTime().UnixMilli(),
		Hash:       hex.EncodeToString(sum[:]),
		IsBinary:   isBinary,
	}
	if !isBinary && opts.StoreContent {
		f.Content = strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	return f, nil
}
