// Package gitmeta reads the workspace's git HEAD for ingest staleness
// tracking and opportunistic timeline persistence. It is a thin,
// best-effort wrapper: a root with no git metadata is never an ingest
// failure, only a skipped meta.commit_sha write.
package gitmeta

import (
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// HeadInfo describes the workspace's current HEAD commit.
type HeadInfo struct {
	CommitSHA string
	Branch    string
	Message   string
	AuthorMS  int64
}

// open opens root as a git repository, searching parent directories the
// way `git` itself does (so a root deep inside a worktree still resolves).
func open(root string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// Head returns the workspace's current HEAD commit, or ok=false if root is
// not inside a git repository (or HEAD is unborn).
func Head(root string) (HeadInfo, bool) {
	repo, err := open(root)
	if err != nil {
		return HeadInfo{}, false
	}
	ref, err := repo.Head()
	if err != nil {
		return HeadInfo{}, false
	}
	info := HeadInfo{CommitSHA: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}
	if commit, err := repo.CommitObject(ref.Hash()); err == nil {
		info.Message = commit.Message
		info.AuthorMS = commit.Author.When.UnixMilli()
	}
	return info, true
}

// NotAGitRepository returns the taxonomy error for timeline operations
// invoked against a root without discoverable git metadata.
func NotAGitRepository(root string) error {
	return codeerrors.NotAGitRepository(root)
}

// CommitSummary is the JSON shape persisted as a timeline entry's payload.
type CommitSummary struct {
	SHA       string `json:"sha"`
	Branch    string `json:"branch,omitempty"`
	Message   string `json:"message"`
	AuthorMS  int64  `json:"author_time_ms"`
	CapturedAtMS int64 `json:"captured_at_ms"`
}

// Snapshot builds a CommitSummary for the workspace's current HEAD,
// ok=false when root has no git metadata.
func Snapshot(root string) (CommitSummary, bool) {
	head, ok := Head(root)
	if !ok {
		return CommitSummary{}, false
	}
	return CommitSummary{
		SHA:          head.CommitSHA,
		Branch:       head.Branch,
		Message:      head.Message,
		AuthorMS:     head.AuthorMS,
		CapturedAtMS: time.Now().UnixMilli(),
	}, true
}

// CommitByHash resolves one commit object by its full 40-character hex
// SHA; abbreviated SHAs are not resolved and yield a NotFound error.
func CommitByHash(root, sha string) (*object.Commit, error) {
	repo, err := open(root)
	if err != nil {
		return nil, NotAGitRepository(root)
	}
	hash := plumbing.NewHash(sha)
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, codeerrors.NotFound(sha)
	}
	return commit, nil
}
