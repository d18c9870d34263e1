package depcache

import (
	"context"
	"os/exec"
	"strings"
)

// VCSAdapter supplies the branch tag every indexed row is partitioned by.
type VCSAdapter interface {
	CurrentBranch(ctx context.Context) (string, error)
}

// GitVCSAdapter shells out to git, using the same subprocess invocation
// style as the Engine's git ls-files discovery (gitListFiles).
type GitVCSAdapter struct {
	RepoDir string
}

// UnversionedBranch is used when the workspace is not inside a git repo.
const UnversionedBranch = "unversioned"

// CurrentBranch runs `git branch --show-current`, falling back to
// UnversionedBranch on any failure (not a repo, detached HEAD with no name,
// git not installed).
func (g *GitVCSAdapter) CurrentBranch(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "branch", "--show-current")
	cmd.Dir = g.RepoDir
	out, err := cmd.Output()
	if err != nil {
		return UnversionedBranch, nil
	}
	branch := strings.TrimSpace(string(out))
	if branch == "" {
		return UnversionedBranch, nil
	}
	return branch, nil
}
