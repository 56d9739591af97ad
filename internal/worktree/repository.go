package worktree

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shinji-kodama/wtm/internal/model"
)

// lastCommitSep separates fields in the `git log` format used by
// GetLastCommit. The unit separator never appears in commit subjects.
const lastCommitSep = "\x1f"

// Repository is the boundary to the git binary for one repository.
//
// It holds no cache: every query re-derives its answer from git's current
// output, so results cannot be stale within one call but can be stale
// across calls. Callers re-query after a mutation.
type Repository struct {
	root string
	git  Runner
}

// NewRepository creates a Repository rooted at the main worktree path.
// A nil runner selects the git binary on PATH.
func NewRepository(root string, runner Runner) *Repository {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Repository{root: root, git: runner}
}

// Root returns the main worktree path all git commands run against.
func (r *Repository) Root() string {
	return r.root
}

// Runner returns the runner used for git invocations.
func (r *Repository) Runner() Runner {
	return r.git
}

// DiscoverRoot returns the main worktree path of the repository containing
// dir. It works from the main worktree, from any linked worktree and from
// subdirectories of either, because git lists the main worktree first
// regardless of where the command runs.
func DiscoverRoot(ctx context.Context, runner Runner, dir string) (string, error) {
	if runner == nil {
		runner = NewExecRunner()
	}
	out, err := runner.Run(ctx, dir, "worktree", "list", "--porcelain")
	if err != nil {
		return "", err
	}
	records := ParsePorcelain(out)
	if len(records) == 0 {
		return "", fmt.Errorf("no worktrees reported for %s", dir)
	}
	return records[0].Path, nil
}

// List returns every worktree registered with the repository, main first.
//
// Invocation failures (not a repository, git missing) are returned as-is;
// parsing itself never fails.
func (r *Repository) List(ctx context.Context) ([]model.WorktreeRecord, error) {
	out, err := r.git.Run(ctx, r.root, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return ParsePorcelain(out), nil
}

// MainWorktree returns the record of the repository's main working
// directory, which git always lists first.
func (r *Repository) MainWorktree(ctx context.Context) (model.WorktreeRecord, error) {
	records, err := r.List(ctx)
	if err != nil {
		return model.WorktreeRecord{}, err
	}
	if len(records) == 0 {
		return model.WorktreeRecord{}, fmt.Errorf("%w: no main worktree reported", model.ErrWorktreeNotFound)
	}
	return records[0], nil
}

// FindByBranch returns the worktree whose stripped branch equals branch.
// The second return value reports whether the record is the main worktree.
func (r *Repository) FindByBranch(ctx context.Context, branch string) (model.WorktreeRecord, bool, error) {
	records, err := r.List(ctx)
	if err != nil {
		return model.WorktreeRecord{}, false, err
	}
	for i, rec := range records {
		if rec.Branch != "" && rec.ShortBranch() == branch {
			return rec, i == 0, nil
		}
	}
	return model.WorktreeRecord{}, false, fmt.Errorf("%w: no worktree for branch %q", model.ErrWorktreeNotFound, branch)
}

// GetLastCommit returns date, subject and short hash of the HEAD commit of
// the worktree at path, or nil if that information is unavailable for any
// reason (missing directory, unborn branch, git failure). It never errors.
func (r *Repository) GetLastCommit(ctx context.Context, path string) *model.LastCommit {
	out, err := r.git.Run(ctx, path, "log", "-1", "--format=%cI"+lastCommitSep+"%h"+lastCommitSep+"%s")
	if err != nil {
		return nil
	}
	return parseLastCommit(out)
}

func parseLastCommit(out string) *model.LastCommit {
	fields := strings.SplitN(strings.TrimRight(out, "\r\n"), lastCommitSep, 3)
	if len(fields) != 3 || fields[1] == "" {
		return nil
	}
	date, err := time.Parse(time.RFC3339, fields[0])
	if err != nil {
		return nil
	}
	return &model.LastCommit{Date: date, ShortHash: fields[1], Message: fields[2]}
}

// LocalBranches returns the names of all local branches.
func (r *Repository) LocalBranches(ctx context.Context) ([]string, error) {
	out, err := r.git.Run(ctx, r.root, "for-each-ref", "--format=%(refname)", "refs/heads")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ref := range splitLines(out) {
		names = append(names, strings.TrimPrefix(ref, "refs/heads/"))
	}
	return names, nil
}

// RemoteBranches returns remote-tracking branch names with the remote
// prefix stripped ("refs/remotes/origin/feature/x" → "feature/x").
// Symbolic HEAD refs are skipped.
func (r *Repository) RemoteBranches(ctx context.Context) ([]string, error) {
	out, err := r.git.Run(ctx, r.root, "for-each-ref", "--format=%(refname)", "refs/remotes")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ref := range splitLines(out) {
		rest := strings.TrimPrefix(ref, "refs/remotes/")
		_, name, ok := strings.Cut(rest, "/")
		if !ok || name == "" || name == "HEAD" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Namespace returns the union of local and remote-tracking branch names.
func (r *Repository) Namespace(ctx context.Context) (Namespace, error) {
	local, err := r.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := r.RemoteBranches(ctx)
	if err != nil {
		return nil, err
	}
	return NewNamespace(append(local, remote...)...), nil
}

// CurrentBranch returns the short name of the branch checked out at path,
// or "HEAD" when detached.
func (r *Repository) CurrentBranch(ctx context.Context, path string) (string, error) {
	out, err := r.git.Run(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AddWithNewBranch runs `git worktree add -b <branch> <path> <base>`.
func (r *Repository) AddWithNewBranch(ctx context.Context, branch, path, base string) error {
	_, err := r.git.Run(ctx, r.root, "worktree", "add", "-b", branch, path, base)
	return err
}

// AddExisting runs `git worktree add <path> <branch>` for a branch that
// already exists locally or as a remote-tracking branch.
func (r *Repository) AddExisting(ctx context.Context, path, branch string) error {
	_, err := r.git.Run(ctx, r.root, "worktree", "add", path, branch)
	return err
}

// RemoveWorktree runs `git worktree remove`.
//
// Without force git refuses dirty or locked worktrees. With force, a dirty
// worktree needs one --force and a locked one needs it twice; the second
// flag is only added when the record is known to be locked so that force
// never silently overrides a lock the caller did not see.
func (r *Repository) RemoveWorktree(ctx context.Context, path string, force, locked bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
		if locked {
			args = append(args, "--force")
		}
	}
	args = append(args, path)
	_, err := r.git.Run(ctx, r.root, args...)
	return err
}

// DeleteBranch deletes a local branch with -d, or -D when force is set.
func (r *Repository) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.git.Run(ctx, r.root, "branch", flag, branch)
	return err
}

// IsDirty reports whether the worktree at path has staged, unstaged or
// untracked changes.
func (r *Repository) IsDirty(ctx context.Context, path string) (bool, error) {
	out, err := r.git.Run(ctx, path, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// IsNotFullyMerged reports whether err is git's refusal to soft-delete a
// branch with unmerged commits.
func IsNotFullyMerged(err error) bool {
	var gitErr *model.GitError
	if !errors.As(err, &gitErr) {
		return false
	}
	return strings.Contains(strings.ToLower(gitErr.Stderr), "not fully merged")
}

// splitLines returns the non-empty trimmed lines of s, sorted and unique.
func splitLines(s string) []string {
	seen := make(map[string]struct{})
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		lines = append(lines, l)
	}
	sort.Strings(lines)
	return lines
}
