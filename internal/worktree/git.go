package worktree

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/shinji-kodama/wtm/internal/model"
)

// Runner abstracts git invocation for testability.
// Run executes `git -C dir args...` and returns stdout on success.
// Failures are reported as *model.GitError.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner executes the git binary using os/exec.
type ExecRunner struct {
	// Binary is the git executable. Empty means "git" from PATH.
	Binary string
}

// NewExecRunner creates a Runner backed by the git binary on PATH.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a git command with the given arguments in the specified directory.
//
// It captures stdout and stderr separately. On failure the stderr output is
// kept verbatim in the returned *model.GitError so callers can surface
// git's own message (lock contention, permissions, "not fully merged").
//
// The dir parameter is passed to git via the -C flag, which causes git to
// change to that directory before doing anything else. This avoids changing
// the process's working directory, which would race between concurrent
// batch workers.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}
	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 — args are constructed internally, branch names are validated
	cmd := exec.CommandContext(ctx, bin, fullArgs...)
	// Messages are matched by text ("not fully merged"), so pin them to
	// English whatever the user's locale.
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANGUAGE=C")

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &model.GitError{
			Args:   append([]string(nil), args...),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}
