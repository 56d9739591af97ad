package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/wtm/internal/model"
)

// setupTestRepo creates a temporary directory with an initialized Git repository
// containing a single commit on branch "main". Most git worktree commands
// require at least one commit to exist, because a worktree needs a branch and
// a branch needs a commit to point to.
//
// A local user.name and user.email are configured so that `git commit` works
// in CI environments where global git config may not be set. The returned
// path is symlink-resolved so it compares equal to the paths git reports.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	parent, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	dir := filepath.Join(parent, "repo")
	require.NoError(t, os.Mkdir(dir, 0o755))

	runTestGit(t, dir, "init")
	runTestGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")
	runTestGit(t, dir, "config", "commit.gpgsign", "false")

	commitFile(t, dir, "README.md", "# Test Repo\n", "initial commit")
	return dir
}

// commitFile writes name in dir and commits it.
func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	runTestGit(t, dir, "add", name)
	runTestGit(t, dir, "commit", "-m", message)
}

// runTestGit is a test helper that runs a git command in the specified directory
// and fails the test immediately if the command exits with a non-zero status.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// branchExists reports whether a local branch exists in repo.
func branchExists(t *testing.T, repo, branch string) bool {
	t.Helper()
	cmd := exec.Command("git", "-C", repo, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return cmd.Run() == nil
}

// newTestLifecycle wires a Lifecycle to a real repository with worktrees
// placed in a sibling "<repo>-worktrees" directory.
func newTestLifecycle(t *testing.T, repo string, opts ...Option) *Lifecycle {
	t.Helper()
	layout, err := NewLayout(repo, "", "")
	require.NoError(t, err)
	return NewLifecycle(NewRepository(repo, nil), layout, opts...)
}

// fakeRunner answers git invocations from a table keyed by the joined
// arguments. Unknown invocations fail like git would.
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

type fakeResponse struct {
	out    string
	stderr string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]fakeResponse)}
}

// on registers stdout for an invocation.
func (f *fakeRunner) on(out string, args ...string) *fakeRunner {
	f.responses[strings.Join(args, " ")] = fakeResponse{out: out}
	return f
}

// fail registers a failure with the given stderr for an invocation.
func (f *fakeRunner) fail(stderr string, args ...string) *fakeRunner {
	f.responses[strings.Join(args, " ")] = fakeResponse{stderr: stderr}
	return f
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")

	f.mu.Lock()
	f.calls = append(f.calls, key)
	resp, ok := f.responses[key]
	f.mu.Unlock()

	if !ok {
		return "", &model.GitError{Args: args, Stderr: "fatal: unexpected invocation"}
	}
	if resp.stderr != "" {
		return "", &model.GitError{Args: args, Stderr: resp.stderr}
	}
	return resp.out, nil
}

// called returns the recorded invocations.
func (f *fakeRunner) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
