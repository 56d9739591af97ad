package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupRepo creates a repository with one commit on "main" and returns
// its symlink-free path.
func setupRepo(t *testing.T) string {
	t.Helper()
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	repo := filepath.Join(tmp, "repo")
	require.NoError(t, os.Mkdir(repo, 0o755))

	git(t, repo, "init", "--quiet")
	git(t, repo, "symbolic-ref", "HEAD", "refs/heads/main")
	git(t, repo, "config", "user.name", "Test")
	git(t, repo, "config", "user.email", "test@example.com")
	git(t, repo, "config", "commit.gpgsign", "false")
	commit(t, repo, "README.md", "hello\n", "initial")
	return repo
}

// git runs git in dir and fails the test on error.
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

func commit(t *testing.T, dir, file, content, msg string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	git(t, dir, "add", file)
	git(t, dir, "commit", "--quiet", "-m", msg)
}

// worktreeDir is the default worktree directory of repo.
func worktreeDir(repo string) string {
	return repo + "-worktrees"
}

// cmdResult captures one command execution.
type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// run executes wtm with args against repo, feeding stdin.
func run(t *testing.T, repo, stdin string, args ...string) cmdResult {
	t.Helper()
	var stdout, stderr bytes.Buffer

	root := NewRootCommand()
	root.SetArgs(append([]string{"-C", repo}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// resetGlobals restores the persistent flag variables after a test that
// sets them directly.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		jsonOutput = false
		outputFormat = formatText
		verbose = false
		configFile = ""
		repoDir = ""
	})
}
