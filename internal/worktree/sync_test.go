package worktree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/wtm/internal/model"
)

// syncTarget creates a worktree for branch and returns its record.
func syncTarget(t *testing.T, lc *Lifecycle, branch string) model.WorktreeRecord {
	t.Helper()
	ctx := context.Background()

	_, err := lc.Create(ctx, CreateOptions{Branch: branch})
	require.NoError(t, err)
	rec, _, err := lc.Repository().FindByBranch(ctx, branch)
	require.NoError(t, err)
	return rec
}

func TestSyncUpToDate(t *testing.T) {
	lc := newTestLifecycle(t, setupTestRepo(t))
	rec := syncTarget(t, lc, "fresh")

	status, reason, err := lc.Sync(context.Background(), rec, "main")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUpToDate, status)
	assert.Contains(t, reason, "main")
}

func TestSyncMergesBase(t *testing.T) {
	repoPath := setupTestRepo(t)
	lc := newTestLifecycle(t, repoPath)
	rec := syncTarget(t, lc, "behind")

	commitFile(t, repoPath, "upstream.txt", "new", "upstream change")
	commitFile(t, repoPath, "upstream2.txt", "new", "another upstream change")

	status, reason, err := lc.Sync(context.Background(), rec, "main")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, status)
	assert.Contains(t, reason, "2 commit(s)")
	assert.FileExists(t, filepath.Join(rec.Path, "upstream.txt"))
}

// TestSyncConflictIsAborted verifies that a conflicting merge is rolled
// back and reported with git's own output.
func TestSyncConflictIsAborted(t *testing.T) {
	ctx := context.Background()
	repoPath := setupTestRepo(t)
	lc := newTestLifecycle(t, repoPath)
	rec := syncTarget(t, lc, "diverged")

	commitFile(t, rec.Path, "README.md", "branch side\n", "branch edit")
	commitFile(t, repoPath, "README.md", "main side\n", "main edit")

	status, reason, err := lc.Sync(ctx, rec, "main")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, status)
	assert.NotEmpty(t, reason)

	dirty, err := lc.Repository().IsDirty(ctx, rec.Path)
	require.NoError(t, err)
	assert.False(t, dirty, "aborted merge must leave the worktree clean")

	content, err := os.ReadFile(filepath.Join(rec.Path, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "branch side\n", string(content))
}

func TestSyncSkipsDirtyWorktree(t *testing.T) {
	repoPath := setupTestRepo(t)
	lc := newTestLifecycle(t, repoPath)
	rec := syncTarget(t, lc, "busy")
	commitFile(t, repoPath, "upstream.txt", "new", "upstream change")
	require.NoError(t, os.WriteFile(filepath.Join(rec.Path, "local.txt"), []byte("x"), 0o644))

	status, reason, err := lc.Sync(context.Background(), rec, "main")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSkipped, status)
	assert.Equal(t, "uncommitted changes", reason)
}

func TestSyncSkipReasons(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "repo")
	tests := []struct {
		name string
		rec  model.WorktreeRecord
		want string
	}{
		{name: "main worktree", rec: model.WorktreeRecord{Path: root, Branch: "refs/heads/main"}, want: "main worktree"},
		{name: "bare", rec: model.WorktreeRecord{Path: "/bare", Bare: true}, want: "bare repository"},
		{name: "detached", rec: model.WorktreeRecord{Path: "/wt", Detached: true}, want: "detached HEAD"},
		{name: "prunable", rec: model.WorktreeRecord{Path: "/wt", Branch: "refs/heads/x", Prunable: true, PrunableReason: "gone"}, want: "prunable: gone"},
		{name: "eligible", rec: model.WorktreeRecord{Path: "/wt", Branch: "refs/heads/x"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, syncSkipReason(tt.rec, root))
		})
	}
}

func TestSyncUnknownBase(t *testing.T) {
	lc := newTestLifecycle(t, setupTestRepo(t))
	rec := syncTarget(t, lc, "topic")

	status, _, err := lc.Sync(context.Background(), rec, "no-such-branch")
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, status)
}
