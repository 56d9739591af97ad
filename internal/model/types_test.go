package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWorktreeRecord_ShortBranch verifies that the refs/heads/ prefix is
// stripped and that detached worktrees yield an empty branch.
func TestWorktreeRecord_ShortBranch(t *testing.T) {
	tests := []struct {
		branch   string
		expected string
	}{
		{"refs/heads/main", "main"},
		{"refs/heads/feature/auth", "feature/auth"},
		{"", ""},
		{"feature/auth", "feature/auth"}, // already short
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			r := WorktreeRecord{Branch: tt.branch}
			assert.Equal(t, tt.expected, r.ShortBranch())
		})
	}
}

// TestParseCollisionDecision verifies prompt answers map to decisions,
// including case normalization and error cases.
func TestParseCollisionDecision(t *testing.T) {
	tests := []struct {
		input    string
		expected CollisionDecision
		hasError bool
	}{
		{"d", DecisionDeleteExisting, false},
		{"Delete", DecisionDeleteExisting, false},
		{"delete-existing", DecisionDeleteExisting, false},
		{"r", DecisionRename, false},
		{" RENAME ", DecisionRename, false},
		{"rename-with-suffix", DecisionRename, false},
		{"c", DecisionCancel, false},
		{"cancel", DecisionCancel, false},
		{" CANCEL ", DecisionCancel, false},
		{"", "", true},
		{"yes", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseCollisionDecision(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
				assert.True(t, result.IsValid())
			}
		})
	}
}

func TestBatchStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusSuccess.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusSkipped.IsTerminal())
	assert.True(t, StatusUpToDate.IsTerminal())
	assert.False(t, BatchStatus("unknown").IsTerminal())
}

// TestBatchReport_Tally verifies counters are derived from item statuses
// and that Summary only mentions skipped/up-to-date when present.
func TestBatchReport_Tally(t *testing.T) {
	r := &BatchReport{
		Operation: "create",
		Items: []BatchItem{
			{Name: "a", Status: StatusSuccess},
			{Name: "b", Status: StatusFailed, Reason: "boom"},
			{Name: "c", Status: StatusSuccess},
		},
	}
	r.Tally()

	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 1, r.Failed)
	assert.True(t, r.HasFailures())
	assert.Equal(t, "create: 2 succeeded, 1 failed", r.Summary())

	sync := &BatchReport{
		Operation: "sync",
		Items: []BatchItem{
			{Name: "a", Status: StatusSkipped},
			{Name: "b", Status: StatusUpToDate},
			{Name: "c", Status: StatusUpToDate},
		},
	}
	sync.Tally()
	assert.False(t, sync.HasFailures())
	assert.Equal(t, "sync: 0 succeeded, 0 failed, 1 skipped, 2 up-to-date", sync.Summary())
}

func TestNewBatchItems(t *testing.T) {
	items := NewBatchItems([]string{"x", "y"}, "develop")
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, StatusPending, it.Status)
		assert.Equal(t, "develop", it.Base)
	}
	assert.Equal(t, "x", items[0].Name)
	assert.Equal(t, "y", items[1].Name)
}

// TestNameCollisionError verifies example truncation and message wording
// for each collision kind.
func TestNameCollisionError(t *testing.T) {
	t.Run("exact", func(t *testing.T) {
		err := NewNameCollisionError("main", CollisionExact, []string{"main"})
		assert.Equal(t, `branch "main" already exists`, err.Error())
		assert.True(t, errors.Is(err, ErrNameCollision))
	})

	t.Run("forward truncated to three examples", func(t *testing.T) {
		err := NewNameCollisionError("feature", CollisionForward,
			[]string{"feature/a", "feature/b", "feature/c", "feature/d", "feature/e"})
		assert.Equal(t, []string{"feature/a", "feature/b", "feature/c"}, err.Conflicts)
		assert.Equal(t, 2, err.Remaining)
		assert.Contains(t, err.Error(), `"feature/a", "feature/b", "feature/c" and 2 more`)
	})

	t.Run("backward", func(t *testing.T) {
		err := NewNameCollisionError("feature/x/y", CollisionBackward, []string{"feature/x"})
		assert.Equal(t, 0, err.Remaining)
		assert.Contains(t, err.Error(), `would nest under existing branch "feature/x"`)
	})

	t.Run("wrapped still matches", func(t *testing.T) {
		err := fmt.Errorf("create: %w", NewNameCollisionError("a", CollisionExact, []string{"a"}))
		var nc *NameCollisionError
		require.True(t, errors.As(err, &nc))
		assert.Equal(t, CollisionExact, nc.Kind)
	})
}

func TestGitError(t *testing.T) {
	inner := errors.New("exit status 128")
	err := &GitError{Args: []string{"worktree", "add", "/tmp/x"}, Stderr: "fatal: '/tmp/x' already exists", Err: inner}
	assert.Equal(t, "git worktree add /tmp/x failed: fatal: '/tmp/x' already exists", err.Error())
	assert.True(t, errors.Is(err, inner))

	noStderr := &GitError{Args: []string{"status"}, Err: inner}
	assert.Equal(t, "git status failed: exit status 128", noStderr.Error())
}

// TestExitCodeFor verifies the mapping from the error taxonomy to exit codes.
func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ExitCode
	}{
		{"nil", nil, ExitSuccess},
		{"collision", NewNameCollisionError("a", CollisionExact, []string{"a"}), ExitNameCollision},
		{"cancelled", fmt.Errorf("create x: %w", ErrUserCancelled), ExitUserCancelled},
		{"not found", fmt.Errorf("%w: x", ErrWorktreeNotFound), ExitWorktreeNotFound},
		{"git", &GitError{Args: []string{"status"}}, ExitGitError},
		{"cli error keeps code", WrapCLIError(ExitConfigError, "bad config", ErrWorktreeNotFound), ExitConfigError},
		{"other", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCodeFor(tt.err))
		})
	}
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitPartialFailure, "2 of 5 items failed")
		assert.Equal(t, ExitPartialFailure, err.Code)
		assert.Equal(t, "2 of 5 items failed", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("exit status 128")
		err := WrapCLIError(ExitGitError, "failed to list worktrees", inner)
		assert.Equal(t, ExitGitError, err.Code)
		assert.Contains(t, err.Error(), "exit status 128")
		assert.Equal(t, inner, err.Unwrap())
		assert.True(t, errors.Is(err, inner))
	})
}
