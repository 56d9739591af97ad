package cli

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/wtm/internal/model"
	"github.com/shinji-kodama/wtm/internal/worktree"
)

var conflict = worktree.DirectoryConflict{
	Branch:      "feat",
	Path:        "/src/app-worktrees/feat",
	Alternative: "feat-1",
}

func TestPromptDecision(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.CollisionDecision
	}{
		{name: "delete", input: "d\n", want: model.DecisionDeleteExisting},
		{name: "rename long form", input: "Rename\n", want: model.DecisionRename},
		{name: "cancel", input: "c\n", want: model.DecisionCancel},
		{name: "retry after invalid", input: "x\nr\n", want: model.DecisionRename},
		{name: "eof cancels", input: "", want: model.DecisionCancel},
		{name: "too many invalid answers", input: "x\ny\nz\nd\n", want: model.DecisionCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			decide := promptDecision(bufio.NewScanner(strings.NewReader(tt.input)), &out)

			got, err := decide(context.Background(), conflict)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), conflict.Path)
			assert.Contains(t, out.String(), `"feat-1"`)
		})
	}
}

func TestPromptDecisionAttachWording(t *testing.T) {
	var out bytes.Buffer
	c := conflict
	c.Attach = true
	decide := promptDecision(bufio.NewScanner(strings.NewReader("c\n")), &out)

	_, err := decide(context.Background(), c)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "suffixed directory")
}

func TestPromptDecisionCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	decide := promptDecision(bufio.NewScanner(strings.NewReader("d\n")), &bytes.Buffer{})

	_, err := decide(ctx, conflict)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDecider(t *testing.T) {
	resetGlobals(t)

	t.Run("fixed policy", func(t *testing.T) {
		decide, err := newDecider("rename", strings.NewReader(""), &bytes.Buffer{})
		require.NoError(t, err)
		require.NotNil(t, decide)
		got, err := decide(context.Background(), conflict)
		require.NoError(t, err)
		assert.Equal(t, model.DecisionRename, got)
	})

	t.Run("invalid policy", func(t *testing.T) {
		_, err := newDecider("maybe", strings.NewReader(""), &bytes.Buffer{})
		require.Error(t, err)
		assert.Equal(t, model.ExitGeneralError, model.ExitCodeFor(err))
	})

	t.Run("ask with reader", func(t *testing.T) {
		decide, err := newDecider(onConflictAsk, strings.NewReader("d\n"), &bytes.Buffer{})
		require.NoError(t, err)
		assert.NotNil(t, decide)
	})

	t.Run("ask with structured output", func(t *testing.T) {
		jsonOutput = true
		defer func() { jsonOutput = false }()
		decide, err := newDecider(onConflictAsk, strings.NewReader("d\n"), &bytes.Buffer{})
		require.NoError(t, err)
		assert.Nil(t, decide)
	})

	t.Run("ask with regular file", func(t *testing.T) {
		f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
		require.NoError(t, err)
		defer f.Close()

		decide, err := newDecider(onConflictAsk, f, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Nil(t, decide)
	})
}

func TestPromptConfirmation(t *testing.T) {
	tests := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	}
	for input, want := range tests {
		var out bytes.Buffer
		got := promptConfirmation(strings.NewReader(input), &out, "Delete?")
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "Delete? [y/N]: ")
	}
}
