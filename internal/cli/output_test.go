package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/wtm/internal/model"
)

func TestResolveFormat(t *testing.T) {
	resetGlobals(t)

	tests := []struct {
		name    string
		json    bool
		output  string
		want    string
		wantErr bool
	}{
		{name: "default", output: "text", want: formatText},
		{name: "empty", output: "", want: formatText},
		{name: "yaml", output: "yaml", want: formatYAML},
		{name: "json flag wins", json: true, output: "yaml", want: formatJSON},
		{name: "unknown", output: "xml", want: formatText, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonOutput, outputFormat = tt.json, tt.output
			got, err := resolveFormat()
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	resetGlobals(t)

	v := struct {
		Name string `json:"name" yaml:"name"`
	}{Name: "feature/a"}
	text := func(w io.Writer) { fmt.Fprintln(w, "plain", v.Name) }

	tests := map[string]string{
		formatText: "plain feature/a\n",
		formatJSON: "{\n  \"name\": \"feature/a\"\n}\n",
		formatYAML: "name: feature/a\n",
	}
	for format, want := range tests {
		t.Run(format, func(t *testing.T) {
			outputFormat = format
			var buf bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&buf)

			require.NoError(t, render(cmd, v, text))
			assert.Equal(t, want, buf.String())
		})
	}
}

func TestPrintError(t *testing.T) {
	resetGlobals(t)
	err := model.WrapCLIError(model.ExitNameCollision, "failed to create worktree", errors.New("branch \"a\" already exists"))

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		printError(&buf, err)
		assert.Equal(t, "Error: failed to create worktree: branch \"a\" already exists\n", buf.String())
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		printError(&buf, errors.New("boom"))
		assert.Equal(t, "Error: boom\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		jsonOutput = true
		var buf bytes.Buffer
		printError(&buf, err)
		assert.JSONEq(t, `{"error":{"message":"failed to create worktree","detail":"branch \"a\" already exists","code":8}}`, buf.String())
	})
}
