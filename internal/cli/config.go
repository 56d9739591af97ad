package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/wtm/internal/config"
)

// configResult is the machine-readable result of the config command.
type configResult struct {
	File        string         `json:"file,omitempty" yaml:"file,omitempty"`
	Root        string         `json:"root" yaml:"root"`
	WorktreeDir string         `json:"worktreeDir" yaml:"worktreeDir"`
	Config      *config.Config `json:"config" yaml:"config"`
}

// NewConfigCommand creates the cobra command for "wtm config".
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after defaults, the configuration file and
WTM_* environment variables have been applied, together with the file
that was read and the resolved worktree directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd)
		},
	}
	return cmd
}

// runConfig executes the config command logic.
func runConfig(cmd *cobra.Command) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	result := configResult{
		File:        a.cfgFile,
		Root:        a.root,
		WorktreeDir: a.lifecycle.Layout().BaseDir,
		Config:      a.cfg,
	}
	return render(cmd, result, func(w io.Writer) {
		printConfigResultText(w, result)
	})
}

// printConfigResultText outputs the sources as comments followed by the
// configuration as YAML, so the output can seed a .wtm.yaml.
func printConfigResultText(w io.Writer, r configResult) {
	source := r.File
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(w, "# file: %s\n", source)
	fmt.Fprintf(w, "# repository: %s\n", r.Root)
	fmt.Fprintf(w, "# worktree directory: %s\n", r.WorktreeDir)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	_ = enc.Encode(r.Config)
	_ = enc.Close()
}
