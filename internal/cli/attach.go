package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// attachFlags holds the parsed flag values for the attach command.
type attachFlags struct {
	onConflict string
}

// NewAttachCommand creates the cobra command for "wtm attach".
func NewAttachCommand() *cobra.Command {
	flags := &attachFlags{}

	cmd := &cobra.Command{
		Use:   "attach <branch>",
		Short: "Check out an existing branch in a new worktree",
		Long: `Check out an existing local or remote-tracking branch in its own worktree.

A remote-only branch gets a local tracking branch. When the target
directory is taken, "rename" keeps the branch and picks a suffixed
directory instead.`,
		Example: `  wtm attach feature/auth
  wtm attach release-1.2 --on-conflict rename`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttach(cmd, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", onConflictAsk, "Existing directory: ask, delete, rename, cancel")

	return cmd
}

// runAttach executes the attach command logic.
func runAttach(cmd *cobra.Command, flags *attachFlags, branch string) error {
	a, err := newApp(cmd, appOptions{decide: true, onConflict: flags.onConflict})
	if err != nil {
		return err
	}
	defer a.close()

	path, err := a.lifecycle.Attach(cmd.Context(), branch, false)
	if err != nil {
		return wrapError("failed to attach worktree", err)
	}

	result := createResult{Branch: branch, Path: path}
	return render(cmd, result, func(w io.Writer) {
		printCreateResultText(w, "Attached", result)
	})
}
