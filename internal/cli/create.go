package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/wtm/internal/model"
	"github.com/shinji-kodama/wtm/internal/worktree"
)

// createFlags holds the parsed flag values for the create command.
type createFlags struct {
	// base is the start point of the new branch.
	base string

	// onConflict answers an existing-directory conflict without asking.
	onConflict string
}

// createResult is the machine-readable result of create and attach.
type createResult struct {
	Branch    string `json:"branch" yaml:"branch"`
	Path      string `json:"path" yaml:"path"`
	Requested string `json:"requested,omitempty" yaml:"requested,omitempty"`
}

// NewCreateCommand creates the cobra command for "wtm create".
func NewCreateCommand() *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create <branch>",
		Short: "Create a worktree on a new branch",
		Long: `Create a new branch and check it out in its own worktree.

The branch name is checked against every local and remote-tracking branch
first: names that already exist, that have existing branches nested under
them, or that would nest under an existing branch are refused (exit 8).

If the target directory already exists you are asked whether to delete it,
switch to a suffixed branch name, or cancel. Use --on-conflict to answer
in advance.`,
		Example: `  # New branch from the branch checked out in the main worktree
  wtm create feature/auth

  # New branch from a specific ref
  wtm create hotfix/login --base origin/release-1.2

  # Never prompt; pick a free name when the directory is taken
  wtm create feature/auth --on-conflict rename`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.base, "base", "b", "", "Start point of the new branch (default: branch of the main worktree)")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", onConflictAsk, "Existing directory: ask, delete, rename, cancel")

	return cmd
}

// runCreate executes the create command logic.
func runCreate(cmd *cobra.Command, flags *createFlags, name string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, appOptions{decide: true, onConflict: flags.onConflict})
	if err != nil {
		return err
	}
	defer a.close()

	requested := a.cfg.ApplyBranchPrefix(name)
	path, err := a.lifecycle.Create(ctx, worktree.CreateOptions{Branch: requested, Base: flags.base})
	if err != nil {
		return wrapError("failed to create worktree", err)
	}

	result := createResult{Branch: requested, Path: path}
	if branch, err := a.repo.CurrentBranch(ctx, path); err == nil && branch != requested {
		result.Branch = branch
		result.Requested = requested
	}

	return render(cmd, result, func(w io.Writer) {
		printCreateResultText(w, "Created", result)
	})
}

// printCreateResultText outputs the create or attach result in text format.
func printCreateResultText(w io.Writer, verb string, r createResult) {
	fmt.Fprintf(w, "%s worktree for branch %q\n", verb, r.Branch)
	if r.Requested != "" {
		fmt.Fprintf(w, "  Renamed from: %s\n", r.Requested)
	}
	fmt.Fprintf(w, "  Path: %s\n", r.Path)
}

// wrapError attaches a command-level message to err, keeping the exit code
// its kind maps to.
func wrapError(message string, err error) error {
	return model.WrapCLIError(model.ExitCodeFor(err), message, err)
}
