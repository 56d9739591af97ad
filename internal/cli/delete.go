package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/wtm/internal/model"
)

// deleteFlags holds the parsed flag values for the delete command.
type deleteFlags struct {
	// force removes dirty or locked worktrees.
	force bool

	// yes skips the confirmation prompt.
	yes bool

	// containers also removes dev containers bound to the worktree.
	containers bool
}

// NewDeleteCommand creates the cobra command for "wtm delete".
func NewDeleteCommand() *cobra.Command {
	flags := &deleteFlags{}

	cmd := &cobra.Command{
		Use:     "delete <branch>",
		Aliases: []string{"remove", "rm"},
		Short:   "Delete a worktree and its branch",
		Long: `Remove the worktree holding the branch, delete the branch, and remove
directories left empty under the worktree directory.

An unmerged branch is force-deleted after the worktree is gone. A dirty
or locked worktree is only removed with --force.

The configured branch.prefix is applied to the name, as in create.`,
		Example: `  # Delete with confirmation prompt
  wtm delete feature/auth

  # Delete without confirmation, including uncommitted changes
  wtm delete feature/auth --yes --force

  # Also remove dev containers started for the worktree
  wtm delete feature/auth --containers`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, flags, args[0])
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove even with uncommitted changes or a lock")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&flags.containers, "containers", false, "Remove dev containers bound to the worktree (default: cleanup.containers)")

	return cmd
}

// runDelete executes the delete command logic.
//
// The worktree is looked up before asking, so an unknown branch or the
// main worktree fails without a prompt.
func runDelete(cmd *cobra.Command, flags *deleteFlags, branch string) error {
	ctx := cmd.Context()

	opts := appOptions{reap: true}
	if cmd.Flags().Changed("containers") {
		opts.containers = &flags.containers
	}
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	branch = a.cfg.ApplyBranchPrefix(branch)
	rec, isMain, err := a.repo.FindByBranch(ctx, branch)
	if err != nil {
		return wrapError("failed to delete worktree", err)
	}
	if isMain {
		return model.WrapCLIError(model.ExitGeneralError, "failed to delete worktree",
			fmt.Errorf("%w: branch %q is checked out in %s", model.ErrMainWorktree, branch, rec.Path))
	}

	if !flags.yes && !IsStructuredOutput() {
		msg := fmt.Sprintf("Delete worktree %s and branch %q?", rec.Path, branch)
		if !promptConfirmation(cmd.InOrStdin(), cmd.ErrOrStderr(), msg) {
			return model.WrapCLIError(model.ExitUserCancelled, "delete cancelled", model.ErrUserCancelled)
		}
	}

	result, err := a.lifecycle.Delete(ctx, branch, flags.force)
	if result != nil {
		if renderErr := render(cmd, result, func(w io.Writer) {
			printDeleteResultText(w, result)
		}); renderErr != nil {
			return renderErr
		}
	}
	if err != nil {
		return wrapError("failed to delete worktree", err)
	}
	return nil
}

// printDeleteResultText outputs the delete result in text format.
func printDeleteResultText(w io.Writer, r *model.DeleteResult) {
	fmt.Fprintf(w, "Removed worktree %s\n", r.Path)
	switch {
	case r.BranchDeleted && r.BranchForced:
		fmt.Fprintf(w, "  Deleted branch %s (was not fully merged)\n", r.Branch)
	case r.BranchDeleted:
		fmt.Fprintf(w, "  Deleted branch %s\n", r.Branch)
	default:
		fmt.Fprintf(w, "  Kept branch %s\n", r.Branch)
	}
	for _, dir := range r.PrunedDirs {
		fmt.Fprintf(w, "  Removed empty directory %s\n", dir)
	}
	for _, id := range r.RemovedContainers {
		fmt.Fprintf(w, "  Removed container %s\n", id)
	}
}
