package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/wtm/internal/batch"
	"github.com/shinji-kodama/wtm/internal/model"
)

// syncFlags holds the parsed flag values for the sync command.
type syncFlags struct {
	// base is merged into each worktree.
	base string

	// concurrency overrides batch.concurrency when positive.
	concurrency int
}

// NewSyncCommand creates the cobra command for "wtm sync".
func NewSyncCommand() *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync [branch...]",
		Short: "Merge the base branch into worktrees",
		Long: `Merge the base branch into every linked worktree, or only into the
worktrees of the given branches.

Worktrees with uncommitted changes, detached HEADs and the main worktree
are skipped. A merge that conflicts is aborted, leaving the worktree as it
was, and reported as failed. The command exits with 9 when at least one
worktree failed.`,
		Example: `  wtm sync
  wtm sync feature/a feature/b --base origin/main`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.base, "base", "b", "", "Ref to merge (default: sync.base, else branch of the main worktree)")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "j", 0, "Maximum parallel git operations (default: batch.concurrency)")

	return cmd
}

// runSync executes the sync command logic.
func runSync(cmd *cobra.Command, flags *syncFlags, branches []string) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.repo.List(ctx)
	if err != nil {
		return wrapError("failed to list worktrees", err)
	}

	base := flags.base
	if base == "" {
		base = a.cfg.Sync.Base
	}
	if base == "" && len(records) > 0 {
		base = records[0].ShortBranch()
	}
	if base == "" {
		return model.WrapCLIError(model.ExitGeneralError, "pass --base", model.ErrNoBaseBranch)
	}
	if _, err := a.repo.Runner().Run(ctx, a.root, "rev-parse", "--verify", "--quiet", base+"^{commit}"); err != nil {
		return model.WrapCLIError(model.ExitGitError, fmt.Sprintf("unknown base %q", base), err)
	}

	if len(branches) > 0 {
		for i := range branches {
			branches[i] = a.cfg.ApplyBranchPrefix(branches[i])
		}
		records, err = selectRecords(records, branches)
		if err != nil {
			return err
		}
	}

	report := batch.SyncAll(ctx, a.lifecycle, records, base, batch.Options{
		Concurrency: a.concurrency(flags.concurrency),
		Logger:      a.log.Logger,
	})
	return finishBatch(cmd, report)
}

// selectRecords returns the records holding branches, in argument order.
// Every branch must have a worktree.
func selectRecords(records []model.WorktreeRecord, branches []string) ([]model.WorktreeRecord, error) {
	byBranch := make(map[string]model.WorktreeRecord, len(records))
	for _, rec := range records {
		if b := rec.ShortBranch(); b != "" {
			byBranch[b] = rec
		}
	}

	selected := make([]model.WorktreeRecord, 0, len(branches))
	for _, b := range branches {
		rec, ok := byBranch[b]
		if !ok {
			return nil, model.WrapCLIError(model.ExitWorktreeNotFound,
				fmt.Sprintf("no worktree for branch %q", b), model.ErrWorktreeNotFound)
		}
		selected = append(selected, rec)
	}
	return selected, nil
}
