package worktree

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shinji-kodama/wtm/internal/model"
)

// Sync merges base into the worktree described by rec.
//
// Worktrees that cannot be merged unattended are skipped with a reason:
// the main worktree, detached or bare entries, prunable entries whose
// directory is gone, and worktrees with local changes. A worktree already
// containing every commit of base is reported up-to-date. A merge that
// fails (typically a conflict) is aborted so the worktree is left as it
// was, and the verbatim git output becomes the reason.
//
// The returned error is non-nil only when the worktree could not even be
// inspected; callers in a batch record it as a failed item.
func (l *Lifecycle) Sync(ctx context.Context, rec model.WorktreeRecord, base string) (model.BatchStatus, string, error) {
	log := l.log.With(zap.String("op", "sync"), zap.String("path", rec.Path))

	if reason := syncSkipReason(rec, l.layout.Root); reason != "" {
		log.Debug("skipped", zap.String("reason", reason))
		return model.StatusSkipped, reason, nil
	}

	dirty, err := l.repo.IsDirty(ctx, rec.Path)
	if err != nil {
		return model.StatusFailed, "", err
	}
	if dirty {
		log.Debug("skipped", zap.String("reason", "uncommitted changes"))
		return model.StatusSkipped, "uncommitted changes", nil
	}

	behind, err := l.commitsBehind(ctx, rec.Path, base)
	if err != nil {
		return model.StatusFailed, "", err
	}
	if behind == 0 {
		return model.StatusUpToDate, fmt.Sprintf("already contains %s", base), nil
	}

	if _, err := l.repo.Runner().Run(ctx, rec.Path, "merge", "--no-edit", base); err != nil {
		// Leave the worktree as it was. The abort fails harmlessly when
		// the merge never started.
		if _, abortErr := l.repo.Runner().Run(ctx, rec.Path, "merge", "--abort"); abortErr != nil {
			log.Debug("merge abort failed", zap.Error(abortErr))
		}
		log.Warn("merge failed", zap.Error(err))
		return model.StatusFailed, gitReason(err), nil
	}

	log.Info("merged", zap.String("base", base), zap.Int("commits", behind))
	return model.StatusSuccess, fmt.Sprintf("merged %d commit(s) from %s", behind, base), nil
}

// syncSkipReason returns why rec cannot be synced, or "" if it can.
func syncSkipReason(rec model.WorktreeRecord, root string) string {
	switch {
	case rec.Bare:
		return "bare repository"
	case root != "" && samePath(rec.Path, root):
		return "main worktree"
	case rec.Prunable:
		if rec.PrunableReason != "" {
			return "prunable: " + rec.PrunableReason
		}
		return "prunable"
	case rec.Detached || rec.Branch == "":
		return "detached HEAD"
	}
	return ""
}

// commitsBehind counts the commits reachable from base but not from the
// worktree's HEAD.
func (l *Lifecycle) commitsBehind(ctx context.Context, path, base string) (int, error) {
	out, err := l.repo.Runner().Run(ctx, path, "rev-list", "--count", "HEAD.."+base)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse rev-list count %q: %w", strings.TrimSpace(out), err)
	}
	return n, nil
}

// gitReason extracts git's own message from err for reporting.
func gitReason(err error) string {
	var gitErr *model.GitError
	if errors.As(err, &gitErr) && gitErr.Stderr != "" {
		return gitErr.Stderr
	}
	return err.Error()
}
