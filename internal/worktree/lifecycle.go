package worktree

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/shinji-kodama/wtm/internal/model"
)

// DirectoryConflict describes an existing target directory found before a
// create or attach. Alternative is the collision-free name a rename would use.
type DirectoryConflict struct {
	Branch      string
	Path        string
	Alternative string

	// Attach is set when the conflict arises from attaching an existing
	// branch; a rename then only changes the directory.
	Attach bool
}

// DecisionFunc resolves a DirectoryConflict. The CLI prompts on the
// terminal; tests return canned answers. Batch operations never call it.
type DecisionFunc func(ctx context.Context, c DirectoryConflict) (model.CollisionDecision, error)

// ContainerReaper removes containers bound to a deleted worktree directory.
type ContainerReaper interface {
	ReapWorktree(ctx context.Context, path string) ([]string, error)
}

// CreateOptions are the inputs of Lifecycle.Create.
type CreateOptions struct {
	Branch string

	// Base is the start point of the new branch. Empty means the branch
	// currently checked out in the main worktree.
	Base string

	// SkipDirCheck bypasses the existing-directory decision point. Batch
	// creation always sets it.
	SkipDirCheck bool
}

// Lifecycle orchestrates create, attach and delete. Each call runs its steps
// strictly in sequence:
//
//	Requested → CollisionChecked → DirectoryChecked → [UserDecision] → Mutated → Cleaned → Done
//
// and any step can end in Aborted. Lifecycle holds no mutable state and is
// safe for concurrent use; distinct calls are arbitrated by git's own locks.
type Lifecycle struct {
	repo   *Repository
	layout Layout
	decide DecisionFunc
	reaper ContainerReaper
	log    *zap.Logger
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithDecider installs the callback used for existing-directory conflicts.
func WithDecider(fn DecisionFunc) Option {
	return func(l *Lifecycle) { l.decide = fn }
}

// WithReaper installs a container reaper run after a successful delete.
func WithReaper(r ContainerReaper) Option {
	return func(l *Lifecycle) { l.reaper = r }
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(log *zap.Logger) Option {
	return func(l *Lifecycle) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLifecycle creates a Lifecycle over repo using layout for directory
// placement.
func NewLifecycle(repo *Repository, layout Layout, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		repo:   repo,
		layout: layout,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Repository returns the repository the lifecycle operates on.
func (l *Lifecycle) Repository() *Repository {
	return l.repo
}

// Layout returns the directory layout.
func (l *Lifecycle) Layout() Layout {
	return l.layout
}

// Create creates a worktree on a new branch and returns its absolute path.
//
// The collision check always runs before any filesystem mutation. When the
// target directory exists the decision callback chooses between deleting
// it, renaming to the next free "<branch>-N" (branch and directory both),
// or cancelling. A rename is a single retry with SkipDirCheck semantics:
// the alternative is collision-free by construction.
func (l *Lifecycle) Create(ctx context.Context, opts CreateOptions) (string, error) {
	branch := opts.Branch
	log := l.log.With(zap.String("op", "create"), zap.String("branch", branch))
	log.Debug("requested")

	if err := ValidateBranchName(branch); err != nil {
		return "", err
	}

	ns, err := l.repo.Namespace(ctx)
	if err != nil {
		return "", err
	}
	if err := CheckCollision(branch, ns); err != nil {
		log.Debug("aborted", zap.Error(err))
		return "", err
	}
	log.Debug("collision checked")

	target := l.layout.TargetDir(branch)

	if !opts.SkipDirCheck {
		conflict := DirectoryConflict{Branch: branch, Path: target}
		decision, err := l.checkDirectory(ctx, conflict, ns)
		if err != nil {
			log.Debug("aborted", zap.Error(err))
			return "", err
		}
		if decision == model.DecisionRename {
			// Single retry: the alternative replaces both the branch and
			// the directory, and the directory check is not repeated.
			branch = SuggestAlternative(branch, ns)
			target = l.layout.TargetDir(branch)
			log = log.With(zap.String("renamed", branch))
			log.Debug("retrying with alternative name")
		}
	}
	log.Debug("directory checked", zap.String("path", target))

	base := opts.Base
	if base == "" {
		base, err = l.defaultBase(ctx)
		if err != nil {
			return "", err
		}
	}

	if err := l.repo.AddWithNewBranch(ctx, branch, target, base); err != nil {
		log.Debug("aborted", zap.Error(err))
		return "", err
	}
	log.Info("worktree created", zap.String("path", target), zap.String("base", base))
	return target, nil
}

// Attach creates a worktree for a branch that already exists and returns
// its absolute path. There is no collision check since the branch
// legitimately exists. On rename only the directory gets the "-N" suffix;
// the branch keeps its name.
func (l *Lifecycle) Attach(ctx context.Context, branch string, skipDirCheck bool) (string, error) {
	log := l.log.With(zap.String("op", "attach"), zap.String("branch", branch))
	log.Debug("requested")

	if err := ValidateExistingBranchName(branch); err != nil {
		return "", err
	}

	target := l.layout.TargetDir(branch)

	if !skipDirCheck {
		ns, err := l.repo.Namespace(ctx)
		if err != nil {
			return "", err
		}
		conflict := DirectoryConflict{Branch: branch, Path: target, Attach: true}
		decision, err := l.checkDirectory(ctx, conflict, ns)
		if err != nil {
			log.Debug("aborted", zap.Error(err))
			return "", err
		}
		if decision == model.DecisionRename {
			target = l.layout.TargetDir(SuggestAlternative(branch, ns))
			log.Debug("retrying with alternative directory", zap.String("path", target))
		}
	}
	log.Debug("directory checked", zap.String("path", target))

	if err := l.repo.AddExisting(ctx, target, branch); err != nil {
		log.Debug("aborted", zap.Error(err))
		return "", err
	}
	log.Info("worktree attached", zap.String("path", target))
	return target, nil
}

// Delete removes the worktree holding branch, prunes empty parent
// directories, and deletes the branch ref.
//
// The worktree is found by its recorded branch, not its directory name, so
// worktrees attached under a renamed directory are still found. force
// applies to the worktree removal only (dirty, or locked); the branch ref
// is soft-deleted first and force-deleted only when git reports it as not
// fully merged. A failed forced delete is logged and leaves BranchDeleted
// unset. Any other soft delete failure is returned together with the
// result, since the worktree itself is already gone.
func (l *Lifecycle) Delete(ctx context.Context, branch string, force bool) (*model.DeleteResult, error) {
	log := l.log.With(zap.String("op", "delete"), zap.String("branch", branch))
	log.Debug("requested")

	rec, isMain, err := l.repo.FindByBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	if isMain {
		return nil, fmt.Errorf("%w: branch %q is checked out in %s", model.ErrMainWorktree, branch, rec.Path)
	}

	if err := l.repo.RemoveWorktree(ctx, rec.Path, force, rec.Locked); err != nil {
		log.Debug("aborted", zap.Error(err))
		return nil, err
	}
	log.Info("worktree removed", zap.String("path", rec.Path))

	result := &model.DeleteResult{Branch: branch, Path: rec.Path}

	result.PrunedDirs = pruneEmptyParents(rec.Path, l.layout.BaseDir)
	if len(result.PrunedDirs) > 0 {
		log.Debug("pruned empty directories", zap.Strings("dirs", result.PrunedDirs))
	}

	if l.reaper != nil {
		ids, err := l.reaper.ReapWorktree(ctx, rec.Path)
		if err != nil {
			log.Warn("container cleanup failed", zap.Error(err))
		}
		result.RemovedContainers = ids
	}

	err = l.repo.DeleteBranch(ctx, branch, false)
	switch {
	case err == nil:
	case IsNotFullyMerged(err):
		log.Debug("branch not fully merged, forcing delete")
		result.BranchForced = true
		if err := l.repo.DeleteBranch(ctx, branch, true); err != nil {
			log.Warn("forced branch delete failed", zap.Error(err))
			return result, nil
		}
	default:
		return result, fmt.Errorf("worktree removed but branch %q was kept: %w", branch, err)
	}
	result.BranchDeleted = true
	log.Info("branch deleted", zap.Bool("forced", result.BranchForced))
	return result, nil
}

// checkDirectory resolves an existing target directory through the
// decision callback. It returns an empty decision when the directory does
// not exist, and DecisionRename or DecisionDeleteExisting (already carried
// out) otherwise. Cancel is reported as ErrUserCancelled.
func (l *Lifecycle) checkDirectory(ctx context.Context, c DirectoryConflict, ns Namespace) (model.CollisionDecision, error) {
	if _, err := os.Stat(c.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("inspect %s: %w", c.Path, err)
	}

	if l.decide == nil {
		return "", fmt.Errorf("%w: %s", model.ErrDirectoryExists, c.Path)
	}

	c.Alternative = SuggestAlternative(c.Branch, ns)
	decision, err := l.decide(ctx, c)
	if err != nil {
		return "", err
	}
	l.log.Debug("user decision", zap.String("path", c.Path), zap.Stringer("decision", decision))

	switch decision {
	case model.DecisionDeleteExisting:
		if err := l.removeExisting(ctx, c.Path); err != nil {
			return "", err
		}
		return decision, nil
	case model.DecisionRename:
		return decision, nil
	case model.DecisionCancel:
		return "", model.ErrUserCancelled
	default:
		return "", fmt.Errorf("invalid decision %q for %s", decision, c.Path)
	}
}

// removeExisting deletes a conflicting directory. A registered worktree is
// removed through git so its administrative files go too; anything else is
// removed from disk.
func (l *Lifecycle) removeExisting(ctx context.Context, path string) error {
	records, err := l.repo.List(ctx)
	if err != nil {
		return err
	}
	for i, rec := range records {
		if !samePath(rec.Path, path) {
			continue
		}
		if i == 0 {
			return fmt.Errorf("%w: %s", model.ErrMainWorktree, path)
		}
		return l.repo.RemoveWorktree(ctx, rec.Path, true, rec.Locked)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove existing directory %s: %w", path, err)
	}
	return nil
}

// defaultBase returns the branch checked out in the main worktree.
func (l *Lifecycle) defaultBase(ctx context.Context) (string, error) {
	main, err := l.repo.MainWorktree(ctx)
	if err != nil {
		return "", err
	}
	if main.Branch == "" {
		return "", fmt.Errorf("%w: main worktree %s has no branch checked out; pass a base explicitly",
			model.ErrNoBaseBranch, main.Path)
	}
	return main.ShortBranch(), nil
}
