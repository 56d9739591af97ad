package worktree

import (
	"fmt"
	"path/filepath"
)

// Layout decides where worktree directories live.
//
//	<BaseDir>/<DirPrefix><branch>
//
// Branch names containing "/" produce nested directories, which is why
// delete prunes empty ancestors up to BaseDir.
type Layout struct {
	// Root is the main worktree path.
	Root string

	// BaseDir is the absolute directory that holds all linked worktrees.
	BaseDir string

	// DirPrefix is prepended to the branch name to form the directory name.
	DirPrefix string
}

// NewLayout resolves baseDir against root (relative paths are relative to
// the main worktree) and returns an absolute Layout.
func NewLayout(root, baseDir, dirPrefix string) (Layout, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve repository root: %w", err)
	}
	if baseDir == "" {
		baseDir = DefaultBaseDir(absRoot)
	}
	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(absRoot, baseDir)
	}
	return Layout{
		Root:      absRoot,
		BaseDir:   filepath.Clean(baseDir),
		DirPrefix: dirPrefix,
	}, nil
}

// DefaultBaseDir returns the sibling directory "<parent>/<repo>-worktrees"
// next to the main worktree.
func DefaultBaseDir(root string) string {
	return filepath.Join(filepath.Dir(root), filepath.Base(root)+"-worktrees")
}

// TargetDir returns the directory for branch. It is a pure function of the
// layout and the branch name.
func (l Layout) TargetDir(branch string) string {
	return filepath.Join(l.BaseDir, filepath.FromSlash(l.DirPrefix+branch))
}
