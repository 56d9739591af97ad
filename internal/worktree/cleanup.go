package worktree

import (
	"os"
	"path/filepath"
	"strings"
)

// pruneEmptyParents walks upward from the parent of a removed worktree
// directory toward base, removing each ancestor while it is empty. It stops
// at the first non-empty directory, at the first removal error, or at base,
// which is never removed. Directories outside base are never touched.
//
// It returns the removed directories, innermost first. Failures are not
// reported: the worktree removal already succeeded.
func pruneEmptyParents(removed, base string) []string {
	base = resolvePath(base)
	dir := resolvePath(filepath.Dir(filepath.Clean(removed)))

	var pruned []string
	for isStrictlyWithin(dir, base) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
		pruned = append(pruned, dir)
		dir = filepath.Dir(dir)
	}
	return pruned
}

// isStrictlyWithin reports whether dir is below base (and not base itself).
func isStrictlyWithin(dir, base string) bool {
	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolvePath returns the symlink-resolved absolute form of p when it
// exists, or the cleaned absolute form otherwise. git reports resolved
// paths, so comparisons against user-configured paths go through here
// (on macOS /var is a symlink to /private/var).
func resolvePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}

// samePath reports whether a and b name the same location.
func samePath(a, b string) bool {
	return resolvePath(a) == resolvePath(b)
}
