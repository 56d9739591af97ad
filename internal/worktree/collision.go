package worktree

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shinji-kodama/wtm/internal/model"
)

// Namespace is the set of registered branch names (local and
// remote-tracking, remote prefix stripped), hierarchical on "/".
type Namespace map[string]struct{}

// NewNamespace builds a Namespace from branch names. Duplicates and empty
// names are dropped.
func NewNamespace(names ...string) Namespace {
	ns := make(Namespace, len(names))
	for _, n := range names {
		if n != "" {
			ns[n] = struct{}{}
		}
	}
	return ns
}

// Has reports whether name is registered.
func (ns Namespace) Has(name string) bool {
	_, ok := ns[name]
	return ok
}

// Add registers name.
func (ns Namespace) Add(name string) {
	ns[name] = struct{}{}
}

// Names returns the registered names in sorted order.
func (ns Namespace) Names() []string {
	names := make([]string, 0, len(ns))
	for n := range ns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CheckCollision reports whether name can be registered without conflicting
// with ns. Branch names double as directory path segments, so no name may
// be a "/"-prefix of another, even where git itself would allow it.
//
// The three cases are checked in order and are mutually exclusive in the
// result:
//  1. exact: name is already registered
//  2. forward: some registered name is name + "/" + suffix
//  3. backward: name is registered + "/" + suffix for some registered name
func CheckCollision(name string, ns Namespace) error {
	if ns.Has(name) {
		return model.NewNameCollisionError(name, model.CollisionExact, []string{name})
	}
	if fwd := forwardConflicts(name, ns); len(fwd) > 0 {
		return model.NewNameCollisionError(name, model.CollisionForward, fwd)
	}
	if bwd := backwardConflicts(name, ns); len(bwd) > 0 {
		return model.NewNameCollisionError(name, model.CollisionBackward, bwd)
	}
	return nil
}

func forwardConflicts(name string, ns Namespace) []string {
	prefix := name + "/"
	var out []string
	for existing := range ns {
		if strings.HasPrefix(existing, prefix) {
			out = append(out, existing)
		}
	}
	sort.Strings(out)
	return out
}

// backwardConflicts returns the registered ancestors of name, shortest first.
func backwardConflicts(name string, ns Namespace) []string {
	var out []string
	for i := 0; i < len(name); i++ {
		if name[i] != '/' {
			continue
		}
		if ancestor := name[:i]; ns.Has(ancestor) {
			out = append(out, ancestor)
		}
	}
	return out
}

// SuggestAlternative returns the first of name-1, name-2, … that passes
// CheckCollision against ns. It is pure and deterministic.
//
// When name itself nests under a registered branch, every "name-N" would
// inherit that backward conflict, so the "/"-flattened name is used as the
// stem instead ("feature/x/y" → "feature-x-y-1").
//
// Termination: each rejected candidate is rejected because of a distinct
// registered name (equal to it, or nested under it), so at most len(ns)+1
// candidates are tried.
func SuggestAlternative(name string, ns Namespace) string {
	stem := name
	if len(backwardConflicts(name, ns)) > 0 {
		stem = strings.ReplaceAll(name, "/", "-")
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", stem, n)
		if CheckCollision(candidate, ns) == nil {
			return candidate
		}
	}
}

// branchNameRe allows the characters git accepts in ref names minus the
// ones that are awkward as directory names.
var branchNameRe = regexp.MustCompile(`^[A-Za-z0-9._/+@#-]+$`)

// ValidateBranchName rejects names that git refuses as branch names or that
// would escape the worktree base directory when used as a path.
func ValidateBranchName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name must not be empty", model.ErrInvalidBranchName)
	case !branchNameRe.MatchString(name):
		return fmt.Errorf("%w: %q contains characters not allowed in branch names", model.ErrInvalidBranchName, name)
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "/"), strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q must start with an alphanumeric character", model.ErrInvalidBranchName, name)
	case strings.HasSuffix(name, "/"), strings.HasSuffix(name, "."), strings.HasSuffix(name, ".lock"):
		return fmt.Errorf("%w: %q has an invalid ending", model.ErrInvalidBranchName, name)
	case strings.Contains(name, ".."), strings.Contains(name, "//"), strings.Contains(name, "/."), strings.Contains(name, "@{"):
		return fmt.Errorf("%w: %q contains an invalid sequence", model.ErrInvalidBranchName, name)
	case name == "@" || name == "HEAD":
		return fmt.Errorf("%w: %q is reserved", model.ErrInvalidBranchName, name)
	}
	return nil
}

// ValidateExistingBranchName accepts any name git may already hold as a
// branch and rejects only those that would leave the worktree base
// directory when used as a path. Attach relies on git to reject names
// that are not branches.
func ValidateExistingBranchName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name must not be empty", model.ErrInvalidBranchName)
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "/"), strings.HasPrefix(name, `\`):
		return fmt.Errorf("%w: %q must not start with %q", model.ErrInvalidBranchName, name, name[:1])
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", model.ErrInvalidBranchName, name)
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: %q contains the path element %q", model.ErrInvalidBranchName, name, part)
		}
	}
	return nil
}
