package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for worktree lifecycle operations.
var (
	// ErrNameCollision is matched by every *NameCollisionError.
	ErrNameCollision = errors.New("branch name collision")

	// ErrUserCancelled is returned when the decision callback answers cancel.
	ErrUserCancelled = errors.New("operation cancelled by user")

	// ErrDirectoryExists is returned when the target directory exists and
	// no decision callback is available to resolve the conflict.
	ErrDirectoryExists = errors.New("target directory already exists")

	// ErrWorktreeNotFound is returned when no worktree holds the branch.
	ErrWorktreeNotFound = errors.New("worktree not found")

	// ErrMainWorktree is returned when an operation would remove the
	// repository's main working directory.
	ErrMainWorktree = errors.New("refusing to operate on the main worktree")

	// ErrInvalidBranchName is returned for names git would reject or that
	// would escape the worktree base directory.
	ErrInvalidBranchName = errors.New("invalid branch name")

	// ErrNoBaseBranch is returned when no base was given and the main
	// worktree has no current branch to default to.
	ErrNoBaseBranch = errors.New("cannot determine base branch")
)

// maxCollisionExamples is the number of conflicting names reported
// verbatim; the rest are summarized as a count.
const maxCollisionExamples = 3

// NameCollisionError reports which existing branch names conflict with a
// desired name. Conflicts holds at most three examples; Remaining counts
// the ones left out.
type NameCollisionError struct {
	Name      string
	Kind      CollisionKind
	Conflicts []string
	Remaining int
}

// NewNameCollisionError builds a NameCollisionError from the full sorted
// list of conflicting names, keeping the first three as examples.
func NewNameCollisionError(name string, kind CollisionKind, conflicts []string) *NameCollisionError {
	e := &NameCollisionError{Name: name, Kind: kind}
	if len(conflicts) > maxCollisionExamples {
		e.Conflicts = append([]string(nil), conflicts[:maxCollisionExamples]...)
		e.Remaining = len(conflicts) - maxCollisionExamples
	} else {
		e.Conflicts = append([]string(nil), conflicts...)
	}
	return e
}

// Error satisfies the error interface.
func (e *NameCollisionError) Error() string {
	switch e.Kind {
	case CollisionExact:
		return fmt.Sprintf("branch %q already exists", e.Name)
	case CollisionForward:
		return fmt.Sprintf("branch %q conflicts with existing branches nested under it: %s",
			e.Name, e.examples())
	case CollisionBackward:
		return fmt.Sprintf("branch %q would nest under existing branch %s",
			e.Name, e.examples())
	default:
		return fmt.Sprintf("branch %q collides with existing branches", e.Name)
	}
}

func (e *NameCollisionError) examples() string {
	quoted := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	s := strings.Join(quoted, ", ")
	if e.Remaining > 0 {
		s = fmt.Sprintf("%s and %d more", s, e.Remaining)
	}
	return s
}

// Is makes errors.Is(err, ErrNameCollision) true for any collision.
func (e *NameCollisionError) Is(target error) bool {
	return target == ErrNameCollision
}

// GitError is an unclassified failure of the git binary: lock contention,
// disk, permissions, network. Stderr is carried unmodified.
type GitError struct {
	// Args are the git arguments, without the leading "-C <dir>".
	Args []string

	// Stderr is the trimmed standard error output of the command.
	Stderr string

	// Err is the underlying *exec.ExitError or start failure.
	Err error
}

// Error satisfies the error interface.
func (e *GitError) Error() string {
	msg := "git " + strings.Join(e.Args, " ") + " failed"
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *GitError) Unwrap() error {
	return e.Err
}

// ExitCodeFor maps any error returned by the core to a process exit code.
// A *CLIError keeps its own code.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	var gitErr *GitError
	switch {
	case errors.Is(err, ErrNameCollision):
		return ExitNameCollision
	case errors.Is(err, ErrUserCancelled):
		return ExitUserCancelled
	case errors.Is(err, ErrWorktreeNotFound):
		return ExitWorktreeNotFound
	case errors.As(err, &gitErr):
		return ExitGitError
	default:
		return ExitGeneralError
	}
}
