// Package worktree provides Git worktree management for the wtm CLI.
//
// All Git operations are performed via os/exec calls to the git binary,
// rather than using a Git library like go-git. This approach:
//   - Uses the exact same Git behavior the user sees in their terminal
//   - Supports linked worktree add/remove/lock, which go-git lacks
//   - Lets git's own administrative locks arbitrate concurrent callers
//
// The package is organized as:
//   - git.go: the Runner abstraction over the git binary
//   - porcelain.go: parser for `git worktree list --porcelain`
//   - repository.go: read-only queries and mutation primitives
//   - collision.go: branch namespace conflict detection and suggestions
//   - lifecycle.go: create / attach / delete state machines
//   - cleanup.go: pruning of empty parent directories after delete
//   - sync.go: per-worktree merge of a base branch (bulk sync step)
package worktree
