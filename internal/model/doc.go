// Package model defines the domain types and value objects for the
// wtm CLI.
//
// This package contains pure data structures with no external dependencies.
// Worktree records are transient: they are re-derived from
// `git worktree list --porcelain` on every query, and all durable state
// lives in the Git repository itself.
//
// The package also defines the error taxonomy (name collisions, user
// cancellation, missing worktrees, git failures) and the exit codes
// (ExitCode, CLIError) the CLI maps them to.
package model
