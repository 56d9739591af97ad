// Package model defines the domain types for the wtm CLI.
//
// Key design decision: the tool keeps no state of its own. Every type here
// is either parsed from git output at runtime (WorktreeRecord, LastCommit)
// or owned by a single command invocation (BatchItem, BatchReport).
package model

import (
	"fmt"
	"strings"
	"time"
)

// branchRefPrefix is the prefix git uses for local branch refs in
// porcelain output (e.g., "refs/heads/feature/auth").
const branchRefPrefix = "refs/heads/"

// WorktreeRecord holds metadata about a single Git worktree entry
// as parsed from `git worktree list --porcelain` output.
//
// Example porcelain output for a single worktree block:
//
//	worktree /path/to/feature-branch
//	HEAD abc123def456
//	branch refs/heads/feature-branch
//	locked reason text
//
// The repository's main working directory is the first record git
// reports. There is no dedicated flag for it.
type WorktreeRecord struct {
	// Path is the absolute filesystem path to the worktree directory.
	// Unique among the records of one listing.
	Path string `json:"path" yaml:"path"`

	// Head is the commit SHA that the worktree currently points to.
	Head string `json:"head" yaml:"head"`

	// Branch is the full branch reference (e.g., "refs/heads/main").
	// Empty if the worktree is in a detached HEAD state.
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`

	// Detached is set when git reports the bare "detached" marker.
	Detached bool `json:"detached" yaml:"detached"`

	// Bare indicates the entry represents a bare repository.
	Bare bool `json:"bare,omitempty" yaml:"bare,omitempty"`

	// Locked is set by a "locked" line, with or without a reason.
	Locked bool `json:"locked" yaml:"locked"`

	// LockReason is the optional text following "locked ".
	LockReason string `json:"lockReason,omitempty" yaml:"lockReason,omitempty"`

	// Prunable is set when git considers the worktree administrative
	// files stale (e.g., the directory was deleted by hand).
	Prunable bool `json:"prunable" yaml:"prunable"`

	// PrunableReason is the optional text following "prunable ".
	PrunableReason string `json:"prunableReason,omitempty" yaml:"prunableReason,omitempty"`
}

// ShortBranch returns the branch name without the "refs/heads/" prefix,
// or an empty string for detached worktrees.
func (r WorktreeRecord) ShortBranch() string {
	return strings.TrimPrefix(r.Branch, branchRefPrefix)
}

// LastCommit describes the HEAD commit of a worktree.
type LastCommit struct {
	Date      time.Time `json:"date" yaml:"date"`
	Message   string    `json:"message" yaml:"message"`
	ShortHash string    `json:"shortHash" yaml:"shortHash"`
}

// CollisionDecision is the answer to an existing-directory conflict.
// Exactly one decision is produced per conflict.
type CollisionDecision string

const (
	// DecisionDeleteExisting removes the existing directory and proceeds.
	DecisionDeleteExisting CollisionDecision = "delete-existing"

	// DecisionRename retries once with the next free "<name>-N" suffix.
	DecisionRename CollisionDecision = "rename-with-suffix"

	// DecisionCancel aborts the operation with ErrUserCancelled.
	DecisionCancel CollisionDecision = "cancel"
)

// String returns the string representation of CollisionDecision.
func (d CollisionDecision) String() string {
	return string(d)
}

// IsValid checks whether the CollisionDecision value is one of the
// predefined decisions.
func (d CollisionDecision) IsValid() bool {
	switch d {
	case DecisionDeleteExisting, DecisionRename, DecisionCancel:
		return true
	default:
		return false
	}
}

// ParseCollisionDecision converts user input to a CollisionDecision.
// Accepts the full decision names as well as the short prompt answers
// "d"/"delete", "r"/"rename" and "c"/"cancel" (case-insensitive).
func ParseCollisionDecision(s string) (CollisionDecision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "delete", string(DecisionDeleteExisting):
		return DecisionDeleteExisting, nil
	case "r", "rename", string(DecisionRename):
		return DecisionRename, nil
	case "c", string(DecisionCancel):
		return DecisionCancel, nil
	default:
		return "", fmt.Errorf("invalid decision: %q (valid: delete, rename, cancel)", s)
	}
}

// CollisionKind identifies which of the three ordered naming conflicts
// was detected.
type CollisionKind string

const (
	// CollisionExact means the name is already registered.
	CollisionExact CollisionKind = "exact"

	// CollisionForward means an existing name nests under the desired
	// name (desired "feature", existing "feature/x").
	CollisionForward CollisionKind = "forward"

	// CollisionBackward means the desired name nests under an existing
	// name (desired "feature/x/y", existing "feature/x").
	CollisionBackward CollisionKind = "backward"
)

// String returns the string representation of CollisionKind.
func (k CollisionKind) String() string {
	return string(k)
}

// BatchStatus is the lifecycle state of a single BatchItem.
//
//	pending → success | failed | skipped | up-to-date
//
// Each item leaves pending exactly once.
type BatchStatus string

const (
	StatusPending  BatchStatus = "pending"
	StatusSuccess  BatchStatus = "success"
	StatusFailed   BatchStatus = "failed"
	StatusSkipped  BatchStatus = "skipped"
	StatusUpToDate BatchStatus = "up-to-date"
)

// String returns the string representation of BatchStatus.
func (s BatchStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is a final outcome.
func (s BatchStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped, StatusUpToDate:
		return true
	default:
		return false
	}
}

// BatchItem is one unit of work in a bulk operation. It is created by the
// caller and mutated exactly once by the batch orchestrator.
type BatchItem struct {
	// Name is the desired branch name (bulk create) or the worktree's
	// branch (bulk sync).
	Name string `json:"name" yaml:"name"`

	// Base is the optional base ref for bulk create or the sync source.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`

	Status BatchStatus `json:"status" yaml:"status"`

	// Path is the worktree path on success (create) or the synced
	// worktree (sync).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Reason is the human-readable outcome detail, verbatim git output
	// for failures.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// NewBatchItems builds pending items from a list of names sharing one base.
func NewBatchItems(names []string, base string) []BatchItem {
	items := make([]BatchItem, 0, len(names))
	for _, n := range names {
		items = append(items, BatchItem{Name: n, Base: base, Status: StatusPending})
	}
	return items
}

// BatchReport aggregates the outcomes of one bulk operation in input order.
// Counts are sufficient for a human summary without re-querying git.
type BatchReport struct {
	Operation string      `json:"operation" yaml:"operation"`
	Items     []BatchItem `json:"items" yaml:"items"`
	Succeeded int         `json:"succeeded" yaml:"succeeded"`
	Failed    int         `json:"failed" yaml:"failed"`
	Skipped   int         `json:"skipped" yaml:"skipped"`
	UpToDate  int         `json:"upToDate" yaml:"upToDate"`
}

// Tally recomputes the per-status counters from Items.
func (r *BatchReport) Tally() {
	r.Succeeded, r.Failed, r.Skipped, r.UpToDate = 0, 0, 0, 0
	for _, it := range r.Items {
		switch it.Status {
		case StatusSuccess:
			r.Succeeded++
		case StatusFailed:
			r.Failed++
		case StatusSkipped:
			r.Skipped++
		case StatusUpToDate:
			r.UpToDate++
		}
	}
}

// HasFailures reports whether at least one item failed.
func (r *BatchReport) HasFailures() bool {
	return r.Failed > 0
}

// Summary returns a one-line human-readable summary of the counters.
// Skipped and up-to-date counts are only shown when non-zero.
func (r *BatchReport) Summary() string {
	parts := []string{
		fmt.Sprintf("%d succeeded", r.Succeeded),
		fmt.Sprintf("%d failed", r.Failed),
	}
	if r.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", r.Skipped))
	}
	if r.UpToDate > 0 {
		parts = append(parts, fmt.Sprintf("%d up-to-date", r.UpToDate))
	}
	return fmt.Sprintf("%s: %s", r.Operation, strings.Join(parts, ", "))
}

// DeleteResult describes what a delete operation actually did.
type DeleteResult struct {
	Branch string `json:"branch" yaml:"branch"`
	Path   string `json:"path" yaml:"path"`

	// BranchDeleted is false when the branch ref could not be removed.
	// The worktree itself is gone either way.
	BranchDeleted bool `json:"branchDeleted" yaml:"branchDeleted"`

	// BranchForced is set when the soft delete reported "not fully
	// merged" and the forced delete was used instead.
	BranchForced bool `json:"branchForced" yaml:"branchForced"`

	// PrunedDirs lists empty ancestor directories removed after the
	// worktree, innermost first.
	PrunedDirs []string `json:"prunedDirs,omitempty" yaml:"prunedDirs,omitempty"`

	// RemovedContainers lists dev-container IDs removed for the worktree.
	RemovedContainers []string `json:"removedContainers,omitempty" yaml:"removedContainers,omitempty"`
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitGitError indicates a git invocation failed.
	ExitGitError ExitCode = 5

	// ExitWorktreeNotFound indicates no worktree holds the given branch.
	ExitWorktreeNotFound ExitCode = 6

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 7

	// ExitNameCollision indicates the desired branch name conflicts with
	// the existing branch namespace.
	ExitNameCollision ExitCode = 8

	// ExitPartialFailure indicates at least one item of a batch failed.
	ExitPartialFailure ExitCode = 9

	// ExitConfigError indicates the configuration could not be loaded or
	// failed validation.
	ExitConfigError ExitCode = 10
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
