// Package batch runs many independent worktree operations under a bounded
// worker pool.
//
// Every item is submitted up front and runs to completion: a failing or
// panicking worker turns into a failed outcome for its own item and never
// cancels or affects its siblings. Results come back in input order no
// matter which worker finishes first.
//
// The pool is small by default (DefaultConcurrency) because git serializes
// some repository-wide administrative locks. Too many parallel worktree
// additions produce lock contention failures, which are reported as
// ordinary per-item failures and never retried here.
//
// Bulk create never reaches an interactive decision: the directory check is
// always skipped, so an existing directory surfaces as a per-item git
// failure.
package batch
