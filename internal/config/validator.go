package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shinji-kodama/wtm/internal/worktree"
)

// maxConcurrency keeps batch runs well below the point where git lock
// contention dominates.
const maxConcurrency = 64

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config key (e.g., "batch.concurrency")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns every
// violation found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > maxConcurrency {
		errs = append(errs, ValidationError{
			Field:   "batch.concurrency",
			Value:   c.Batch.Concurrency,
			Message: fmt.Sprintf("must be between 1 and %d", maxConcurrency),
		})
	}

	if c.Branch.Prefix != "" {
		// The prefix must itself form a valid start of a branch name.
		if err := worktree.ValidateBranchName(c.Branch.Prefix + "x"); err != nil {
			errs = append(errs, ValidationError{
				Field:   "branch.prefix",
				Value:   c.Branch.Prefix,
				Message: "must produce valid branch names",
			})
		}
	}

	if strings.ContainsAny(c.Paths.DirPrefix, `/\`) || strings.Contains(c.Paths.DirPrefix, "..") {
		errs = append(errs, ValidationError{
			Field:   "paths.dir_prefix",
			Value:   c.Paths.DirPrefix,
			Message: "must not contain path separators or '..'",
		})
	}

	if c.Sync.Base != "" {
		if err := worktree.ValidateBranchName(c.Sync.Base); err != nil {
			errs = append(errs, ValidationError{
				Field:   "sync.base",
				Value:   c.Sync.Base,
				Message: "must be a valid ref name",
			})
		}
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}
	if c.Logging.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be at least 1",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must not be negative",
		})
	}

	return errs
}
