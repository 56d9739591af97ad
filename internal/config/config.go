// Package config loads the wtm configuration.
//
// A Config is built once per invocation by the CLI and passed down
// explicitly; nothing here is global. Values come from, in increasing
// precedence: built-in defaults, an optional file in the repository root
// (or the one named by --config), and WTM_* environment variables
// (WTM_BATCH_CONCURRENCY=8 overrides batch.concurrency).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/wtm/internal/worktree"
)

// Config represents the complete wtm configuration.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths" json:"paths" yaml:"paths"`
	Branch  BranchConfig  `mapstructure:"branch" json:"branch" yaml:"branch"`
	Batch   BatchConfig   `mapstructure:"batch" json:"batch" yaml:"batch"`
	Sync    SyncConfig    `mapstructure:"sync" json:"sync" yaml:"sync"`
	Cleanup CleanupConfig `mapstructure:"cleanup" json:"cleanup" yaml:"cleanup"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging" yaml:"logging"`
}

// PathsConfig controls where worktree directories are placed.
type PathsConfig struct {
	// WorktreeDir holds all linked worktrees. Empty means the sibling
	// directory "<repo>-worktrees". Relative paths are resolved against
	// the main worktree; "~" expands to the home directory.
	WorktreeDir string `mapstructure:"worktree_dir" json:"worktreeDir" yaml:"worktree_dir"`

	// DirPrefix is prepended to the branch name to form the directory name.
	DirPrefix string `mapstructure:"dir_prefix" json:"dirPrefix" yaml:"dir_prefix"`
}

// BranchConfig controls branch naming conventions.
type BranchConfig struct {
	// Prefix is prepended to names given to create and batch-create
	// unless they already start with it (e.g. "feature/").
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`
}

// BatchConfig controls bulk operations.
type BatchConfig struct {
	// Concurrency is the maximum number of git operations in flight.
	Concurrency int `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency"`
}

// SyncConfig controls the sync command.
type SyncConfig struct {
	// Base is merged into every worktree. Empty means the branch checked
	// out in the main worktree.
	Base string `mapstructure:"base" json:"base" yaml:"base"`
}

// CleanupConfig controls what delete removes besides the worktree.
type CleanupConfig struct {
	// Containers removes dev containers bound to the deleted worktree.
	Containers bool `mapstructure:"containers" json:"containers" yaml:"containers"`
}

// LoggingConfig controls the diagnostic log.
type LoggingConfig struct {
	// Level is the console level: debug, info, warn or error.
	Level string `mapstructure:"level" json:"level" yaml:"level"`

	// File, when set, receives JSON log entries at debug level.
	File string `mapstructure:"file" json:"file,omitempty" yaml:"file,omitempty"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb" json:"maxSizeMB" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups" json:"maxBackups" yaml:"max_backups"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Batch:   BatchConfig{Concurrency: 5},
		Logging: LoggingConfig{Level: "warn", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// Layout resolves the worktree layout for the repository whose main
// worktree is root.
func (c *Config) Layout(root string) (worktree.Layout, error) {
	return worktree.NewLayout(root, expandHome(c.Paths.WorktreeDir), c.Paths.DirPrefix)
}

// ApplyBranchPrefix returns name with the configured prefix, unless it
// already carries it.
func (c *Config) ApplyBranchPrefix(name string) string {
	if c.Branch.Prefix == "" || strings.HasPrefix(name, c.Branch.Prefix) {
		return name
	}
	return c.Branch.Prefix + name
}

// expandHome expands a leading "~" to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
