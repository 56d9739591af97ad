package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/wtm/internal/model"
)

// listEntry is the machine-readable form of one worktree in the list
// command.
type listEntry struct {
	model.WorktreeRecord `yaml:",inline"`

	Main       bool              `json:"main" yaml:"main"`
	LastCommit *model.LastCommit `json:"lastCommit,omitempty" yaml:"lastCommit,omitempty"`
}

// listResult is the top-level list output.
type listResult struct {
	Worktrees []listEntry `json:"worktrees" yaml:"worktrees"`
}

// NewListCommand creates the cobra command for "wtm list".
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List worktrees",
		Long: `List every worktree of the repository, main worktree first, with its
last commit and state markers (main, locked, prunable, detached).`,
		Example: `  wtm list
  wtm list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}
	return cmd
}

// runList executes the list command logic.
func runList(cmd *cobra.Command) error {
	ctx := cmd.Context()

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.repo.List(ctx)
	if err != nil {
		return wrapError("failed to list worktrees", err)
	}

	// Use an empty slice instead of nil so JSON shows [] instead of null.
	result := listResult{Worktrees: make([]listEntry, 0, len(records))}
	for i, rec := range records {
		entry := listEntry{WorktreeRecord: rec, Main: i == 0}
		if !rec.Bare && !rec.Prunable {
			entry.LastCommit = a.repo.GetLastCommit(ctx, rec.Path)
		}
		result.Worktrees = append(result.Worktrees, entry)
	}

	return render(cmd, result, func(w io.Writer) {
		printListResultText(w, result.Worktrees, time.Now())
	})
}

// printListResultText outputs the worktree list as a human-readable
// text table with aligned columns.
//
// The table format is:
//
//	BRANCH               HEAD      LAST COMMIT          FLAGS     PATH
//	main                 1a2b3c4   2 hours ago          main      /src/app
//	feature/auth         5d6e7f8   3 days ago           -         /src/app-worktrees/feature/auth
func printListResultText(w io.Writer, entries []listEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No worktrees found.")
		return
	}

	fmt.Fprintf(w, "%-20s %-9s %-20s %-17s %s\n",
		"BRANCH", "HEAD", "LAST COMMIT", "FLAGS", "PATH")

	for _, e := range entries {
		branch := e.ShortBranch()
		if branch == "" {
			branch = "(detached)"
		}
		fmt.Fprintf(w, "%-20s %-9s %-20s %-17s %s\n",
			branch,
			shortHead(e),
			FormatCommitAge(e.LastCommit, now),
			FormatFlags(e.WorktreeRecord, e.Main),
			e.Path,
		)
	}
}

// shortHead prefers the hash from the last commit, which git abbreviates
// to a unique prefix.
func shortHead(e listEntry) string {
	if e.LastCommit != nil && e.LastCommit.ShortHash != "" {
		return e.LastCommit.ShortHash
	}
	if len(e.Head) > 7 {
		return e.Head[:7]
	}
	if e.Head == "" {
		return "-"
	}
	return e.Head
}

// FormatFlags returns the comma-separated state markers of a worktree, or
// "-" when it has none.
//
// Example:
//
//	main worktree                → "main"
//	locked, directory deleted   → "locked,prunable"
func FormatFlags(rec model.WorktreeRecord, isMain bool) string {
	var flags []string
	if isMain {
		flags = append(flags, "main")
	}
	if rec.Bare {
		flags = append(flags, "bare")
	}
	if rec.Detached {
		flags = append(flags, "detached")
	}
	if rec.Locked {
		flags = append(flags, "locked")
	}
	if rec.Prunable {
		flags = append(flags, "prunable")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

// FormatCommitAge renders the age of the last commit relative to now.
// Returns "-" when the commit is unknown.
func FormatCommitAge(c *model.LastCommit, now time.Time) string {
	if c == nil || c.Date.IsZero() {
		return "-"
	}
	d := now.Sub(c.Date)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	default:
		return c.Date.Format("2006-01-02")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
