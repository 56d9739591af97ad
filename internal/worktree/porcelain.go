package worktree

import (
	"strings"

	"github.com/shinji-kodama/wtm/internal/model"
)

// ParsePorcelain parses the output of `git worktree list --porcelain`
// into worktree records.
//
// A record begins at a "worktree <path>" line and accumulates the lines that
// follow it until the next "worktree " line or the end of input:
//
//	worktree /path/to/main
//	HEAD abc123
//	branch refs/heads/main
//
//	worktree /path/to/feature
//	HEAD def456
//	detached
//	locked being moved
//	prunable gitdir file points to non-existent location
//
// Blank lines carry no meaning and unknown keys are ignored so that newer git
// versions can add attributes. Lines before the first "worktree " line are
// dropped. Empty input yields an empty, non-nil slice.
func ParsePorcelain(output string) []model.WorktreeRecord {
	records := make([]model.WorktreeRecord, 0)

	var current *model.WorktreeRecord
	flush := func() {
		if current != nil {
			records = append(records, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		// The key is the first word, the value is everything after.
		// Markers like "detached" or "bare" have no value.
		key, value, _ := strings.Cut(line, " ")

		if key == "worktree" {
			flush()
			current = &model.WorktreeRecord{Path: value}
			continue
		}
		if current == nil {
			continue
		}

		switch key {
		case "HEAD":
			current.Head = value
		case "branch":
			current.Branch = value
		case "detached":
			current.Detached = true
		case "bare":
			current.Bare = true
		case "locked":
			current.Locked = true
			current.LockReason = value
		case "prunable":
			current.Prunable = true
			current.PrunableReason = value
		}
	}
	flush()

	return records
}
