package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/shinji-kodama/wtm/internal/model"
	"github.com/shinji-kodama/wtm/internal/worktree"
)

// Values accepted by --on-conflict.
const (
	onConflictAsk = "ask"
)

// maxPromptAttempts bounds how often an invalid answer is asked again
// before the prompt gives up and cancels.
const maxPromptAttempts = 3

// canPrompt reports whether in can answer a prompt. Files are accepted
// only when they are a terminal or a pipe; other readers always are.
func canPrompt(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	fd := f.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return true
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeNamedPipe != 0
}

// newDecider builds the directory-conflict callback for the --on-conflict
// policy. It returns nil when no callback should be installed, in which
// case the lifecycle fails with ErrDirectoryExists.
func newDecider(policy string, in io.Reader, out io.Writer) (worktree.DecisionFunc, error) {
	if policy == "" || policy == onConflictAsk {
		if IsStructuredOutput() || !canPrompt(in) {
			return nil, nil
		}
		return promptDecision(bufio.NewScanner(in), out), nil
	}

	decision, err := model.ParseCollisionDecision(policy)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid --on-conflict value", err)
	}
	return func(context.Context, worktree.DirectoryConflict) (model.CollisionDecision, error) {
		return decision, nil
	}, nil
}

// promptDecision asks on out and reads the answer from scanner. End of
// input cancels.
func promptDecision(scanner *bufio.Scanner, out io.Writer) worktree.DecisionFunc {
	return func(ctx context.Context, c worktree.DirectoryConflict) (model.CollisionDecision, error) {
		fmt.Fprintf(out, "Directory %s already exists.\n", c.Path)
		rename := fmt.Sprintf("use branch %q instead", c.Alternative)
		if c.Attach {
			rename = "use a suffixed directory instead"
		}
		fmt.Fprintf(out, "  [d]elete it and continue\n  [r]ename: %s\n  [c]ancel\n", rename)

		for attempt := 0; attempt < maxPromptAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			fmt.Fprint(out, "Choice [d/r/c]: ")
			if !scanner.Scan() {
				fmt.Fprintln(out)
				return model.DecisionCancel, nil
			}
			decision, err := model.ParseCollisionDecision(scanner.Text())
			if err == nil {
				return decision, nil
			}
			fmt.Fprintln(out, err)
		}
		return model.DecisionCancel, nil
	}
}

// promptConfirmation displays a yes/no prompt and waits for input.
// Returns true only for "y" or "yes" (case-insensitive). End of input
// answers no.
func promptConfirmation(in io.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", message)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return false
	}

	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "y" || answer == "yes"
}
