package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/wtm/internal/model"
	"github.com/shinji-kodama/wtm/internal/worktree"
)

// checkResult is the machine-readable result of the check command.
type checkResult struct {
	Name       string              `json:"name" yaml:"name"`
	Available  bool                `json:"available" yaml:"available"`
	Kind       model.CollisionKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Conflicts  []string            `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Remaining  int                 `json:"remaining,omitempty" yaml:"remaining,omitempty"`
	Suggestion string              `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// NewCheckCommand creates the cobra command for "wtm check".
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <branch>",
		Short: "Check whether a branch name is free",
		Long: `Check a branch name against every local and remote-tracking branch
without changing anything. Exits with 8 and suggests a free name when the
name collides.`,
		Example: `  wtm check feature/auth`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0])
		},
	}
	return cmd
}

// runCheck executes the check command logic.
func runCheck(cmd *cobra.Command, name string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	name = a.cfg.ApplyBranchPrefix(name)
	if err := worktree.ValidateBranchName(name); err != nil {
		return wrapError("invalid branch name", err)
	}

	ns, err := a.repo.Namespace(cmd.Context())
	if err != nil {
		return wrapError("failed to list branches", err)
	}

	result := checkResult{Name: name, Available: true}
	collision := worktree.CheckCollision(name, ns)
	var nameErr *model.NameCollisionError
	if errors.As(collision, &nameErr) {
		result.Available = false
		result.Kind = nameErr.Kind
		result.Conflicts = nameErr.Conflicts
		result.Remaining = nameErr.Remaining
		result.Suggestion = worktree.SuggestAlternative(name, ns)
	}

	if err := render(cmd, result, func(w io.Writer) {
		printCheckResultText(w, result, collision)
	}); err != nil {
		return err
	}
	if collision != nil {
		return model.WrapCLIError(model.ExitNameCollision, "name is taken", collision)
	}
	return nil
}

// printCheckResultText outputs the check result in text format.
func printCheckResultText(w io.Writer, r checkResult, collision error) {
	if r.Available {
		fmt.Fprintf(w, "%s is available\n", r.Name)
		return
	}
	fmt.Fprintf(w, "%s is not available (%s collision)\n", r.Name, r.Kind)
	fmt.Fprintf(w, "  %v\n", collision)
	fmt.Fprintf(w, "  Suggestion: %s\n", r.Suggestion)
}
