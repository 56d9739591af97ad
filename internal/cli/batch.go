package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/wtm/internal/batch"
	"github.com/shinji-kodama/wtm/internal/model"
)

// batchCreateFlags holds the parsed flag values for the batch-create command.
type batchCreateFlags struct {
	// file lists one "branch [base]" per line; "-" reads stdin.
	file string

	// base is the default start point for items without their own.
	base string

	// concurrency overrides batch.concurrency when positive.
	concurrency int
}

// NewBatchCreateCommand creates the cobra command for "wtm batch-create".
func NewBatchCreateCommand() *cobra.Command {
	flags := &batchCreateFlags{}

	cmd := &cobra.Command{
		Use:   "batch-create [branch...]",
		Short: "Create many worktrees at once",
		Long: `Create one worktree per branch name, running several git operations in
parallel. A failing item never stops the others; every item is reported
and the command exits with 9 when at least one failed.

Existing target directories are never deleted or renamed in a batch.`,
		Example: `  wtm batch-create feature/a feature/b feature/c

  # One "branch [base]" per line, '#' starts a comment
  wtm batch-create --file branches.txt --concurrency 8

  # From another command
  gh issue list --json number -q '.[].number | "issue-\(.)"' | wtm batch-create --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatchCreate(cmd, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", `File with one "branch [base]" per line ("-" for stdin)`)
	cmd.Flags().StringVarP(&flags.base, "base", "b", "", "Default start point (default: branch of the main worktree)")
	cmd.Flags().IntVarP(&flags.concurrency, "concurrency", "j", 0, "Maximum parallel git operations (default: batch.concurrency)")

	return cmd
}

// runBatchCreate executes the batch-create command logic.
func runBatchCreate(cmd *cobra.Command, flags *batchCreateFlags, args []string) error {
	items := model.NewBatchItems(args, flags.base)
	if flags.file != "" {
		fromFile, err := readBatchFile(cmd, flags.file, flags.base)
		if err != nil {
			return err
		}
		items = append(items, fromFile...)
	}
	if len(items) == 0 {
		return model.NewCLIError(model.ExitGeneralError, "no branch names given (pass names or --file)")
	}

	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.close()

	for i := range items {
		items[i].Name = a.cfg.ApplyBranchPrefix(items[i].Name)
	}

	report := batch.CreateAll(cmd.Context(), a.lifecycle, items, batch.Options{
		Concurrency: a.concurrency(flags.concurrency),
		Logger:      a.log.Logger,
	})
	return finishBatch(cmd, report)
}

// readBatchFile opens path ("-" for the command's stdin) and parses it.
func readBatchFile(cmd *cobra.Command, path, defaultBase string) ([]model.BatchItem, error) {
	if path == "-" {
		return parseBatchFile(cmd.InOrStdin(), defaultBase)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to open batch file", err)
	}
	defer f.Close()
	return parseBatchFile(f, defaultBase)
}

// parseBatchFile reads one "branch [base]" per line. Blank lines and lines
// starting with '#' are ignored; a line without its own base gets
// defaultBase.
func parseBatchFile(r io.Reader, defaultBase string) ([]model.BatchItem, error) {
	var items []model.BatchItem
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch len(fields) {
		case 1:
			items = append(items, model.BatchItem{Name: fields[0], Base: defaultBase, Status: model.StatusPending})
		case 2:
			items = append(items, model.BatchItem{Name: fields[0], Base: fields[1], Status: model.StatusPending})
		default:
			return nil, model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("batch file line %d: expected \"branch [base]\", got %q", lineNo, line))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to read batch file", err)
	}
	return items, nil
}

// finishBatch renders report and turns failures into exit code 9.
func finishBatch(cmd *cobra.Command, report *model.BatchReport) error {
	if err := render(cmd, report, func(w io.Writer) {
		printBatchReportText(w, report)
	}); err != nil {
		return err
	}
	if report.HasFailures() {
		return model.NewCLIError(model.ExitPartialFailure, report.Summary())
	}
	return nil
}

// printBatchReportText outputs one line per item followed by the summary.
//
//	success    feature/a   /src/app-worktrees/feature/a
//	failed     feature/b   fatal: a branch named 'feature/b' already exists
//
//	create: 1 succeeded, 1 failed
func printBatchReportText(w io.Writer, report *model.BatchReport) {
	width := 0
	for _, it := range report.Items {
		width = max(width, len(it.Name))
	}
	for _, it := range report.Items {
		detail := it.Reason
		if detail == "" {
			detail = it.Path
		}
		fmt.Fprintf(w, "%-10s %-*s  %s\n", it.Status, width, it.Name, firstLine(detail))
	}
	if len(report.Items) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, report.Summary())
}

// firstLine trims multi-line git output to its first line for the table.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
