package batch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shinji-kodama/wtm/internal/model"
	"github.com/shinji-kodama/wtm/internal/worktree"
)

// Creator creates one worktree on a new branch. *worktree.Lifecycle
// satisfies it.
type Creator interface {
	Create(ctx context.Context, opts worktree.CreateOptions) (string, error)
}

// Syncer merges a base ref into one worktree. *worktree.Lifecycle
// satisfies it.
type Syncer interface {
	Sync(ctx context.Context, rec model.WorktreeRecord, base string) (model.BatchStatus, string, error)
}

// Options configures a bulk operation.
type Options struct {
	// Concurrency is the maximum number of workers in flight. Zero or
	// negative selects DefaultConcurrency.
	Concurrency int

	// Logger receives one entry per finished item. Nil discards.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// CreateAll creates one worktree per item and returns the report in input
// order. The directory check is always skipped.
//
// Items are screened before anything is submitted: an invalid name, a name
// repeated in the batch, or a name that "/"-nests with an earlier item of
// the same batch fails immediately. Collisions with branches that already
// exist are left to the lifecycle's own check, so the outcome does not
// depend on which worker runs first.
func CreateAll(ctx context.Context, creator Creator, items []model.BatchItem, opts Options) *model.BatchReport {
	log := opts.logger().With(zap.String("op", "batch-create"))
	report := &model.BatchReport{Operation: "create", Items: items}

	var queued []int
	seen := worktree.NewNamespace()
	for i := range items {
		if reason := screen(items[i].Name, seen); reason != "" {
			items[i].Status = model.StatusFailed
			items[i].Reason = reason
			log.Warn("item rejected", zap.String("name", items[i].Name), zap.String("reason", reason))
			continue
		}
		seen.Add(items[i].Name)
		queued = append(queued, i)
	}

	log.Debug("submitting", zap.Int("items", len(queued)), zap.Int("concurrency", opts.Concurrency))

	outcomes := RunAll(ctx, queued, opts.Concurrency, func(ctx context.Context, idx int) (string, error) {
		it := items[idx]
		return creator.Create(ctx, worktree.CreateOptions{
			Branch:       it.Name,
			Base:         it.Base,
			SkipDirCheck: true,
		})
	})

	for _, out := range outcomes {
		it := &items[out.Item]
		if out.Err != nil {
			it.Status = model.StatusFailed
			it.Reason = Reason(out.Err)
			log.Warn("item failed", zap.String("name", it.Name), zap.Error(out.Err))
			continue
		}
		it.Status = model.StatusSuccess
		it.Path = out.Result
		log.Info("item created", zap.String("name", it.Name), zap.String("path", it.Path))
	}

	report.Tally()
	return report
}

// screen returns why name cannot join a batch that already holds seen, or
// "" when it can.
func screen(name string, seen worktree.Namespace) string {
	if err := worktree.ValidateBranchName(name); err != nil {
		return err.Error()
	}
	if seen.Has(name) {
		return fmt.Sprintf("duplicate of an earlier item %q", name)
	}
	if err := worktree.CheckCollision(name, seen); err != nil {
		return "conflicts with another item in this batch: " + err.Error()
	}
	return ""
}

// SyncAll merges base into each of records and returns the report in input
// order.
func SyncAll(ctx context.Context, syncer Syncer, records []model.WorktreeRecord, base string, opts Options) *model.BatchReport {
	log := opts.logger().With(zap.String("op", "batch-sync"), zap.String("base", base))

	items := make([]model.BatchItem, len(records))
	for i, rec := range records {
		name := rec.ShortBranch()
		if name == "" {
			name = rec.Path
		}
		items[i] = model.BatchItem{Name: name, Base: base, Path: rec.Path, Status: model.StatusPending}
	}

	type result struct {
		status model.BatchStatus
		reason string
	}
	outcomes := RunAll(ctx, records, opts.Concurrency, func(ctx context.Context, rec model.WorktreeRecord) (result, error) {
		status, reason, err := syncer.Sync(ctx, rec, base)
		return result{status: status, reason: reason}, err
	})

	for i, out := range outcomes {
		it := &items[i]
		switch {
		case out.Err != nil:
			it.Status = model.StatusFailed
			it.Reason = Reason(out.Err)
		case !out.Result.status.IsTerminal():
			it.Status = model.StatusFailed
			it.Reason = fmt.Sprintf("sync returned non-terminal status %q", out.Result.status)
		default:
			it.Status = out.Result.status
			it.Reason = out.Result.reason
		}
		log.Info("item synced", zap.String("name", it.Name), zap.Stringer("status", it.Status), zap.String("reason", it.Reason))
	}

	report := &model.BatchReport{Operation: "sync", Items: items}
	report.Tally()
	return report
}

// Reason renders err for a per-item report. Git failures are reported as
// git's own output.
func Reason(err error) string {
	var gitErr *model.GitError
	if errors.As(err, &gitErr) && gitErr.Stderr != "" {
		return gitErr.Stderr
	}
	return err.Error()
}
