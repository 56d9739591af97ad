package batch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sourcegraph/conc/pool"
)

// DefaultConcurrency bounds the number of simultaneously running workers
// when the caller passes zero or a negative value.
const DefaultConcurrency = 5

// Outcome pairs an input item with the result of its worker.
type Outcome[T, R any] struct {
	Item   T
	Result R
	Err    error
}

// PanicError is recorded for a worker that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panicked: %v", e.Value)
}

// RunAll runs worker once per item with at most concurrency workers in
// flight and returns the outcomes positionally matching items.
//
// Submission is synchronous; the pool defers execution. There is no
// sibling cancellation: ctx is handed to every worker unchanged, and a
// worker that returns an error or panics only affects its own outcome.
func RunAll[T, R any](ctx context.Context, items []T, concurrency int, worker func(context.Context, T) (R, error)) []Outcome[T, R] {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	outcomes := make([]Outcome[T, R], len(items))
	p := pool.New().WithMaxGoroutines(concurrency)

	for i, item := range items {
		// Each task writes only its own slot.
		p.Go(func() {
			outcomes[i] = runOne(ctx, item, worker)
		})
	}
	p.Wait()

	return outcomes
}

// runOne converts a panic in worker into a failed outcome so the pool
// never re-panics on Wait.
func runOne[T, R any](ctx context.Context, item T, worker func(context.Context, T) (R, error)) (out Outcome[T, R]) {
	out.Item = item
	defer func() {
		if r := recover(); r != nil {
			out.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	out.Result, out.Err = worker(ctx, item)
	return out
}
