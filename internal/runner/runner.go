// Package runner fans out independent sub-tasks with a concurrency cap and
// per-item error isolation: one failing item never aborts its siblings.
package runner

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Result is one sub-task outcome, positionally matched to its input.
type Result[O any] struct {
	Value O
	Err   error
}

// Options tune a batch run.
type Options struct {
	// Concurrency caps simultaneous sub-tasks. Values below 1 run items
	// sequentially.
	Concurrency int

	// ItemTimeout bounds each sub-task independently. Zero means no
	// per-item deadline beyond the parent context.
	ItemTimeout time.Duration
}

// Run executes fn over every item, up to Concurrency at a time, and returns
// one result-or-error per input in original order. Errors (including
// per-item timeouts and panics) are isolated into their item's slot. The
// parent context is checked before each sub-task starts; once canceled,
// remaining items fail fast with the context error.
func Run[I, O any](ctx context.Context, items []I, opts Options, fn func(context.Context, I) (O, error)) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	// errgroup for structured shutdown; sub-task errors never propagate
	// through it, so Wait always returns nil.
	g := &errgroup.Group{}
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			itemCtx := ctx
			if opts.ItemTimeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(ctx, opts.ItemTimeout)
				defer cancel()
			}

			results[i].Value, results[i].Err = runIsolated(itemCtx, item, fn)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// runIsolated invokes fn, converting a panic into an error for that item.
func runIsolated[I, O any](ctx context.Context, item I, fn func(context.Context, I) (O, error)) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("runner: sub-task panic: %v", r)
		}
	}()
	return fn(ctx, item)
}
