package scheduler

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// taskScope is the structured concurrency scope owned by the loop. Every
// background task spawned during a run registers here; closing the scope
// cancels all unfinished children deterministically instead of discovering
// them via a runtime-wide scan.
type taskScope struct {
	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
	active atomic.Int64
}

func newTaskScope() *taskScope {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	return &taskScope{ctx: ctx, cancel: cancel, g: g}
}

// Go runs fn in the scope. fn must honor ctx cancellation.
func (ts *taskScope) Go(fn func(ctx context.Context) error) {
	ts.active.Add(1)
	ts.g.Go(func() error {
		defer ts.active.Add(-1)
		return fn(ts.ctx)
	})
}

// Close requests cancellation of all children and returns how many were
// still running. It does not wait for them to confirm: a task refusing to
// cancel is not distinguished from one that obeyed.
func (ts *taskScope) Close() int {
	n := int(ts.active.Load())
	ts.cancel()
	return n
}
