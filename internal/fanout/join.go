// Package fanout runs a batch of independent tasks concurrently and joins on
// their aggregate outcome once every task has settled.
package fanout

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrTimeout is returned by Wait when the context ends before every task settled
var ErrTimeout = errors.New("fan-out join timed out")

// Task is a single unit of work. It should honour ctx.
type Task func(ctx context.Context) error

// Batch is a set of running tasks. Each task owns one result slot, so a task
// that settles after the caller stopped waiting never touches shared state.
type Batch struct {
	errs    []error
	settled chan struct{}
}

// Start launches every task with at most limit running at once and returns
// immediately. A task failure does not cancel its siblings.
func Start(ctx context.Context, limit int, tasks []Task) *Batch {
	b := &Batch{
		errs:    make([]error, len(tasks)),
		settled: make(chan struct{}),
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	go func() {
		defer close(b.settled)
		for i, task := range tasks {
			g.Go(func() error {
				b.errs[i] = run(ctx, task)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return b
}

func run(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx)
}

// Settled is closed once every task has returned
func (b *Batch) Settled() <-chan struct{} {
	return b.settled
}

// Wait blocks until every task settled or ctx is done. It returns nil when all
// tasks succeeded and the joined task errors otherwise. If ctx ends first the
// error wraps ErrTimeout and ctx.Err().
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.settled:
		return errors.Join(b.errs...)
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

// Join is Start followed by Wait on the same context
func Join(ctx context.Context, limit int, tasks []Task) error {
	return Start(ctx, limit, tasks).Wait(ctx)
}

// Errors flattens an error returned by Wait into the individual task failures
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
