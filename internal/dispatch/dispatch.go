// Package dispatch runs a fixed number of independent units of work with
// bounded concurrency, backing the AsyncEngine's scheduling model (§4.7).
// It carries no ordering or error policy of its own -- callers interpret
// the Result stream according to `ordered` and `throw_on_error`.
package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Result is one unit's outcome, tagged with its original index so callers
// can reorder (ordered=true) or pass completion order through (ordered=false).
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Run launches n units of work, each identified by index 0..n-1, capping
// in-flight units at concurrency. Results are sent on the returned channel
// as they complete; the channel is closed once every launched unit has
// finished.
//
// Cancelling ctx stops scheduling new units immediately (Acquire fails)
// and causes already-running units to race ctx.Done when delivering their
// result, so the channel still closes promptly without leaking goroutines
// (§4.7 cancellation, §5).
func Run[T any](ctx context.Context, concurrency int64, n int, work func(ctx context.Context, index int) (T, error)) <-chan Result[T] {
	out := make(chan Result[T])
	if n == 0 {
		close(out)
		return out
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	sem := semaphore.NewWeighted(concurrency)
	go func() {
		defer close(out)

		// g supervises the per-unit goroutines the way worker.Runner
		// supervises its workers; every unit's own error is carried in
		// its Result rather than returned to g, so g.Wait() never fails
		// -- the throw_on_error decision belongs to the caller, not to
		// this scheduling layer.
		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < n; i++ {
			if err := sem.Acquire(gctx, 1); err != nil {
				break
			}
			i := i
			g.Go(func() error {
				defer sem.Release(1)
				v, err := work(gctx, i)
				select {
				case out <- Result[T]{Index: i, Value: v, Err: err}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}
