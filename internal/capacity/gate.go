// Package capacity implements the throttle that tracks the server's
// advertised token budget and admits sub-batches against it (§4.3).
package capacity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eugener/genai/internal/core"
)

// Fetcher polls the server for the current token budget. Transport.Limits
// satisfies this.
type Fetcher func(ctx context.Context) (core.CapacitySnapshot, error)

// Gate is a single engine invocation's local estimate of remaining token
// budget. It needs no cross-invocation synchronization (§5) but is
// internally mutex-guarded because AsyncEngine workers share one Gate
// concurrently.
type Gate struct {
	mu        sync.Mutex
	remaining int64
	fetch     Fetcher
	wait      time.Duration
	sleep     func(context.Context, time.Duration) error
}

// New creates a Gate backed by fetch, with the 1-second busy-wait cadence
// from §4.3.
func New(fetch Fetcher) *Gate {
	return &Gate{fetch: fetch, wait: time.Second, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Init seeds the gate's estimate from a fresh server poll. Call once
// before an engine begins dispatching.
func (g *Gate) Init(ctx context.Context) error {
	snap, err := g.fetch(ctx)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.remaining = snap.Remaining()
	g.mu.Unlock()
	return nil
}

// Take blocks until remaining > 0 (polling the server at the configured
// cadence), then reserves up to want tokens worth of prompt slots and
// returns how many were actually reserved: min(remaining, want).
func (g *Gate) Take(ctx context.Context, want int) (int, error) {
	for {
		g.mu.Lock()
		if g.remaining > 0 {
			takeable := want
			if int64(takeable) > g.remaining {
				takeable = int(g.remaining)
			}
			g.remaining -= int64(takeable)
			g.mu.Unlock()
			return takeable, nil
		}
		g.mu.Unlock()

		slog.Debug("capacity gate waiting", "cadence", g.wait)
		if err := g.sleep(ctx, g.wait); err != nil {
			return 0, &core.CancelledError{Stage: "capacity gate", Cause: err}
		}
		if err := g.Init(ctx); err != nil {
			return 0, err
		}
	}
}

// ForceDepleted zeroes the local estimate, e.g. on a 429 response, so the
// next Take blocks and refreshes rather than racing further requests
// against a budget the server has already signalled is exhausted (§4.3).
func (g *Gate) ForceDepleted() {
	g.mu.Lock()
	g.remaining = 0
	g.mu.Unlock()
}

// Remaining returns the current local estimate, for progress observability.
func (g *Gate) Remaining() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining
}
