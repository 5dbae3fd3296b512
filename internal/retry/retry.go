// Package retry implements the engine's 429-only backoff policy. It holds
// no transport knowledge: it recognizes a 429 by the status code a
// *core.ServerError carries and computes how long to wait before the next
// attempt.
package retry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eugener/genai/internal/core"
)

// Policy is a fixed retry budget with exponential backoff. Only HTTP 429
// is retryable in this core (§4.2); network-level errors are fatal.
type Policy struct {
	// MaxRetries is the number of retries allowed after the first attempt
	// (so MaxRetries=3 means up to 4 total attempts).
	MaxRetries int
	// Sleep is injected so tests can observe backoff without waiting on
	// the wall clock.
	Sleep func(context.Context, time.Duration) error
}

// New returns a Policy with the given retry budget and the real clock.
func New(maxRetries int) Policy {
	return Policy{MaxRetries: maxRetries, Sleep: sleepCtx}
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

// BackoffFor returns the wait before retrying attempt n (0-based): 2^(n+1)
// seconds, per §4.2.
func BackoffFor(attempt int) time.Duration {
	return (1 << uint(attempt+1)) * time.Second
}

// Retryable reports whether err represents a retryable condition: exactly
// an HTTP 429 response.
func Retryable(err error) bool {
	var serverErr *core.ServerError
	return errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusTooManyRequests
}

// Do runs attempt, retrying on 429 per the policy's backoff schedule. attempt
// is called with the 0-based attempt number. onRetry, if non-nil, runs
// before each sleep (e.g. to force the capacity gate to zero, per §4.3).
func Do[T any](ctx context.Context, p Policy, endpoint string, attempt func(n int) (T, error), onRetry func(n int)) (T, error) {
	var zero T
	var lastErr error
	for n := 0; n <= p.MaxRetries; n++ {
		result, err := attempt(n)
		if err == nil {
			return result, nil
		}
		if !Retryable(err) {
			return zero, err
		}
		lastErr = err
		if n == p.MaxRetries {
			break
		}
		if onRetry != nil {
			onRetry(n)
		}
		if sleepErr := p.sleep(ctx, BackoffFor(n)); sleepErr != nil {
			return zero, &core.CancelledError{Stage: endpoint, Cause: sleepErr}
		}
	}
	var serverErr *core.ServerError
	errors.As(lastErr, &serverErr)
	return zero, &core.RateLimitedError{
		Endpoint: endpoint,
		Attempt:  p.MaxRetries + 1,
		Body:     bodyOf(serverErr),
	}
}

func bodyOf(e *core.ServerError) string {
	if e == nil {
		return ""
	}
	return e.Body
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}
