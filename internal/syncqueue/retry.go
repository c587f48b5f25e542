package syncqueue

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy decides how often a failed remote write is attempted again.
type RetryPolicy interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type noRetry struct{}

// NoRetry attempts each write exactly once.
func NoRetry() RetryPolicy {
	return noRetry{}
}

func (noRetry) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type backoffRetry struct {
	attempts uint64
	delay    time.Duration
}

// ExponentialRetry retries a failed write up to attempts more times,
// doubling the delay each time starting from delay.
func ExponentialRetry(attempts uint64, delay time.Duration) RetryPolicy {
	if attempts == 0 {
		return NoRetry()
	}
	return backoffRetry{attempts: attempts, delay: delay}
}

func (r backoffRetry) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(r.attempts, retry.NewExponential(r.delay))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
