// Package poll waits for external state to converge with a bounded retry budget.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the attempt budget is exhausted before the
// condition holds.
var ErrTimeout = errors.New("timed out waiting for state to converge")

// Until calls fn up to attempts times, interval apart, until fn reports done.
// A non-nil error from fn aborts the wait immediately. Context cancellation
// aborts between attempts.
func Until(ctx context.Context, interval time.Duration, attempts int, fn func(ctx context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return ErrTimeout
}
