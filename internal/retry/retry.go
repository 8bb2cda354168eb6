// Package retry provides a small fixed-delay retry policy used by transport
// handle acquisition and the connection keeper.
package retry

import (
	"context"
	"time"
)

// Policy retries an operation a bounded number of times with a fixed delay
// between attempts. Zero values mean a single attempt with no delay.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, attempts are exhausted, or the context is
// done. Returns the last error on exhaustion.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if werr := sleep(ctx, p.Delay); werr != nil {
				return werr
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
