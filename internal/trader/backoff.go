package trader

import (
	"context"
	"time"
)

const _maxBackoff = 2 * time.Second

// backoffDelay returns the delay before retry attempt n, doubling from base
// and capped at _maxBackoff.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Millisecond
	}
	delay := base << attempt
	if delay <= 0 || delay > _maxBackoff {
		return _maxBackoff
	}
	return delay
}

// sleep waits for d or until the context ends.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
