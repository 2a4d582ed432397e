package query

import (
	"context"
	"time"
)

// Poll calls fn immediately and then every interval until ctx is done.
// There is no backoff and no jitter; a failing fn is simply called again
// on the next tick.
func Poll(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		return
	}
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
