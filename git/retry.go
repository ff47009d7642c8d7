package git

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetryDelays returns the backoff delays for clone retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Retry calls fn until it succeeds, waiting delays[i] before retry i+1.
// It makes len(delays)+1 attempts and returns the last error.
func Retry(ctx context.Context, delays []time.Duration, logger *slog.Logger, fn func(context.Context) error) error {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Warn("retrying", "attempt", attempt+2, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
