package httpclient

import (
	"context"
	"time"
)

// Retry runs fn up to attempts times, sleeping with exponential backoff
// between failures (base, 2*base, 4*base, ...). It returns nil as soon as fn
// succeeds, the last error once attempts are exhausted, or ctx.Err() if the
// context is cancelled while waiting.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	if base <= 0 {
		base = time.Second
	}

	var lastErr error
	delay := base

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return lastErr
}
