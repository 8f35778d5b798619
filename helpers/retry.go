package helpers

import (
	"context"
	"time"
)

const maxAttempts = 3

// Retry runs fn up to three times with exponential backoff (1s, 2s, 4s,
// capped at 8s). The last error is returned when all attempts fail; callers
// degrade to an empty result rather than aborting the run.
func Retry(ctx context.Context, fn func() error) error {
	var err error
	wait := time.Second
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			wait *= 2
			if wait > 8*time.Second {
				wait = 8 * time.Second
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
