// Package retry re-runs a failing call a bounded number of times.
package retry

import (
	"context"
	"time"
)

type fn func(ctx context.Context) error
type shouldRetry func(err error, attempt int) bool

// Policy bounds the attempts and the exponential backoff between them.
type Policy struct {
	Attempts int
	Backoff  time.Duration
	MaxDelay time.Duration
}

var Default = Policy{
	Attempts: 3,
	Backoff:  500 * time.Millisecond,
	MaxDelay: 5 * time.Second,
}

// Do calls f until it succeeds, shouldRetry rejects the error, the attempts
// run out or ctx is done. The last error is returned.
func Do(ctx context.Context, policy Policy, f fn, shouldRetry shouldRetry) error {
	attempts := max(policy.Attempts, 1)
	delay := policy.Backoff

	var err error
	for attempt := 1; ; attempt++ {
		err = f(ctx)
		if err == nil {
			return nil
		}

		if attempt >= attempts || (shouldRetry != nil && !shouldRetry(err, attempt)) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		delay *= 2
		if policy.MaxDelay > 0 {
			delay = min(delay, policy.MaxDelay)
		}
	}
}
