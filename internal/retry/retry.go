// Package retry provides the single retry-with-backoff policy shared by the
// extractor's chunk scans and the validator's propagation-lag loop.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/giftvault/escrow-indexer/internal/adapter"
)

// DelayFunc computes the wait before the next attempt. attempt starts at 1.
type DelayFunc func(attempt int) time.Duration

// Policy is a reusable retry-with-backoff policy. Zero values fall back to a
// single attempt with no delay.
type Policy struct {
	// MaxAttempts is the hard attempt ceiling, including the first try
	MaxAttempts int

	// Delay computes the backoff before attempt n+1 after attempt n failed
	Delay DelayFunc

	// Retryable decides whether an error is worth another attempt.
	// Defaults to "anything not marked Permanent".
	Retryable func(error) bool
}

// permanentError marks an error that must not be retried
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the policy surfaces it without further attempts
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked Permanent
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Exponential doubles the base delay on every failed attempt: base, 2*base, 4*base, ...
func Exponential(base time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// LinearCapped grows the delay by step per attempt, bounded by cap:
// min(attempt*step, cap)
func LinearCapped(step, cap time.Duration) DelayFunc {
	return func(attempt int) time.Duration {
		d := time.Duration(attempt) * step
		if d > cap {
			return cap
		}
		return d
	}
}

// Do runs op until it succeeds, the attempt ceiling is reached, the error is
// not retryable, or ctx is canceled. Backoff sleeps go through the injected
// clock so tests can control time. The last error is returned unwrapped of
// any Permanent marker.
func (p Policy) Do(ctx context.Context, clock adapter.Clock, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	retryable := p.Retryable
	if retryable == nil {
		retryable = func(err error) bool { return !IsPermanent(err) }
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == attempts {
			break
		}

		if p.Delay != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clock.After(p.Delay(attempt)):
			}
		}
	}

	var pe *permanentError
	if errors.As(lastErr, &pe) {
		return pe.err
	}
	return lastErr
}
