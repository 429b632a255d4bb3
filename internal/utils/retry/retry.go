// Package retry re-runs operations that failed with a transient error.
package retry

import (
	"context"
	"time"

	"github.com/SscSPs/cashledger/internal/apperrors"
	"github.com/cenkalti/backoff/v5"
)

// Policy bounds how often and how fast an operation is retried.
type Policy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy is used when no policy is configured.
func DefaultPolicy() Policy {
	return Policy{MaxTries: 3, InitialInterval: 25 * time.Millisecond, MaxInterval: 500 * time.Millisecond}
}

// Do runs op until it succeeds, fails with a non-transient error, or the policy is exhausted.
// onRetry, when not nil, is called before every new attempt.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, onRetry func(err error, attempt int)) error {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	attempt := 0
	var lastErr error
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if attempt > 1 && onRetry != nil {
			onRetry(lastErr, attempt)
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return struct{}{}, nil
		}
		if !apperrors.IsRetryable(lastErr) {
			return struct{}{}, backoff.Permanent(lastErr)
		}
		return struct{}{}, lastErr
	}, backoff.WithBackOff(b), backoff.WithMaxTries(tries))
	return err
}
