package llm

import (
	"context"
	"time"
)

// Backoff returns the delay before the given retry (1 for the first retry).
type Backoff func(retry int) time.Duration

func FixedBackoff(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// ExponentialBackoff doubles base per retry, capped at maxDelay.
func ExponentialBackoff(base, maxDelay time.Duration) Backoff {
	return func(retry int) time.Duration {
		d := base
		for i := 1; i < retry; i++ {
			d *= 2
			if maxDelay > 0 && d >= maxDelay {
				return maxDelay
			}
		}
		if maxDelay > 0 && d > maxDelay {
			return maxDelay
		}
		return d
	}
}

// RetryPolicy bounds the attempts made for one collaborator call.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     Backoff
	// Retryable reports whether a failed attempt may be repeated. Nil
	// treats every error as retryable.
	Retryable func(error) bool

	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Backoff:     FixedBackoff(time.Second),
	}
}

// Do runs fn until it succeeds, the error is not retryable, attempts run
// out or ctx is done. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && p.Backoff != nil {
			if serr := sleep(ctx, p.Backoff(attempt-1)); serr != nil {
				return attempt - 1, err
			}
		}
		err = fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return attempt, err
		}
	}
	return attempts, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
