package application

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultWriteAttempts  = 3
	DefaultWriteBaseDelay = 50 * time.Millisecond
)

// RetryPolicy bounds RetryWithBackoff. The wait after the attempt with
// zero-based index i is BaseDelay * 2^i; no wait follows the last attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultWriteAttempts,
		BaseDelay:   DefaultWriteBaseDelay,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// RetryNotify is called before each wait with the number of attempts made so
// far, the error of the last attempt and the upcoming delay.
type RetryNotify func(attempts int, err error, wait time.Duration)

// RetryWithBackoff runs op until it returns nil, the policy is exhausted or
// ctx is done. It returns the error of the last attempt.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, op func(attempt int) error, notify RetryNotify) error {
	policy = policy.normalized()

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = policy.BaseDelay
	schedule.RandomizationFactor = 0
	schedule.Multiplier = 2
	schedule.MaxInterval = policy.BaseDelay << uint(policy.MaxAttempts)

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op(attempts)
		attempts++
		return struct{}{}, err
	},
		backoff.WithBackOff(schedule),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if notify != nil {
				notify(attempts, err, wait)
			}
		}),
	)
	return err
}
