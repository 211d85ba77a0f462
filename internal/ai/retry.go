package ai

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a model call is retried after a transient failure.
type RetryPolicy struct {
	MaxRetries int
	Initial    time.Duration
}

// Do runs op until it succeeds, the retries are exhausted or ctx is done.
// Waits grow exponentially with randomized jitter.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	exp := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		exp.InitialInterval = p.Initial
	}
	exp.MaxInterval = 10 * time.Second

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
