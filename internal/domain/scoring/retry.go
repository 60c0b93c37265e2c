package scoring

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/okian/vitae/pkg/metrics"
)

// Default retry policy constants.
const (
	defaultMaxAttempts   = 3
	defaultBaseDelay     = 500 * time.Millisecond
	defaultMaxDelay      = 8 * time.Second
	defaultJitterPercent = 20
)

// Policy is an explicit retry-policy value for a single provider call:
// attempt budget, exponential backoff with jitter, and a predicate
// deciding which upstream failures are worth retrying.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// DefaultPolicy returns the policy used when none is configured.
// The retryable predicate must still be supplied by the caller.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		Retryable:   retryable,
	}
}

// Do runs fn under the policy. Non-retryable errors abort immediately;
// retryable ones are retried with exponential backoff plus jitter until
// the attempt budget is spent.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}

	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(defaultJitterPercent, b)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	b = retry.WithMaxRetries(uint64(attempts-1), b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && p.Retryable(err) {
			metrics.RecordUpstreamRetry()
			return retry.RetryableError(err)
		}
		return err
	})
}
