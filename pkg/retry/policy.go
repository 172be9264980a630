package retry

import (
	"context"
	"errors"
	"time"

	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/logger"
)

// Policy is the per-unit retry policy: a bounded number of attempts with a
// fixed backoff between them. Source errors of any kind are retried; fatal
// local conditions and cancellation are not.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Logger      logger.Logger

	// OnRetry, if set, observes each retry before the backoff wait
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns two attempts with a 60s backoff.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 2, Backoff: 60 * time.Second}
}

// Execute runs op under the policy. It returns nil on success or a *Failure
// holding the last error.
func (p Policy) Execute(ctx context.Context, op Operation) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return Do(ctx, op, &Config{
		MaxAttempts: attempts,
		Backoff:     &ConstantBackoff{Delay: p.Backoff},
		RetryIf:     retryUnitError,
		OnRetry:     p.OnRetry,
		Logger:      p.Logger,
	})
}

func retryUnitError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errs.IsFatal(err)
}
