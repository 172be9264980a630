// Package retry provides backoff strategies and retry loops for transient
// failures.
//
// Do is the general loop used by the arXiv client around single page
// requests. Policy is the unit-level policy the fetcher applies around a
// whole time unit: by default two attempts, 60 seconds apart.
//
//	policy := retry.Policy{MaxAttempts: 2, Backoff: time.Minute, Logger: log}
//	err := policy.Execute(ctx, func(ctx context.Context) error {
//		return fetchUnit(ctx)
//	})
//	var failure *retry.Failure
//	if errors.As(err, &failure) {
//		// failure.Attempts, failure.Err
//	}
package retry
