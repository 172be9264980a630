// Package scanner finds the days in a historical horizon that have no
// checkpoint yet.
package scanner

import (
	"context"
	"sort"
	"time"

	"paperharvest/pkg/checkpoint"
	errs "paperharvest/pkg/errors"
	"paperharvest/pkg/logger"
	"paperharvest/pkg/timeunit"
)

// Scanner walks back from yesterday against a checkpoint store
type Scanner struct {
	store  checkpoint.Store
	now    func() time.Time
	logger logger.Logger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a Scanner over store
func New(store checkpoint.Store, log logger.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		store:  store,
		now:    time.Now,
		logger: logger.OrNop(log).WithField("component", "scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindMissing returns up to maxResults day units among today-1 ..
// today-horizonDays whose key has no checkpoint, oldest first. The
// nearest gaps are collected first, so a capped result holds the most
// recent missing days. maxResults <= 0 means no cap.
func (s *Scanner) FindMissing(ctx context.Context, horizonDays, maxResults int) ([]timeunit.Unit, error) {
	if horizonDays <= 0 {
		return nil, errs.New(errs.ErrorTypeInvalidRange, "horizon must be positive, got %d", horizonDays)
	}

	done, err := checkpoint.KeySet(ctx, s.store)
	if err != nil {
		return nil, err
	}

	today := timeunit.Midnight(s.now())
	var missing []timeunit.Unit
	for offset := 1; offset <= horizonDays; offset++ {
		if maxResults > 0 && len(missing) >= maxResults {
			break
		}
		if offset%365 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		u := timeunit.DayOf(today.AddDate(0, 0, -offset))
		if _, ok := done[u.Key()]; !ok {
			missing = append(missing, u)
		}
	}

	sort.Slice(missing, func(i, j int) bool {
		return missing[i].Start().Before(missing[j].Start())
	})

	fields := map[string]interface{}{
		"horizon_days": horizonDays,
		"checkpoints":  len(done),
		"missing":      len(missing),
	}
	if len(missing) > 0 {
		fields["oldest"] = missing[0].Key()
		fields["newest"] = missing[len(missing)-1].Key()
	}
	s.logger.InfoWithFields("scanned for missing days", fields)
	return missing, nil
}
