// Package fetcher retrieves every record of one time unit from a
// PageSource under the unit retry policy.
package fetcher

import (
	"context"
	"errors"
	"time"

	"paperharvest/pkg/logger"
	"paperharvest/pkg/metrics"
	"paperharvest/pkg/models"
	"paperharvest/pkg/retry"
	"paperharvest/pkg/source"
	"paperharvest/pkg/timeunit"
)

// Caps used when the configuration leaves them unset
const (
	DefaultDayMaxResults   = 1000
	DefaultChunkMaxResults = 5000
)

// Config sizes the query issued for a unit
type Config struct {
	DayMaxResults   int
	ChunkMaxResults int
	Order           source.SortOrder
}

// Result is the outcome of fetching one unit. Records holds whatever was
// accumulated, also when Err is set.
type Result struct {
	Unit     timeunit.Unit
	Records  []models.Record
	Attempts int
	Duration time.Duration
	Err      error
}

// OK reports whether the unit was fetched completely
func (r Result) OK() bool { return r.Err == nil }

// Interrupted reports whether the fetch stopped because the context ended
func (r Result) Interrupted() bool {
	return errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)
}

// Fetcher runs one query per unit against a PageSource
type Fetcher struct {
	source  source.PageSource
	policy  retry.Policy
	cfg     Config
	metrics *metrics.Metrics
	logger  logger.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithMetrics records attempts on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// New creates a Fetcher
func New(src source.PageSource, policy retry.Policy, cfg Config, log logger.Logger, opts ...Option) *Fetcher {
	if cfg.DayMaxResults <= 0 {
		cfg.DayMaxResults = DefaultDayMaxResults
	}
	if cfg.ChunkMaxResults <= 0 {
		cfg.ChunkMaxResults = DefaultChunkMaxResults
	}
	log = logger.OrNop(log).WithField("component", "fetcher")
	if policy.Logger == nil {
		policy.Logger = log
	}

	f := &Fetcher{
		source: src,
		policy: policy,
		cfg:    cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxResults returns the result cap for u
func (f *Fetcher) MaxResults(u timeunit.Unit) int {
	if u.Granularity() == timeunit.Chunk {
		return f.cfg.ChunkMaxResults
	}
	return f.cfg.DayMaxResults
}

// FetchUnit queries the source for [u.Start, u.End). Every attempt restarts
// the query; when all attempts fail the longest partial accumulation is
// returned with the last error.
func (f *Fetcher) FetchUnit(ctx context.Context, u timeunit.Unit) Result {
	start := time.Now()
	q := source.Query{
		Start:      u.Start(),
		End:        u.End(),
		MaxResults: f.MaxResults(u),
		Order:      f.cfg.Order,
	}
	log := f.logger.WithField("unit", u.Key())

	var (
		best     []models.Record
		attempts int
	)
	err := f.policy.Execute(ctx, func(ctx context.Context) error {
		attempts++
		records, err := f.consume(ctx, q, log)
		if err != nil {
			f.metrics.ObserveAttempt("error")
			if len(records) > len(best) {
				best = records
			}
			log.WithError(err).WarnWithFields("unit attempt failed", map[string]interface{}{
				"attempt": attempts,
				"partial": len(records),
			})
			return err
		}
		f.metrics.ObserveAttempt("success")
		best = records
		return nil
	})

	res := Result{
		Unit:     u,
		Records:  best,
		Attempts: attempts,
		Duration: time.Since(start),
	}
	if res.Records == nil {
		res.Records = []models.Record{}
	}
	if err != nil {
		res.Err = err
		if ctx.Err() != nil && !res.Interrupted() {
			res.Err = errors.Join(err, ctx.Err())
		}
	}
	return res
}

// consume drains one search. An empty-page signal ends the unit
// successfully with whatever was read before it.
func (f *Fetcher) consume(ctx context.Context, q source.Query, log logger.Logger) ([]models.Record, error) {
	records := make([]models.Record, 0)
	for r, err := range f.source.Search(ctx, q) {
		if err != nil {
			if source.IsEmptyPage(err) {
				log.WithError(err).WarnWithFields("source returned an empty page, treating unit as complete", map[string]interface{}{
					"records": len(records),
				})
				return records, nil
			}
			return records, err
		}
		records = append(records, r)
	}
	return records, nil
}
